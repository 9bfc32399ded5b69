/*
handlers_test.go - HTTP tests for the API layer

Tests for:
- Authentication (401) and route authorization (403)
- Full assignment/payment cycle over HTTP
- Error status mapping
- Finance export, scenarios, live notification stream
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/project-engine/ledger"
	"github.com/warp/project-engine/notify"
	"github.com/warp/project-engine/report"
	"github.com/warp/project-engine/store/sqlite"
)

type testEnv struct {
	srv      *httptest.Server
	svc      *ledger.Service
	store    *sqlite.Store
	sessions *Sessions
	hub      *notify.Hub

	admin, manager, employee, other ledger.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)

	hub := notify.NewHub(nil)
	dispatcher := notify.NewDispatcher(store, hub, 64)
	dispatcher.Start()

	svc := ledger.NewService(store, dispatcher)
	sessions := NewSessions("test-secret")
	authz, err := NewAuthorizer()
	require.NoError(t, err)

	h := NewHandler(svc, store, hub)
	router := NewRouter(h, RouterOptions{Sessions: sessions, Authorizer: authz, Quiet: true})
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		dispatcher.Stop()
		store.Close()
	})

	env := &testEnv{srv: srv, svc: svc, store: store, sessions: sessions, hub: hub}
	env.admin = env.createUser(t, "Ada Admin", "ada@example.com", ledger.RoleAdmin)
	env.manager = env.createUser(t, "Max Manager", "max@example.com", ledger.RoleManager)
	env.employee = env.createUser(t, "Eve Employee", "eve@example.com", ledger.RoleEmployee)
	env.other = env.createUser(t, "Oscar Other", "oscar@example.com", ledger.RoleEmployee)
	return env
}

func (e *testEnv) createUser(t *testing.T, name, email string, role ledger.Role) ledger.Actor {
	t.Helper()
	u, err := e.svc.CreateUser(context.Background(), ledger.Actor{ID: "system", Role: ledger.RoleAdmin},
		ledger.CreateUserInput{Name: name, Email: email, Role: role})
	require.NoError(t, err)
	return ledger.Actor{ID: u.ID, Role: u.Role}
}

func (e *testEnv) token(t *testing.T, a ledger.Actor) string {
	t.Helper()
	tok, err := e.sessions.Issue(a.ID, a.Role)
	require.NoError(t, err)
	return tok
}

// call performs a request as actor (nil for anonymous) and decodes the JSON envelope.
func (e *testEnv) call(t *testing.T, actor *ledger.Actor, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, *actor))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func decDollars(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func obj(t *testing.T, m map[string]any, key string) map[string]any {
	t.Helper()
	v, ok := m[key].(map[string]any)
	require.True(t, ok, "missing object %q in %v", key, m)
	return v
}

// =============================================================================
// AUTH
// =============================================================================

func TestAuth_SessionRequired(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, nil, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = env.call(t, nil, "GET", "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	// Token signed with another secret
	forged, err := NewSessions("other-secret").Issue(env.manager.ID, env.manager.Role)
	require.NoError(t, err)
	req, _ := http.NewRequest("GET", env.srv.URL+"/api/projects", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: forged})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid cookie
	req, _ = http.NewRequest("GET", env.srv.URL+"/api/projects", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: env.token(t, env.manager)})
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessions_Expired(t *testing.T) {
	s := NewSessions("secret")
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return issued }
	tok, err := s.Issue("u-1", ledger.RoleEmployee)
	require.NoError(t, err)

	actor, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, ledger.Actor{ID: "u-1", Role: ledger.RoleEmployee}, actor)

	s.Now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = s.Parse(tok)
	assert.Error(t, err)
}

func TestAuthorizer_Routes(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	cases := []struct {
		role   ledger.Role
		path   string
		method string
		want   bool
	}{
		{ledger.RoleEmployee, "/api/projects", "GET", true},
		{ledger.RoleEmployee, "/api/projects", "POST", false},
		{ledger.RoleEmployee, "/api/assignments/a-1/accept", "POST", true},
		{ledger.RoleEmployee, "/api/assignments/a-1/verify", "POST", false},
		{ledger.RoleEmployee, "/api/payments/p-1/confirm", "POST", true},
		{ledger.RoleEmployee, "/api/finance/overview", "GET", false},
		{ledger.RoleEmployee, "/api/notifications/n-1", "DELETE", true},
		{ledger.RoleManager, "/api/projects/p-1/assignments", "POST", true},
		{ledger.RoleManager, "/api/finance/projects/p-1", "GET", true},
		{ledger.RoleManager, "/api/users", "POST", false},
		{ledger.RoleManager, "/api/scenarios/load", "POST", false},
		{ledger.RoleAdmin, "/api/users", "POST", true},
		{ledger.RoleAdmin, "/api/payments/p-1/approve", "POST", true},
		{ledger.RoleAdmin, "/api/scenarios/load", "POST", true},
	}
	for _, tc := range cases {
		got, err := a.Allowed(tc.role, tc.path, tc.method)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.method, tc.path)
	}
}

// =============================================================================
// WORKFLOW
// =============================================================================

func TestPaymentCycle_OverHTTP(t *testing.T) {
	env := newTestEnv(t)

	// GIVEN: a project with one assignment
	status, body := env.call(t, &env.manager, "POST", "/api/projects", map[string]any{
		"name": "Kitchen", "budget": 10000, "rate": 50, "estimatedHours": 100,
	})
	require.Equal(t, http.StatusCreated, status, body)
	project := obj(t, body, "project")
	projectID := project["id"].(string)
	assert.Equal(t, "USD", project["currency"])
	assert.Equal(t, 50.0, project["rate"])

	status, body = env.call(t, &env.manager, "POST", "/api/projects/"+projectID+"/assignments", map[string]any{
		"employeeId": env.employee.ID, "allocatedAmount": 4000, "role": "Carpenter",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assignmentID := obj(t, body, "assignment")["id"].(string)

	// WHEN: the employee accepts and requests payment, the manager pays
	status, body = env.call(t, &env.employee, "POST", "/api/assignments/"+assignmentID+"/accept", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "accepted", obj(t, body, "assignment")["assignmentStatus"])

	status, body = env.call(t, &env.employee, "POST", "/api/assignments/"+assignmentID+"/payment-request",
		map[string]any{"requestNotes": "Invoice 7"})
	require.Equal(t, http.StatusCreated, status, body)
	paymentID := obj(t, body, "payment")["id"].(string)

	status, body = env.call(t, &env.manager, "POST", "/api/payments/"+paymentID+"/approve", map[string]any{"approvalNotes": "ok"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "processing", obj(t, body, "payment")["status"])

	status, body = env.call(t, &env.manager, "POST", "/api/payments/"+paymentID+"/mark-paid", map[string]any{"transactionId": "TX-9"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "TX-9", obj(t, body, "payment")["transactionId"])

	status, body = env.call(t, &env.employee, "POST", "/api/payments/"+paymentID+"/confirm", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "confirmed", obj(t, body, "payment")["requestStatus"])

	// THEN: a second confirm is a 400 conflict and earnings moved to total
	status, body = env.call(t, &env.employee, "POST", "/api/payments/"+paymentID+"/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "payment already confirmed", body["message"])

	status, body = env.call(t, &env.employee, "GET", "/api/users/"+env.employee.ID+"/earnings", nil)
	require.Equal(t, http.StatusOK, status, body)
	user := obj(t, obj(t, body, "data"), "user")
	assert.Equal(t, 4000.0, user["totalEarnings"])
	assert.Equal(t, 0.0, user["pendingEarnings"])

	status, body = env.call(t, &env.manager, "GET", "/api/finance/projects/"+projectID, nil)
	require.Equal(t, http.StatusOK, status, body)
	summary := obj(t, body, "summary")
	assert.Equal(t, 4000.0, summary["totalPaid"])
	assert.Equal(t, 6000.0, summary["remainingBudget"])
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, &env.manager, "GET", "/api/projects/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])

	status, body = env.call(t, &env.manager, "POST", "/api/projects", map[string]any{"name": "Small", "budget": 1000})
	require.Equal(t, http.StatusCreated, status, body)
	projectID := obj(t, body, "project")["id"].(string)

	// Over the remaining budget
	status, body = env.call(t, &env.manager, "POST", "/api/projects/"+projectID+"/assignments", map[string]any{
		"employeeId": env.employee.ID, "allocatedAmount": 1500,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["message"])

	// Employee not on the project
	status, _ = env.call(t, &env.other, "GET", "/api/projects/"+projectID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Route blocked by role
	status, _ = env.call(t, &env.employee, "POST", "/api/projects", map[string]any{"name": "Nope", "budget": 1})
	assert.Equal(t, http.StatusForbidden, status)

	// Malformed body
	req, _ := http.NewRequest("POST", env.srv.URL+"/api/projects", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.manager))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotifications_OverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.svc.CreateProject(ctx, env.manager, ledger.CreateProjectInput{Name: "Deck", Budget: decDollars(500)})
	require.NoError(t, err)
	_, err = env.svc.CreateAssignment(ctx, env.manager, ledger.CreateAssignmentInput{
		ProjectID: p.ID, EmployeeID: env.employee.ID, AllocatedAmount: decDollars(200),
	})
	require.NoError(t, err)

	// Delivery is asynchronous
	require.Eventually(t, func() bool {
		n, err := env.store.CountUnread(ctx, env.employee.ID)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	status, body := env.call(t, &env.employee, "GET", "/api/notifications", nil)
	require.Equal(t, http.StatusOK, status)
	list := body["notifications"].([]any)
	require.Len(t, list, 1)
	id := list[0].(map[string]any)["id"].(string)

	status, _ = env.call(t, &env.other, "POST", "/api/notifications/"+id+"/read", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.call(t, &env.employee, "POST", "/api/notifications/"+id+"/read", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, obj(t, body, "notification")["isRead"])

	status, body = env.call(t, &env.employee, "GET", "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, obj(t, body, "data")["count"])

	status, _ = env.call(t, &env.employee, "DELETE", "/api/notifications/"+id, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestNotificationStream(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/notifications/stream?token=" + env.token(t, env.employee)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome notify.Message
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "welcome", welcome.Type)

	p, err := env.svc.CreateProject(ctx, env.manager, ledger.CreateProjectInput{Name: "Roof", Budget: decDollars(800)})
	require.NoError(t, err)
	_, err = env.svc.CreateAssignment(ctx, env.manager, ledger.CreateAssignmentInput{
		ProjectID: p.ID, EmployeeID: env.employee.ID, AllocatedAmount: decDollars(300),
	})
	require.NoError(t, err)

	var got struct {
		Type string         `json:"type"`
		Data notify.Payload `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notification", got.Type)
	assert.Equal(t, string(ledger.NotifyAssignmentCreated), got.Data.Type)
	assert.Equal(t, env.employee.ID, got.Data.UserID)
}

// =============================================================================
// FINANCE EXPORT & SCENARIOS
// =============================================================================

func TestExportFinance(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateProject(context.Background(), env.manager, ledger.CreateProjectInput{Name: "Barn", Budget: decDollars(900)})
	require.NoError(t, err)

	req, _ := http.NewRequest("GET", env.srv.URL+"/api/finance/export", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.manager))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, report.ContentType, resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip archive")
}

func TestLoadScenario(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.call(t, &env.manager, "POST", "/api/scenarios/load", map[string]any{"scenarioId": "payment-cycle"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.call(t, &env.admin, "POST", "/api/scenarios/load", map[string]any{"scenarioId": "nope"})
	assert.Equal(t, http.StatusBadRequest, status, body)

	for _, s := range scenarios {
		status, body = env.call(t, &env.admin, "POST", "/api/scenarios/load", map[string]any{"scenarioId": s.ID})
		require.Equal(t, http.StatusOK, status, "%s: %v", s.ID, body)
		users := obj(t, body, "data")["users"].([]any)
		assert.Len(t, users, 4, s.ID)
	}

	// The last load wins; data is visible to the seeded manager.
	status, body = env.call(t, &env.admin, "POST", "/api/scenarios/load", map[string]any{"scenarioId": "payment-cycle"})
	require.Equal(t, http.StatusOK, status)
	var manager ledger.Actor
	for _, u := range obj(t, body, "data")["users"].([]any) {
		m := u.(map[string]any)
		if m["role"] == "manager" {
			manager = ledger.Actor{ID: m["id"].(string), Role: ledger.RoleManager}
		}
	}
	require.NotEmpty(t, manager.ID)

	status, body = env.call(t, &manager, "GET", "/api/finance/overview", nil)
	require.Equal(t, http.StatusOK, status, body)
	overview := obj(t, body, "summary")
	assert.Equal(t, 1.0, overview["projectCount"])
	// 5000 confirmed + 500 bonus
	assert.Equal(t, 5500.0, overview["totalPaid"])

	status, body = env.call(t, &env.admin, "GET", "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "payment-cycle", body["current"])
}

func TestReminderScheduler_RunOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.svc.CreateProject(ctx, env.manager, ledger.CreateProjectInput{Name: "Shed", Budget: decDollars(1000)})
	require.NoError(t, err)
	_, err = env.svc.CreateAssignment(ctx, env.manager, ledger.CreateAssignmentInput{
		ProjectID: p.ID, EmployeeID: env.employee.ID, AllocatedAmount: decDollars(100),
	})
	require.NoError(t, err)

	rs := NewReminderScheduler(env.svc)

	// GIVEN: a 48h deadline and a 12h lead, nothing is due yet
	assert.Equal(t, 0, rs.RunOnce(ctx))

	// WHEN: the lead covers the deadline
	rs.Lead = 72 * time.Hour
	assert.Equal(t, 1, rs.RunOnce(ctx))

	// THEN: the reminder is not repeated
	assert.Equal(t, 0, rs.RunOnce(ctx))
}
