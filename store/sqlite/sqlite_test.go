package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/project-engine/ledger"
	"github.com/warp/project-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var t0 = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, store *sqlite.Store) (ledger.User, ledger.User, ledger.Project) {
	ctx := context.Background()
	manager := ledger.User{ID: "mgr-1", Name: "Mia Manager", Email: "mia@example.com", Role: ledger.RoleManager, CreatedAt: t0}
	employee := ledger.User{ID: "emp-1", Name: "Eli Employee", Email: "eli@example.com", Role: ledger.RoleEmployee, CreatedAt: t0}
	require.NoError(t, store.CreateUser(ctx, manager))
	require.NoError(t, store.CreateUser(ctx, employee))

	project := ledger.Project{
		ID:        "proj-1",
		Name:      "Warehouse refit",
		Currency:  "USD",
		Budget:    decimal.NewFromInt(10000),
		Status:    ledger.ProjectInProgress,
		CreatedBy: manager.ID,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	project.Rate = decimal.RequireFromString("42.50")
	require.NoError(t, store.CreateProject(ctx, project))
	return manager, employee, project
}

func assignment(id string, p ledger.Project, employeeID string, amount int64) ledger.Assignment {
	return ledger.Assignment{
		ID:               id,
		ProjectID:        p.ID,
		EmployeeID:       employeeID,
		AssignedBy:       p.CreatedBy,
		AllocatedAmount:  decimal.NewFromInt(amount),
		Currency:         "USD",
		Status:           ledger.AssignmentPending,
		WorkStatus:       ledger.WorkNotStarted,
		IsActive:         true,
		ResponseDeadline: t0.Add(48 * time.Hour),
		CreatedAt:        t0,
		UpdatedAt:        t0,
	}
}

// =============================================================================
// ROUND TRIP TESTS
// =============================================================================

func TestStore_Project_DecimalsSurviveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	_, _, project := seed(t, store)

	got, err := store.GetProject(context.Background(), project.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.Budget.Equal(decimal.NewFromInt(10000)))
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("42.5")))
	assert.Equal(t, ledger.ProjectInProgress, got.Status)
	assert.True(t, got.CreatedAt.Equal(t0))
}

func TestStore_GetMissing_ReturnsNilNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.GetUser(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, u)

	p, err := store.GetPayment(ctx, "nothing")
	assert.NoError(t, err)
	assert.Nil(t, p)

	n, err := store.GetNotification(ctx, "nothing")
	assert.NoError(t, err)
	assert.Nil(t, n)
}

func TestStore_Assignment_TimestampsAndDeliverables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, employee, project := seed(t, store)

	a := assignment("asg-1", project, employee.ID, 3000)
	require.NoError(t, store.CreateAssignment(ctx, a))

	accepted := t0.Add(time.Hour)
	a.Status = ledger.AssignmentAccepted
	a.WorkStatus = ledger.WorkSubmitted
	a.AcceptedAt = &accepted
	a.Deliverables = []string{"https://files.example.com/report.pdf", "photos.zip"}
	a.ActualHours = decimal.RequireFromString("12.25")
	require.NoError(t, store.UpdateAssignment(ctx, a))

	got, err := store.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ledger.AssignmentAccepted, got.Status)
	assert.Equal(t, ledger.WorkSubmitted, got.WorkStatus)
	require.NotNil(t, got.AcceptedAt)
	assert.True(t, got.AcceptedAt.Equal(accepted))
	assert.Nil(t, got.RejectedAt)
	assert.Equal(t, a.Deliverables, got.Deliverables)
	assert.True(t, got.ActualHours.Equal(decimal.RequireFromString("12.25")))
	assert.True(t, got.ResponseDeadline.Equal(t0.Add(48*time.Hour)))
}

// =============================================================================
// CONSTRAINT TESTS
// =============================================================================

func TestStore_ActivePairIsUnique(t *testing.T) {
	// GIVEN: An active assignment for (proj-1, emp-1)
	// WHEN: Inserting a second active one for the same pair
	// THEN: ErrConflict. After deactivating the first, a new one is accepted.

	store := newTestStore(t)
	ctx := context.Background()
	_, employee, project := seed(t, store)

	first := assignment("asg-1", project, employee.ID, 1000)
	require.NoError(t, store.CreateAssignment(ctx, first))

	err := store.CreateAssignment(ctx, assignment("asg-2", project, employee.ID, 500))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrConflict))

	first.IsActive = false
	require.NoError(t, store.UpdateAssignment(ctx, first))
	require.NoError(t, store.CreateAssignment(ctx, assignment("asg-3", project, employee.ID, 500)))

	active, err := store.FindActiveAssignment(ctx, project.ID, employee.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "asg-3", active.ID)

	all, err := store.ListAssignments(ctx, ledger.AssignmentFilter{ProjectID: project.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_OnePaymentPerAssignment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, employee, project := seed(t, store)
	require.NoError(t, store.CreateAssignment(ctx, assignment("asg-1", project, employee.ID, 1000)))

	pay := ledger.Payment{
		ID:            "pay-1",
		EmployeeID:    employee.ID,
		ProjectID:     project.ID,
		AssignmentID:  "asg-1",
		Amount:        decimal.NewFromInt(1000),
		Currency:      "USD",
		Type:          ledger.PaymentAssignment,
		RequestStatus: ledger.RequestRequested,
		Status:        ledger.PaymentPending,
		CreatedBy:     employee.ID,
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
	require.NoError(t, store.CreatePayment(ctx, pay))

	pay.ID = "pay-2"
	err := store.CreatePayment(ctx, pay)
	assert.True(t, errors.Is(err, ledger.ErrConflict))

	// Direct payments have no assignment and are not constrained.
	for _, id := range []string{"pay-3", "pay-4"} {
		direct := pay
		direct.ID = id
		direct.AssignmentID = ""
		direct.Type = ledger.PaymentDirect
		require.NoError(t, store.CreatePayment(ctx, direct))
	}

	got, err := store.GetPaymentByAssignment(ctx, "asg-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pay-1", got.ID)
}

func TestStore_DuplicateEmail_Conflict(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	err := store.CreateUser(context.Background(), ledger.User{
		ID: "emp-2", Name: "Copy", Email: "eli@example.com", Role: ledger.RoleEmployee, CreatedAt: t0,
	})
	assert.True(t, errors.Is(err, ledger.ErrConflict))
}

// =============================================================================
// FILTER TESTS
// =============================================================================

func TestStore_ListPayments_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	manager, employee, project := seed(t, store)

	other := project
	other.ID = "proj-2"
	other.Name = "Other"
	require.NoError(t, store.CreateProject(ctx, other))

	statuses := []ledger.RequestStatus{ledger.RequestRequested, ledger.RequestPaid, ledger.RequestConfirmed}
	for i, s := range statuses {
		projectID := project.ID
		if i == 2 {
			projectID = other.ID
		}
		require.NoError(t, store.CreatePayment(ctx, ledger.Payment{
			ID:            "pay-" + string(s),
			EmployeeID:    employee.ID,
			ProjectID:     projectID,
			Amount:        decimal.NewFromInt(100),
			Currency:      "USD",
			Type:          ledger.PaymentDirect,
			RequestStatus: s,
			Status:        ledger.PaymentCompleted,
			CreatedBy:     manager.ID,
			CreatedAt:     t0.Add(time.Duration(i) * time.Minute),
			UpdatedAt:     t0,
		}))
	}

	byProject, err := store.ListPayments(ctx, ledger.PaymentFilter{ProjectID: project.ID})
	require.NoError(t, err)
	assert.Len(t, byProject, 2)

	byStatus, err := store.ListPayments(ctx, ledger.PaymentFilter{
		ProjectIDs: []string{project.ID, other.ID},
		Statuses:   []ledger.RequestStatus{ledger.RequestPaid, ledger.RequestConfirmed},
	})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	none, err := store.ListPayments(ctx, ledger.PaymentFilter{ProjectIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ListUsers_ByRole(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	employees, err := store.ListUsers(context.Background(), ledger.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "emp-1", employees[0].ID)

	all, err := store.ListUsers(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// NOTIFICATION TESTS
// =============================================================================

func TestStore_Notifications_ReadAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"n-1", "n-2", "n-3"} {
		require.NoError(t, store.CreateNotification(ctx, ledger.Notification{
			ID:        id,
			UserID:    "emp-1",
			Title:     "Hello",
			Message:   "World",
			Type:      ledger.NotifyAssignmentCreated,
			Priority:  ledger.PriorityMedium,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	count, err := store.CountUnread(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.MarkNotificationRead(ctx, "n-1", t0))
	count, err = store.CountUnread(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	list, err := store.ListNotifications(ctx, "emp-1", false, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n-3", list[0].ID, "newest first")

	changed, err := store.MarkAllNotificationsRead(ctx, "emp-1", t0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	unread, err := store.ListNotifications(ctx, "emp-1", true, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	require.NoError(t, store.DeleteNotification(ctx, "n-2"))
	gone, err := store.GetNotification(ctx, "n-2")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestStore_WithTx_RollbackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, project := seed(t, store)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(st ledger.Store) error {
		p, err := st.GetProject(ctx, project.ID)
		require.NoError(t, err)
		p.AllocatedAmount = decimal.NewFromInt(999)
		require.NoError(t, st.UpdateProject(ctx, *p))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, got.AllocatedAmount.IsZero(), "update must be rolled back")
}

func TestStore_WithTx_Commit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, project := seed(t, store)

	err := store.WithTx(ctx, func(st ledger.Store) error {
		p, err := st.GetProject(ctx, project.ID)
		if err != nil {
			return err
		}
		p.SpentAmount = decimal.NewFromInt(250)
		return st.UpdateProject(ctx, *p)
	})
	require.NoError(t, err)

	got, err := store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, got.SpentAmount.Equal(decimal.NewFromInt(250)))
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seed(t, store)

	require.NoError(t, store.Reset(ctx))

	users, err := store.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, users)
	projects, err := store.ListProjects(ctx, ledger.ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, projects)
}
