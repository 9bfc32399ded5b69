/*
handlers.go - HTTP API handlers for the project ledger

PURPOSE:
  Exposes the ledger service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to ledger.Service.

ENDPOINTS:
  Users:
    POST   /api/users                          Create user (admin)
    GET    /api/users?role=                    List users
    GET    /api/users/{id}                     Get user
    GET    /api/users/{id}/earnings            Earnings with confirmed log

  Projects:
    POST   /api/projects                       Create project
    GET    /api/projects                       List visible projects
    GET    /api/projects/{id}                  Get project
    PUT    /api/projects/{id}/tracking         Partial project update
    GET    /api/projects/{id}/assignments      Project assignments
    POST   /api/projects/{id}/assignments      Assign employee
    GET    /api/projects/{id}/payments         Project payments

  Assignments:
    GET    /api/assignments/mine?active=       Caller's assignments
    GET    /api/assignments/{id}               Get assignment
    POST   /api/assignments/{id}/accept|reject|submit|verify|reject-work|revision
    PUT    /api/assignments/{id}/tracking      Partial tracking update
    DELETE /api/assignments/{id}               Remove employee
    POST   /api/assignments/{id}/payment-request

  Payments:
    GET    /api/payments?status=               Visible payments
    POST   /api/payments                       Direct payment
    GET    /api/payments/{id}                  Get payment
    POST   /api/payments/{id}/approve|reject|mark-paid|confirm

  Finance:
    GET    /api/finance/projects/{id}          Project summary
    GET    /api/finance/overview               Portfolio overview
    GET    /api/finance/export                 Overview as xlsx

  Notifications:
    GET    /api/notifications?unread=&limit=
    GET    /api/notifications/unread-count
    POST   /api/notifications/{id}/read
    POST   /api/notifications/read-all
    DELETE /api/notifications/{id}
    GET    /api/notifications/stream           Websocket push

ERROR HANDLING:
  - 400: Validation and conflict errors, invalid input
  - 401: Missing or invalid session (auth.go)
  - 403: Wrong role or not the owner
  - 404: Resource not found
  - 500: Internal errors (error text echoed)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/project-engine/ledger"
	"github.com/warp/project-engine/notify"
	"github.com/warp/project-engine/report"
	"github.com/warp/project-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *ledger.Service
	Store   *sqlite.Store
	Hub     *notify.Hub

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. hub may be nil, which disables the stream route.
func NewHandler(svc *ledger.Service, store *sqlite.Store, hub *notify.Hub) *Handler {
	return &Handler{Service: svc, Store: store, Hub: hub}
}

// Health reports liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeFailure(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok"})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// CreateUser registers an account.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.Service.CreateUser(r.Context(), actorOf(r), ledger.CreateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  ledger.Role(req.Role),
	})
	if err != nil {
		writeError(w, err, "Failed to create user")
		return
	}
	writeSuccess(w, http.StatusCreated, "User created", "data", toUserDTO(*u))
}

// ListUsers returns users, optionally filtered by ?role=.
// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context(), actorOf(r), ledger.Role(r.URL.Query().Get("role")))
	if err != nil {
		writeError(w, err, "Failed to list users")
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeSuccess(w, http.StatusOK, "Users retrieved", "data", dtos)
}

// GetUser returns one user.
// GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetUser(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get user")
		return
	}
	writeSuccess(w, http.StatusOK, "User retrieved", "data", toUserDTO(*u))
}

// GetEarnings returns a user's earnings summary.
// GET /api/users/{id}/earnings
func (h *Handler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.GetEarnings(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get earnings")
		return
	}
	writeSuccess(w, http.StatusOK, "Earnings retrieved", "data", toEarningsDTO(*e))
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// CreateProject creates a project owned by the caller.
// POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.CreateProject(r.Context(), actorOf(r), ledger.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		Budget:      fromFloat(req.Budget),
		Status:      ledger.ProjectStatus(req.Status),
		Tracking:    req.TrackingRequest.toUpdate(),
	})
	if err != nil {
		writeError(w, err, "Failed to create project")
		return
	}
	writeSuccess(w, http.StatusCreated, "Project created", "project", toProjectDTO(*p))
}

// ListProjects returns the projects visible to the caller.
// GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListProjects(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, err, "Failed to list projects")
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeSuccess(w, http.StatusOK, "Projects retrieved", "data", dtos)
}

// GetProject returns one project.
// GET /api/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProject(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get project")
		return
	}
	writeSuccess(w, http.StatusOK, "Project retrieved", "project", toProjectDTO(*p))
}

// UpdateProject applies a partial update. Only fields present in the body change.
// PUT /api/projects/{id}/tracking
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.UpdateProject(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		writeError(w, err, "Failed to update project")
		return
	}
	writeSuccess(w, http.StatusOK, "Project updated", "project", toProjectDTO(*p))
}

// ListProjectAssignments returns every assignment of a project.
// GET /api/projects/{id}/assignments
func (h *Handler) ListProjectAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListProjectAssignments(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to list assignments")
		return
	}
	writeSuccess(w, http.StatusOK, "Assignments retrieved", "data", toAssignmentDTOs(list))
}

// CreateAssignment assigns an employee to the project.
// POST /api/projects/{id}/assignments
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.Service.CreateAssignment(r.Context(), actorOf(r), ledger.CreateAssignmentInput{
		ProjectID:       chi.URLParam(r, "id"),
		EmployeeID:      req.EmployeeID,
		AllocatedAmount: fromFloat(req.AllocatedAmount),
		Currency:        req.Currency,
		Role:            req.Role,
		Terms:           req.Terms,
	})
	if err != nil {
		writeError(w, err, "Failed to assign employee")
		return
	}
	writeSuccess(w, http.StatusCreated, "Employee assigned", "assignment", toAssignmentDTO(*a))
}

// ListProjectPayments returns every payment of a project.
// GET /api/projects/{id}/payments
func (h *Handler) ListProjectPayments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListProjectPayments(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to list payments")
		return
	}
	writeSuccess(w, http.StatusOK, "Payments retrieved", "data", toPaymentDTOs(list))
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// ListMyAssignments returns the caller's assignments. ?active=true hides removed ones.
// GET /api/assignments/mine
func (h *Handler) ListMyAssignments(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	list, err := h.Service.ListMyAssignments(r.Context(), actorOf(r), activeOnly)
	if err != nil {
		writeError(w, err, "Failed to list assignments")
		return
	}
	writeSuccess(w, http.StatusOK, "Assignments retrieved", "data", toAssignmentDTOs(list))
}

// GET /api/assignments/{id}
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.GetAssignment(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get assignment")
		return
	}
	writeSuccess(w, http.StatusOK, "Assignment retrieved", "assignment", toAssignmentDTO(*a))
}

// POST /api/assignments/{id}/accept
func (h *Handler) AcceptAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.AcceptAssignment(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	h.assignmentResult(w, a, err, "Assignment accepted")
}

// POST /api/assignments/{id}/reject
func (h *Handler) RejectAssignment(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.Service.RejectAssignment(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.Reason)
	h.assignmentResult(w, a, err, "Assignment rejected")
}

// SubmitWork submits or resubmits work.
// POST /api/assignments/{id}/submit
func (h *Handler) SubmitWork(w http.ResponseWriter, r *http.Request) {
	var req SubmitWorkRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.Service.SubmitWork(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.SubmissionNotes, req.Deliverables)
	h.assignmentResult(w, a, err, "Work submitted")
}

// POST /api/assignments/{id}/verify
func (h *Handler) VerifyWork(w http.ResponseWriter, r *http.Request) {
	var req VerifyWorkRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.Service.VerifyWork(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.VerificationNotes, req.Feedback)
	h.assignmentResult(w, a, err, "Work verified")
}

// POST /api/assignments/{id}/reject-work
func (h *Handler) RejectWork(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.Service.RejectWork(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.Reason)
	h.assignmentResult(w, a, err, "Work rejected")
}

// POST /api/assignments/{id}/revision
func (h *Handler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	var req RevisionRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.Service.RequestRevision(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.RevisionNotes, req.RevisionDeadline)
	h.assignmentResult(w, a, err, "Revision requested")
}

// PUT /api/assignments/{id}/tracking
func (h *Handler) UpdateAssignmentTracking(w http.ResponseWriter, r *http.Request) {
	var req TrackingRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.Service.UpdateAssignmentTracking(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.toUpdate())
	h.assignmentResult(w, a, err, "Assignment tracking updated")
}

// RemoveAssignment soft-deletes the assignment.
// DELETE /api/assignments/{id}
func (h *Handler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.RemoveAssignment(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	h.assignmentResult(w, a, err, "Employee removed from project")
}

// RequestPayment opens the payment for an accepted assignment.
// POST /api/assignments/{id}/payment-request
func (h *Handler) RequestPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequestRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.RequestPayment(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.RequestNotes)
	if err != nil {
		writeError(w, err, "Failed to request payment")
		return
	}
	writeSuccess(w, http.StatusCreated, "Payment requested", "payment", toPaymentDTO(*p))
}

func (h *Handler) assignmentResult(w http.ResponseWriter, a *ledger.Assignment, err error, message string) {
	if err != nil {
		writeError(w, err, "Failed to update assignment")
		return
	}
	writeSuccess(w, http.StatusOK, message, "assignment", toAssignmentDTO(*a))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns visible payments. ?status=requested,approved filters.
// GET /api/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	var statuses []ledger.RequestStatus
	for _, s := range strings.Split(r.URL.Query().Get("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, ledger.RequestStatus(s))
		}
	}
	list, err := h.Service.ListPayments(r.Context(), actorOf(r), statuses)
	if err != nil {
		writeError(w, err, "Failed to list payments")
		return
	}
	writeSuccess(w, http.StatusOK, "Payments retrieved", "data", toPaymentDTOs(list))
}

// CreateDirectPayment records a payment that was already sent.
// POST /api/payments
func (h *Handler) CreateDirectPayment(w http.ResponseWriter, r *http.Request) {
	var req DirectPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.CreateDirectPayment(r.Context(), actorOf(r), ledger.DirectPaymentInput{
		EmployeeID: req.EmployeeID,
		ProjectID:  req.ProjectID,
		Amount:     fromFloat(req.Amount),
		Currency:   req.Currency,
		Type:       ledger.PaymentType(req.PaymentType),
		Notes:      req.Notes,
		Proof:      req.ProofRequest.toProof(),
	})
	if err != nil {
		writeError(w, err, "Failed to create payment")
		return
	}
	writeSuccess(w, http.StatusCreated, "Payment created", "payment", toPaymentDTO(*p))
}

// GET /api/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetPayment(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get payment")
		return
	}
	writeSuccess(w, http.StatusOK, "Payment retrieved", "payment", toPaymentDTO(*p))
}

// POST /api/payments/{id}/approve
func (h *Handler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	var req ApprovePaymentRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.ApprovePayment(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.ApprovalNotes, req.ScheduledDate)
	h.paymentResult(w, p, err, "Payment approved")
}

// POST /api/payments/{id}/reject
func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.RejectPayment(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.Reason)
	h.paymentResult(w, p, err, "Payment rejected")
}

// POST /api/payments/{id}/mark-paid
func (h *Handler) MarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	var req ProofRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.MarkPaymentPaid(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.toProof())
	h.paymentResult(w, p, err, "Payment marked as paid")
}

// POST /api/payments/{id}/confirm
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req ConfirmPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.ConfirmPayment(r.Context(), actorOf(r), chi.URLParam(r, "id"), req.ConfirmationNotes)
	h.paymentResult(w, p, err, "Payment confirmed")
}

func (h *Handler) paymentResult(w http.ResponseWriter, p *ledger.Payment, err error, message string) {
	if err != nil {
		writeError(w, err, "Failed to update payment")
		return
	}
	writeSuccess(w, http.StatusOK, message, "payment", toPaymentDTO(*p))
}

// =============================================================================
// FINANCE HANDLERS
// =============================================================================

// GET /api/finance/projects/{id}
func (h *Handler) ProjectFinance(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.ProjectFinance(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to compute project finance")
		return
	}
	writeSuccess(w, http.StatusOK, "Financial summary retrieved", "summary", toProjectFinanceDTO(*f))
}

// GET /api/finance/overview
func (h *Handler) FinanceOverview(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.FinanceOverview(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, err, "Failed to compute overview")
		return
	}
	writeSuccess(w, http.StatusOK, "Financial overview retrieved", "summary", toOverviewDTO(*o))
}

// ExportFinance streams the overview as an xlsx workbook.
// GET /api/finance/export
func (h *Handler) ExportFinance(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.FinanceOverview(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, err, "Failed to compute overview")
		return
	}
	now := time.Now().UTC()
	var buf bytes.Buffer
	if err := report.WriteFinance(&buf, *o, now); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="finance-`+now.Format("2006-01-02")+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// NOTIFICATION HANDLERS
// =============================================================================

// ListNotifications returns the caller's notifications, newest first.
// GET /api/notifications?unread=true&limit=20
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	unreadOnly, _ := strconv.ParseBool(q.Get("unread"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	list, err := h.Service.ListNotifications(r.Context(), actorOf(r), unreadOnly, limit)
	if err != nil {
		writeError(w, err, "Failed to list notifications")
		return
	}
	writeSuccess(w, http.StatusOK, "Notifications retrieved", "notifications", toNotificationDTOs(list))
}

// GET /api/notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.UnreadCount(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, err, "Failed to count notifications")
		return
	}
	writeSuccess(w, http.StatusOK, "Unread count retrieved", "data", map[string]int{"count": n})
}

// POST /api/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.MarkNotificationRead(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to mark notification")
		return
	}
	writeSuccess(w, http.StatusOK, "Notification marked as read", "notification", notify.NewPayload(*n))
}

// POST /api/notifications/read-all
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.MarkAllNotificationsRead(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, err, "Failed to mark notifications")
		return
	}
	writeSuccess(w, http.StatusOK, "All notifications marked as read", "data", map[string]int64{"updated": n})
}

// DELETE /api/notifications/{id}
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteNotification(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "Failed to delete notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Notification deleted"})
}

// StreamNotifications upgrades to a websocket and pushes new notifications.
// GET /api/notifications/stream
func (h *Handler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		writeFailure(w, http.StatusNotFound, "Live notifications are disabled", nil)
		return
	}
	h.Hub.Serve(w, r, actorOf(r).ID)
}

// =============================================================================
// HELPERS
// =============================================================================

// actorOf returns the authenticated actor. Routes behind Authenticate always have one.
func actorOf(r *http.Request) ledger.Actor {
	actor, _ := ActorFrom(r.Context())
	return actor
}

// decode reads a JSON body into dst. An empty body leaves dst zeroed.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeFailure(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func toAssignmentDTOs(list []ledger.Assignment) []AssignmentDTO {
	dtos := make([]AssignmentDTO, len(list))
	for i, a := range list {
		dtos[i] = toAssignmentDTO(a)
	}
	return dtos
}

func toPaymentDTOs(list []ledger.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(list))
	for i, p := range list {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, status int, message, key string, value any) {
	writeJSON(w, status, map[string]any{
		"success": true,
		"message": message,
		key:       value,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string, err error) {
	resp := map[string]any{"success": false, "message": message}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeError maps ledger errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrConflict):
		writeFailure(w, http.StatusBadRequest, ledger.Message(err, fallback), nil)
	case errors.Is(err, ledger.ErrForbidden):
		writeFailure(w, http.StatusForbidden, ledger.Message(err, fallback), nil)
	case errors.Is(err, ledger.ErrNotFound):
		writeFailure(w, http.StatusNotFound, ledger.Message(err, fallback), nil)
	default:
		log.Printf("[API] %s: %v", fallback, err)
		writeFailure(w, http.StatusInternalServerError, fallback, err)
	}
}
