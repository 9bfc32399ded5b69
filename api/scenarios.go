/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Every scenario goes through ledger.Service, so the seeded
	rows obey the same invariants as API traffic.

AVAILABLE SCENARIOS:

	team-setup:     Manager, two employees, one unstaffed project
	active-project: Tracked project with accepted and pending assignments
	payment-cycle:  Full request/approve/pay/confirm cycle plus a rejected request
	over-budget:    Project whose actual cost exceeds its budget

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create users as the system admin
 3. Create projects as the manager
 4. Drive assignments and payments through their transitions

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "payment-cycle"}

	The response lists the seeded users so tokens can be minted for them.

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - cmd/token/main.go: Mint a session token for a seeded user
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/project-engine/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "team-setup",
		Name:        "Team Setup",
		Description: "A manager, two employees and an unstaffed project",
	},
	{
		ID:          "active-project",
		Name:        "Active Project",
		Description: "Tracked project with one accepted and one pending assignment",
	},
	{
		ID:          "payment-cycle",
		Name:        "Payment Cycle",
		Description: "Verified work paid and confirmed, a direct bonus, and a rejected request",
	},
	{
		ID:          "over-budget",
		Name:        "Over Budget",
		Description: "Actual hours and materials push the project past its budget",
	},
}

// systemActor seeds data. It is not a stored user.
var systemActor = ledger.Actor{ID: "system", Role: ledger.RoleAdmin}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Scenarios retrieved",
		"data":    scenarios,
		"current": current,
	})
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}

	loader, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeFailure(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.ScenarioID), nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	s := &seed{svc: h.Service, users: make(map[string]*ledger.User)}
	if err := loader(ctx, s); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	users := make([]UserDTO, 0, len(s.order))
	for _, key := range s.order {
		users = append(users, toUserDTO(*s.users[key]))
	}
	writeSuccess(w, http.StatusOK, "Scenario loaded", "data", map[string]any{
		"scenarioId": req.ScenarioID,
		"users":      users,
	})
}

var scenarioLoaders = map[string]func(context.Context, *seed) error{
	"team-setup":     loadTeamSetup,
	"active-project": loadActiveProject,
	"payment-cycle":  loadPaymentCycle,
	"over-budget":    loadOverBudget,
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadTeamSetup(ctx context.Context, s *seed) error {
	if err := s.team(ctx); err != nil {
		return err
	}
	_, err := s.project(ctx, "Website Redesign", 12000, nil)
	return err
}

func loadActiveProject(ctx context.Context, s *seed) error {
	if err := s.team(ctx); err != nil {
		return err
	}
	p, err := s.project(ctx, "Office Renovation", 20000, &trackingSeed{
		rate: 45, estimatedHours: 200, actualHours: 80,
		estimatedConsumables: 1500, actualConsumables: 600,
		estimatedMaterials: 6000, actualMaterials: 2500,
	})
	if err != nil {
		return err
	}

	a, err := s.assign(ctx, p, "alice", 6000, "Lead carpenter")
	if err != nil {
		return err
	}
	if _, err := s.svc.AcceptAssignment(ctx, s.actor("alice"), a.ID); err != nil {
		return err
	}
	_, err = s.assign(ctx, p, "bob", 3500, "Electrician")
	return err
}

func loadPaymentCycle(ctx context.Context, s *seed) error {
	if err := s.team(ctx); err != nil {
		return err
	}
	p, err := s.project(ctx, "Mobile App MVP", 15000, &trackingSeed{
		rate: 60, estimatedHours: 150, actualHours: 140,
		estimatedConsumables: 300, actualConsumables: 250,
	})
	if err != nil {
		return err
	}
	manager := s.actor("manager")

	// Alice: full cycle to confirmed.
	alice := s.actor("alice")
	a, err := s.assign(ctx, p, "alice", 5000, "Backend developer")
	if err != nil {
		return err
	}
	if _, err := s.svc.AcceptAssignment(ctx, alice, a.ID); err != nil {
		return err
	}
	if _, err := s.svc.SubmitWork(ctx, alice, a.ID, "API and admin panel complete", []string{"https://git.example.com/mvp/pull/42"}); err != nil {
		return err
	}
	if _, err := s.svc.VerifyWork(ctx, manager, a.ID, "Reviewed and deployed", "Great work"); err != nil {
		return err
	}
	pay, err := s.svc.RequestPayment(ctx, alice, a.ID, "Invoice #1001")
	if err != nil {
		return err
	}
	if _, err := s.svc.ApprovePayment(ctx, manager, pay.ID, "Approved for this cycle", nil); err != nil {
		return err
	}
	if _, err := s.svc.MarkPaymentPaid(ctx, manager, pay.ID, ledger.Proof{TransactionID: "TX-1001"}); err != nil {
		return err
	}
	if _, err := s.svc.ConfirmPayment(ctx, alice, pay.ID, "Received, thanks"); err != nil {
		return err
	}
	if _, err := s.svc.CreateDirectPayment(ctx, manager, ledger.DirectPaymentInput{
		EmployeeID: s.users["alice"].ID,
		ProjectID:  p.ID,
		Amount:     decimal.NewFromInt(500),
		Type:       ledger.PaymentBonus,
		Notes:      "Launch bonus",
		Proof:      ledger.Proof{TransactionProofLink: "https://bank.example.com/tx/BONUS-7"},
	}); err != nil {
		return err
	}

	// Bob: request rejected.
	bob := s.actor("bob")
	b, err := s.assign(ctx, p, "bob", 2500, "QA")
	if err != nil {
		return err
	}
	if _, err := s.svc.AcceptAssignment(ctx, bob, b.ID); err != nil {
		return err
	}
	rejected, err := s.svc.RequestPayment(ctx, bob, b.ID, "Invoice #2001")
	if err != nil {
		return err
	}
	_, err = s.svc.RejectPayment(ctx, manager, rejected.ID, "Work has not been submitted yet")
	return err
}

func loadOverBudget(ctx context.Context, s *seed) error {
	if err := s.team(ctx); err != nil {
		return err
	}
	p, err := s.project(ctx, "Warehouse Fit-out", 10000, &trackingSeed{
		rate: 50, estimatedHours: 120, actualHours: 190,
		estimatedConsumables: 800, actualConsumables: 1100,
		estimatedMaterials: 2500, actualMaterials: 3200,
	})
	if err != nil {
		return err
	}
	inProgress := ledger.ProjectInProgress
	if _, err := s.svc.UpdateProject(ctx, s.actor("manager"), p.ID, ledger.ProjectUpdate{Status: &inProgress}); err != nil {
		return err
	}
	a, err := s.assign(ctx, p, "alice", 7000, "Site lead")
	if err != nil {
		return err
	}
	_, err = s.svc.AcceptAssignment(ctx, s.actor("alice"), a.ID)
	return err
}

// =============================================================================
// SEED HELPERS
// =============================================================================

type seed struct {
	svc   *ledger.Service
	users map[string]*ledger.User
	order []string
}

type trackingSeed struct {
	rate                 int64
	estimatedHours       int64
	actualHours          int64
	estimatedConsumables int64
	actualConsumables    int64
	estimatedMaterials   int64
	actualMaterials      int64
}

func (t *trackingSeed) update() ledger.TrackingUpdate {
	if t == nil {
		return ledger.TrackingUpdate{}
	}
	d := func(v int64) *decimal.Decimal {
		x := decimal.NewFromInt(v)
		return &x
	}
	return ledger.TrackingUpdate{
		Rate:                 d(t.rate),
		EstimatedHours:       d(t.estimatedHours),
		ActualHours:          d(t.actualHours),
		EstimatedConsumables: d(t.estimatedConsumables),
		ActualConsumables:    d(t.actualConsumables),
		EstimatedMaterials:   d(t.estimatedMaterials),
		ActualMaterials:      d(t.actualMaterials),
	}
}

// team creates the admin, a manager and two employees.
func (s *seed) team(ctx context.Context) error {
	members := []struct {
		key, name, email string
		role             ledger.Role
	}{
		{"admin", "Dana Admin", "admin@example.com", ledger.RoleAdmin},
		{"manager", "Morgan Manager", "manager@example.com", ledger.RoleManager},
		{"alice", "Alice Builder", "alice@example.com", ledger.RoleEmployee},
		{"bob", "Bob Fixer", "bob@example.com", ledger.RoleEmployee},
	}
	for _, m := range members {
		u, err := s.svc.CreateUser(ctx, systemActor, ledger.CreateUserInput{Name: m.name, Email: m.email, Role: m.role})
		if err != nil {
			return fmt.Errorf("create %s: %w", m.key, err)
		}
		s.users[m.key] = u
		s.order = append(s.order, m.key)
	}
	return nil
}

func (s *seed) actor(key string) ledger.Actor {
	u := s.users[key]
	return ledger.Actor{ID: u.ID, Role: u.Role}
}

func (s *seed) project(ctx context.Context, name string, budget int64, tracking *trackingSeed) (*ledger.Project, error) {
	return s.svc.CreateProject(ctx, s.actor("manager"), ledger.CreateProjectInput{
		Name:     name,
		Budget:   decimal.NewFromInt(budget),
		Tracking: tracking.update(),
	})
}

func (s *seed) assign(ctx context.Context, p *ledger.Project, employee string, amount int64, role string) (*ledger.Assignment, error) {
	return s.svc.CreateAssignment(ctx, s.actor("manager"), ledger.CreateAssignmentInput{
		ProjectID:       p.ID,
		EmployeeID:      s.users[employee].ID,
		AllocatedAmount: decimal.NewFromInt(amount),
		Role:            role,
	})
}
