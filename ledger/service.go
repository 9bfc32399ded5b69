/*
service.go - Orchestration shared by the assignment and payment state machines

REQUEST FLOW:
  1. Load the entities inside Store.WithTx
  2. Check actor and state preconditions
  3. Mutate fields and write every touched row
  4. Commit
  5. Emit the collected notifications (best-effort, after commit)

  A failed commit emits nothing. A failed notification never changes the
  outcome of the transition.

SEE ALSO:
  - assignment.go, payment.go: The transitions
  - notify.go: Notifier interface and outbox
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultResponseWindow is how long an employee has to answer an assignment.
const DefaultResponseWindow = 48 * time.Hour

// Service exposes every ledger operation.
type Service struct {
	Store    TxStore
	Notifier Notifier

	// ResponseWindow overrides DefaultResponseWindow when positive.
	ResponseWindow time.Duration

	// Now is the clock. Tests pin it.
	Now func() time.Time

	// NewID generates entity IDs.
	NewID func() string
}

// NewService creates a service with the default clock and UUID identifiers.
func NewService(store TxStore, notifier Notifier) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		Store:          store,
		Notifier:       notifier,
		ResponseWindow: DefaultResponseWindow,
		Now:            func() time.Time { return time.Now().UTC() },
		NewID:          uuid.NewString,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

func (s *Service) responseWindow() time.Duration {
	if s.ResponseWindow > 0 {
		return s.ResponseWindow
	}
	return DefaultResponseWindow
}

// transact runs fn atomically and emits its notifications after commit.
func (s *Service) transact(ctx context.Context, fn func(st Store, out *outbox) error) error {
	out := &outbox{}
	if err := s.Store.WithTx(ctx, func(st Store) error {
		return fn(st, out)
	}); err != nil {
		return err
	}
	s.emit(out.items)
	return nil
}

func (s *Service) emit(items []Notification) {
	if s.Notifier == nil {
		return
	}
	for _, n := range items {
		if n.UserID == "" {
			continue
		}
		if n.Priority == "" {
			n.Priority = PriorityMedium
		}
		s.Notifier.Emit(n)
	}
}

// =============================================================================
// LOADERS - Turn (nil, nil) into ErrNotFound
// =============================================================================

func loadUser(ctx context.Context, st Store, id string) (*User, error) {
	u, err := st.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFoundf("user not found")
	}
	return u, nil
}

func loadProject(ctx context.Context, st Store, id string) (*Project, error) {
	p, err := st.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFoundf("project not found")
	}
	return p, nil
}

func loadAssignment(ctx context.Context, st Store, id string) (*Assignment, error) {
	a, err := st.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFoundf("assignment not found")
	}
	return a, nil
}

func loadPayment(ctx context.Context, st Store, id string) (*Payment, error) {
	p, err := st.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFoundf("payment not found")
	}
	return p, nil
}

// =============================================================================
// AUTHORIZATION HELPERS
// =============================================================================

// canManage reports whether actor may run manager-side transitions on p.
func canManage(actor Actor, p *Project) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == RoleManager && p.CreatedBy == actor.ID
}

func requireManager(actor Actor, p *Project) error {
	if !canManage(actor, p) {
		return forbiddenf("only the project manager can perform this action")
	}
	return nil
}

// sumActiveAllocations adds up the allocations of every active assignment.
func sumActiveAllocations(assignments []Assignment) decimal.Decimal {
	total := decimal.Zero
	for _, a := range assignments {
		if a.IsActive {
			total = total.Add(a.AllocatedAmount)
		}
	}
	return total
}
