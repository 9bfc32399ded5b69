/*
payment.go - Payment request/approve/pay/confirm workflow

STATE MACHINE (requestStatus):

  request path:  requested ──▶ approved ──▶ paid ──▶ confirmed
                     │
                     └──────▶ rejected

  direct path:   paid ──▶ confirmed

  Every transition checks its single legal source state. There is no path
  back, so requestStatus never regresses.

EARNINGS BOOKKEEPING (per employee):

  | Transition      | pendingEarnings | totalEarnings |
  |-----------------|-----------------|---------------|
  | request         | +amount         |               |
  | direct create   | +amount         |               |
  | reject          | -amount         |               |
  | confirm         | -amount         | +amount       |

  An amount lives in at most one of the two totals at a time.

PROJECT SPEND:
  project.SpentAmount grows by the amount when a payment reaches paid.
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequestPayment opens a payment for an accepted, active assignment.
func (s *Service) RequestPayment(ctx context.Context, actor Actor, assignmentID, notes string) (*Payment, error) {
	var created *Payment
	err := s.transact(ctx, func(st Store, out *outbox) error {
		a, err := loadAssignment(ctx, st, assignmentID)
		if err != nil {
			return err
		}
		if a.EmployeeID != actor.ID {
			return forbiddenf("only the assigned employee can request payment")
		}
		if a.Status != AssignmentAccepted {
			return conflictf("payment can only be requested on an accepted assignment")
		}
		if !a.IsActive {
			return conflictf("assignment is no longer active")
		}

		existing, err := st.GetPaymentByAssignment(ctx, a.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflictf("a payment already exists for this assignment")
		}

		project, err := loadProject(ctx, st, a.ProjectID)
		if err != nil {
			return err
		}
		employee, err := loadUser(ctx, st, a.EmployeeID)
		if err != nil {
			return err
		}

		now := s.now()
		p := Payment{
			ID:            s.newID(),
			EmployeeID:    a.EmployeeID,
			ProjectID:     a.ProjectID,
			AssignmentID:  a.ID,
			Amount:        a.AllocatedAmount,
			Currency:      a.Currency,
			Type:          PaymentAssignment,
			RequestStatus: RequestRequested,
			Status:        PaymentPending,
			RequestNotes:  notes,
			RequestedAt:   timePtr(now),
			CreatedBy:     actor.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := st.CreatePayment(ctx, p); err != nil {
			return err
		}

		employee.PendingEarnings = employee.PendingEarnings.Add(p.Amount)
		if err := st.UpdateUser(ctx, *employee); err != nil {
			return err
		}

		out.add(Notification{
			UserID: project.CreatedBy,
			Title:  "Payment requested",
			Message: fmt.Sprintf("%s requested a payment of %s %s for %q.",
				employee.displayName(), p.Amount.StringFixed(2), p.Currency, project.Name),
			Type:        NotifyPaymentRequested,
			RelatedID:   p.ID,
			RelatedType: RelatedPayment,
			Priority:    PriorityHigh,
		})
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ApprovePayment accepts a request. No money moves yet.
func (s *Service) ApprovePayment(ctx context.Context, actor Actor, id, notes string, scheduled *time.Time) (*Payment, error) {
	return s.managerPaymentTransition(ctx, actor, id, func(p *Payment, project *Project, st Store, out *outbox, now time.Time) error {
		if p.RequestStatus != RequestRequested {
			return conflictf("payment is already %s", p.RequestStatus)
		}
		p.RequestStatus = RequestApproved
		p.Status = PaymentProcessing
		p.ApprovalNotes = notes
		p.ScheduledDate = scheduled
		p.ApprovedAt = timePtr(now)
		p.ApprovedBy = actor.ID

		msg := fmt.Sprintf("Your payment request of %s %s for %q was approved.",
			p.Amount.StringFixed(2), p.Currency, project.Name)
		if scheduled != nil {
			msg += " Scheduled for " + scheduled.Format("2006-01-02") + "."
		}
		out.add(Notification{
			UserID:      p.EmployeeID,
			Title:       "Payment approved",
			Message:     msg,
			Type:        NotifyPaymentApproved,
			RelatedID:   p.ID,
			RelatedType: RelatedPayment,
		})
		return nil
	})
}

// RejectPayment declines a request and reverses the pending earnings increment.
func (s *Service) RejectPayment(ctx context.Context, actor Actor, id, reason string) (*Payment, error) {
	reason = strings.TrimSpace(reason)
	return s.managerPaymentTransition(ctx, actor, id, func(p *Payment, project *Project, st Store, out *outbox, now time.Time) error {
		if reason == "" {
			return validationf("rejection reason is required")
		}
		if p.RequestStatus != RequestRequested {
			return conflictf("payment is already %s", p.RequestStatus)
		}
		p.RequestStatus = RequestRejected
		p.Status = PaymentCancelled
		p.RejectionReason = reason
		p.RejectedAt = timePtr(now)
		p.RejectedBy = actor.ID

		if err := adjustPending(ctx, st, p.EmployeeID, p.Amount.Neg()); err != nil {
			return err
		}

		out.add(Notification{
			UserID: p.EmployeeID,
			Title:  "Payment request rejected",
			Message: fmt.Sprintf("Your payment request of %s %s for %q was rejected. Reason: %s",
				p.Amount.StringFixed(2), p.Currency, project.Name, reason),
			Type:        NotifyPaymentRejected,
			RelatedID:   p.ID,
			RelatedType: RelatedPayment,
			Priority:    PriorityHigh,
		})
		return nil
	})
}

// MarkPaymentPaid records that an approved payment has been sent.
func (s *Service) MarkPaymentPaid(ctx context.Context, actor Actor, id string, proof Proof) (*Payment, error) {
	return s.managerPaymentTransition(ctx, actor, id, func(p *Payment, project *Project, st Store, out *outbox, now time.Time) error {
		if p.RequestStatus != RequestApproved {
			return conflictf("only approved payments can be marked as paid")
		}
		p.RequestStatus = RequestPaid
		p.Status = PaymentCompleted
		p.PaidAt = timePtr(now)
		if !proof.IsEmpty() {
			p.Proof = proof
		}

		if err := addSpent(ctx, st, project, p.Amount, now); err != nil {
			return err
		}

		out.add(paymentSentNotification(p, project))
		return nil
	})
}

// ConfirmPayment acknowledges receipt and moves the amount into total earnings.
func (s *Service) ConfirmPayment(ctx context.Context, actor Actor, id, notes string) (*Payment, error) {
	var result *Payment
	err := s.transact(ctx, func(st Store, out *outbox) error {
		p, err := loadPayment(ctx, st, id)
		if err != nil {
			return err
		}
		if p.EmployeeID != actor.ID {
			return forbiddenf("only the paid employee can confirm receipt")
		}
		if p.EmployeeConfirmation {
			return conflictf("payment already confirmed")
		}
		if p.RequestStatus != RequestPaid {
			return conflictf("payment must be marked as paid before it can be confirmed")
		}

		project, err := loadProject(ctx, st, p.ProjectID)
		if err != nil {
			return err
		}
		employee, err := loadUser(ctx, st, p.EmployeeID)
		if err != nil {
			return err
		}

		now := s.now()
		p.RequestStatus = RequestConfirmed
		p.EmployeeConfirmation = true
		p.ConfirmationNotes = notes
		p.ConfirmedAt = timePtr(now)
		p.UpdatedAt = now
		if err := st.UpdatePayment(ctx, *p); err != nil {
			return err
		}

		employee.PendingEarnings = employee.PendingEarnings.Sub(p.Amount)
		if employee.PendingEarnings.IsNegative() {
			employee.PendingEarnings = decimal.Zero
		}
		employee.TotalEarnings = employee.TotalEarnings.Add(p.Amount)
		employee.LastPaymentDate = timePtr(now)
		employee.LastPaymentAmount = p.Amount
		if err := st.UpdateUser(ctx, *employee); err != nil {
			return err
		}

		if err := st.AppendProjectEarning(ctx, ProjectEarning{
			ID:          s.newID(),
			UserID:      employee.ID,
			ProjectID:   p.ProjectID,
			PaymentID:   p.ID,
			Amount:      p.Amount,
			Currency:    p.Currency,
			ConfirmedAt: now,
		}); err != nil {
			return err
		}

		out.add(Notification{
			UserID: project.CreatedBy,
			Title:  "Payment confirmed",
			Message: fmt.Sprintf("%s confirmed receipt of %s %s for %q.",
				employee.displayName(), p.Amount.StringFixed(2), p.Currency, project.Name),
			Type:        NotifyPaymentConfirmed,
			RelatedID:   p.ID,
			RelatedType: RelatedPayment,
		})
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DirectPaymentInput is a manager-initiated one-shot payment.
type DirectPaymentInput struct {
	EmployeeID string
	ProjectID  string
	Amount     decimal.Decimal
	Currency   string
	Type       PaymentType
	Notes      string
	Proof      Proof
}

// CreateDirectPayment records money already sent, skipping request and approval.
func (s *Service) CreateDirectPayment(ctx context.Context, actor Actor, in DirectPaymentInput) (*Payment, error) {
	if in.Proof.IsEmpty() {
		return nil, validationf("at least one of transactionId, transactionProofLink or proofOfPayment is required")
	}
	if !in.Amount.IsPositive() {
		return nil, validationf("amount must be greater than 0")
	}
	paymentType := in.Type
	switch paymentType {
	case "":
		paymentType = PaymentDirect
	case PaymentDirect, PaymentBonus:
	default:
		return nil, validationf("invalid payment type %q", in.Type)
	}

	var created *Payment
	err := s.transact(ctx, func(st Store, out *outbox) error {
		project, err := loadProject(ctx, st, in.ProjectID)
		if err != nil {
			return err
		}
		if err := requireManager(actor, project); err != nil {
			return err
		}
		employee, err := loadUser(ctx, st, in.EmployeeID)
		if err != nil {
			return err
		}
		if employee.Role != RoleEmployee {
			return validationf("payments can only be made to employees")
		}

		now := s.now()
		currency := in.Currency
		if currency == "" {
			currency = project.Currency
		}
		p := Payment{
			ID:            s.newID(),
			EmployeeID:    employee.ID,
			ProjectID:     project.ID,
			Amount:        in.Amount,
			Currency:      currency,
			Type:          paymentType,
			RequestStatus: RequestPaid,
			Status:        PaymentCompleted,
			RequestNotes:  in.Notes,
			Proof:         in.Proof,
			ApprovedAt:    timePtr(now),
			ApprovedBy:    actor.ID,
			PaidAt:        timePtr(now),
			CreatedBy:     actor.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := st.CreatePayment(ctx, p); err != nil {
			return err
		}

		employee.PendingEarnings = employee.PendingEarnings.Add(p.Amount)
		if err := st.UpdateUser(ctx, *employee); err != nil {
			return err
		}
		if err := addSpent(ctx, st, project, p.Amount, now); err != nil {
			return err
		}

		out.add(paymentSentNotification(&p, project))
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// =============================================================================
// READS
// =============================================================================

// GetPayment returns a payment visible to actor.
func (s *Service) GetPayment(ctx context.Context, actor Actor, id string) (*Payment, error) {
	p, err := loadPayment(ctx, s.Store, id)
	if err != nil {
		return nil, err
	}
	if p.EmployeeID == actor.ID {
		return p, nil
	}
	project, err := loadProject(ctx, s.Store, p.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(actor, project); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPayments returns the payments actor can see, optionally narrowed by status.
// Admins see everything, managers see their projects, employees see their own.
func (s *Service) ListPayments(ctx context.Context, actor Actor, statuses []RequestStatus) ([]Payment, error) {
	filter := PaymentFilter{Statuses: statuses}
	switch actor.Role {
	case RoleAdmin:
	case RoleManager:
		projects, err := s.Store.ListProjects(ctx, ProjectFilter{CreatedBy: actor.ID})
		if err != nil {
			return nil, err
		}
		if len(projects) == 0 {
			return []Payment{}, nil
		}
		for _, p := range projects {
			filter.ProjectIDs = append(filter.ProjectIDs, p.ID)
		}
	default:
		filter.EmployeeID = actor.ID
	}
	return s.Store.ListPayments(ctx, filter)
}

// ListProjectPayments lists every payment of a project.
func (s *Service) ListProjectPayments(ctx context.Context, actor Actor, projectID string) ([]Payment, error) {
	project, err := loadProject(ctx, s.Store, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(actor, project); err != nil {
		return nil, err
	}
	return s.Store.ListPayments(ctx, PaymentFilter{ProjectID: projectID})
}

// =============================================================================
// TRANSITION PLUMBING
// =============================================================================

type paymentStep func(p *Payment, project *Project, st Store, out *outbox, now time.Time) error

func (s *Service) managerPaymentTransition(ctx context.Context, actor Actor, id string, step paymentStep) (*Payment, error) {
	var result *Payment
	err := s.transact(ctx, func(st Store, out *outbox) error {
		p, err := loadPayment(ctx, st, id)
		if err != nil {
			return err
		}
		project, err := loadProject(ctx, st, p.ProjectID)
		if err != nil {
			return err
		}
		if err := requireManager(actor, project); err != nil {
			return err
		}

		now := s.now()
		if err := step(p, project, st, out, now); err != nil {
			return err
		}
		p.UpdatedAt = now
		if err := st.UpdatePayment(ctx, *p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func adjustPending(ctx context.Context, st Store, userID string, delta decimal.Decimal) error {
	u, err := loadUser(ctx, st, userID)
	if err != nil {
		return err
	}
	u.PendingEarnings = u.PendingEarnings.Add(delta)
	if u.PendingEarnings.IsNegative() {
		u.PendingEarnings = decimal.Zero
	}
	return st.UpdateUser(ctx, *u)
}

func addSpent(ctx context.Context, st Store, project *Project, amount decimal.Decimal, now time.Time) error {
	project.SpentAmount = project.SpentAmount.Add(amount)
	project.UpdatedAt = now
	return st.UpdateProject(ctx, *project)
}

func paymentSentNotification(p *Payment, project *Project) Notification {
	return Notification{
		UserID: p.EmployeeID,
		Title:  "Payment sent",
		Message: fmt.Sprintf("A payment of %s %s for %q has been sent. Please confirm receipt.",
			p.Amount.StringFixed(2), p.Currency, project.Name),
		Type:        NotifyPaymentSent,
		RelatedID:   p.ID,
		RelatedType: RelatedPayment,
		Priority:    PriorityHigh,
	}
}

func (u *User) displayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "An employee"
}
