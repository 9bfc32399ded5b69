/*
assignment.go - Employee-to-project assignment lifecycle

STATE MACHINE:

  assignmentStatus:  pending ──▶ accepted
                        │
                        └──────▶ rejected   (allocation returned to project)

  workStatus (after accept):
     in_progress ──▶ submitted ──▶ verified
                        │   ▲
                        │   └──── rejected / revision_required (resubmit)
                        ├──▶ rejected
                        └──▶ revision_required

BUDGET BOOKKEEPING:
  Creating an assignment adds its allocation to project.AllocatedAmount.
  Rejecting or removing an active assignment subtracts it again, so
  project.AllocatedAmount always equals the sum of active allocations.
  An inactive assignment can no longer request payment.

OPERATIONS:
  CreateAssignment, AcceptAssignment, RejectAssignment, SubmitWork,
  VerifyWork, RejectWork, RequestRevision, RemoveAssignment,
  UpdateAssignmentTracking
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CreateAssignmentInput holds the fields a manager sends to assign an employee.
type CreateAssignmentInput struct {
	ProjectID       string
	EmployeeID      string
	AllocatedAmount decimal.Decimal
	Currency        string
	Role            string
	Terms           string
}

// CreateAssignment earmarks part of a project's budget for an employee.
func (s *Service) CreateAssignment(ctx context.Context, actor Actor, in CreateAssignmentInput) (*Assignment, error) {
	if in.EmployeeID == "" {
		return nil, validationf("employeeId is required")
	}
	if !in.AllocatedAmount.IsPositive() {
		return nil, validationf("allocated amount must be greater than 0")
	}

	var created *Assignment
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
			return validationf("only employees can be assigned to projects")
		}

		existing, err := st.FindActiveAssignment(ctx, project.ID, employee.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflictf("employee already has an active assignment on this project")
		}

		active, err := st.ListAssignments(ctx, AssignmentFilter{ProjectID: project.ID, ActiveOnly: true})
		if err != nil {
			return err
		}
		remaining := project.Budget.Sub(sumActiveAllocations(active))
		if in.AllocatedAmount.GreaterThan(remaining) {
			return validationf("allocated amount %s exceeds remaining budget %s",
				in.AllocatedAmount.StringFixed(2), remaining.StringFixed(2))
		}

		now := s.now()
		currency := in.Currency
		if currency == "" {
			currency = project.Currency
		}
		a := Assignment{
			ID:               s.newID(),
			ProjectID:        project.ID,
			EmployeeID:       employee.ID,
			AssignedBy:       actor.ID,
			AllocatedAmount:  in.AllocatedAmount,
			Currency:         currency,
			Role:             in.Role,
			Terms:            in.Terms,
			Status:           AssignmentPending,
			WorkStatus:       WorkNotStarted,
			IsActive:         true,
			ResponseDeadline: now.Add(s.responseWindow()),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := st.CreateAssignment(ctx, a); err != nil {
			return err
		}

		project.AllocatedAmount = project.AllocatedAmount.Add(a.AllocatedAmount)
		project.UpdatedAt = now
		if err := st.UpdateProject(ctx, *project); err != nil {
			return err
		}

		out.add(Notification{
			UserID: employee.ID,
			Title:  "New project assignment",
			Message: fmt.Sprintf("You have been assigned to %q with an allocation of %s %s. Please respond by %s.",
				project.Name, a.AllocatedAmount.StringFixed(2), a.Currency, a.ResponseDeadline.Format(time.RFC1123)),
			Type:        NotifyAssignmentCreated,
			RelatedID:   a.ID,
			RelatedType: RelatedAssignment,
			Priority:    PriorityHigh,
		})
		created = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AcceptAssignment is called by the assigned employee.
func (s *Service) AcceptAssignment(ctx context.Context, actor Actor, id string) (*Assignment, error) {
	return s.employeeTransition(ctx, actor, id, func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error {
		if a.Status != AssignmentPending {
			return conflictf("assignment is already %s", a.Status)
		}
		if !a.IsActive {
			return conflictf("assignment is no longer active")
		}
		a.Status = AssignmentAccepted
		a.WorkStatus = WorkInProgress
		a.AcceptedAt = timePtr(now)
		a.WorkStartedAt = timePtr(now)

		notifyManagers(out, project, a, Notification{
			Title:       "Assignment accepted",
			Message:     fmt.Sprintf("The assignment on %q has been accepted.", project.Name),
			Type:        NotifyAssignmentAccepted,
			RelatedID:   a.ID,
			RelatedType: RelatedAssignment,
		})
		return nil
	})
}

// RejectAssignment declines an assignment and returns its allocation to the project budget.
func (s *Service) RejectAssignment(ctx context.Context, actor Actor, id, reason string) (*Assignment, error) {
	reason = strings.TrimSpace(reason)
	return s.employeeTransition(ctx, actor, id, func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error {
		if reason == "" {
			return validationf("rejection reason is required")
		}
		if a.Status != AssignmentPending {
			return conflictf("assignment is already %s", a.Status)
		}
		if !a.IsActive {
			return conflictf("assignment is no longer active")
		}
		a.Status = AssignmentRejected
		a.IsActive = false
		a.RejectionReason = reason
		a.RejectedAt = timePtr(now)

		if err := releaseAllocation(ctx, st, project, a, now); err != nil {
			return err
		}

		notifyManagers(out, project, a, Notification{
			Title:       "Assignment rejected",
			Message:     fmt.Sprintf("The assignment on %q was rejected. Reason: %s", project.Name, reason),
			Type:        NotifyAssignmentRejected,
			RelatedID:   a.ID,
			RelatedType: RelatedAssignment,
			Priority:    PriorityHigh,
		})
		return nil
	})
}

// SubmitWork hands work in for verification. Also used for resubmission.
func (s *Service) SubmitWork(ctx context.Context, actor Actor, id, notes string, deliverables []string) (*Assignment, error) {
	return s.employeeTransition(ctx, actor, id, func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error {
		if a.Status != AssignmentAccepted || !a.IsActive {
			return conflictf("work can only be submitted on an accepted assignment")
		}
		switch a.WorkStatus {
		case WorkInProgress, WorkRejected, WorkRevisionRequired:
		default:
			return conflictf("work cannot be submitted while %s", a.WorkStatus)
		}
		a.WorkStatus = WorkSubmitted
		a.SubmissionNotes = notes
		a.Deliverables = deliverables
		a.WorkSubmittedAt = timePtr(now)

		out.add(Notification{
			UserID:      project.CreatedBy,
			Title:       "Work submitted",
			Message:     fmt.Sprintf("Work on %q has been submitted for verification.", project.Name),
			Type:        NotifyWorkSubmitted,
			RelatedID:   a.ID,
			RelatedType: RelatedAssignment,
		})
		return nil
	})
}

// VerifyWork approves submitted work.
func (s *Service) VerifyWork(ctx context.Context, actor Actor, id, notes, feedback string) (*Assignment, error) {
	return s.managerTransition(ctx, actor, id, func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error {
		if a.WorkStatus != WorkSubmitted {
			return conflictf("only submitted work can be verified")
		}
		a.WorkStatus = WorkVerified
		a.VerificationNotes = notes
		a.Feedback = feedback
		a.WorkVerifiedAt = timePtr(now)
		a.WorkVerifiedBy = actor.ID

		employee, err := loadUser(ctx, st, a.EmployeeID)
		if err != nil {
			return err
		}
		employee.CompletedProjectsCount++
		if err := st.UpdateUser(ctx, *employee); err != nil {
			return err
		}

		out.add(Notification{
			UserID:      a.EmployeeID,
			Title:       "Work verified",
			Message:     fmt.Sprintf("Your work on %q has been verified.", project.Name),
			Type:        NotifyWorkVerified,
			RelatedID:   a.ID,
			RelatedType: RelatedAssignment,
			Priority:    PriorityHigh,
		})
		return nil
	})
}

// RejectWork sends submitted work back with a reason.
func (s *Service) RejectWork(ctx context.Context, actor Actor, id, reason string) (*Assignment, error) {
	reason = strings.TrimSpace(reason)
	return s.managerTransition(ctx, actor, id, func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error {
		if reason == "" {
			return validationf("rejection reason is required")
		}
		if a.WorkStatus != WorkSubmitted {
			return conflictf("only submitted work can be rejected")
		}
		a.WorkStatus = WorkRejected
		a.WorkRejectionReason = reason
		a.WorkRejectedAt = timePtr(now)

		out.add(Notification{
			UserID:      a.EmployeeID,
			Title:       "Work rejected",
			Message:     fmt.Sprintf("Your work on %q was rejected. Reason: %s", project.Name, reason),
			Type:        NotifyWorkRejected,
			RelatedID:   a.ID,
			RelatedType: RelatedAssignment,
			Priority:    PriorityHigh,
		})
		return nil
	})
}

// RequestRevision asks for changes on submitted or rejected work.
func (s *Service) RequestRevision(ctx context.Context, actor Actor, id, notes string, deadline *time.Time) (*Assignment, error) {
	return s.managerTransition(ctx, actor, id, func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error {
		if a.WorkStatus != WorkSubmitted && a.WorkStatus != WorkRejected {
			return conflictf("revision can only be requested on submitted or rejected work")
		}
		a.WorkStatus = WorkRevisionRequired
		a.RevisionNotes = notes
		a.RevisionDeadline = deadline
		a.RevisionRequestedAt = timePtr(now)

		msg := fmt.Sprintf("A revision was requested on %q.", project.Name)
		if notes != "" {
			msg += " Notes: " + notes
		}
		if deadline != nil {
			msg += " Deadline: " + deadline.Format(time.RFC1123)
		}
		out.add(Notification{
			UserID:      a.EmployeeID,
			Title:       "Revision requested",
			Message:     msg,
			Type:        NotifyRevisionRequested,
			RelatedID:   a.ID,
			RelatedType: RelatedAssignment,
		})
		return nil
	})
}

// RemoveAssignment soft-deletes an assignment in any state. The allocation of
// a still-active assignment goes back to the project.
func (s *Service) RemoveAssignment(ctx context.Context, actor Actor, id string) (*Assignment, error) {
	return s.managerTransition(ctx, actor, id, func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error {
		if a.IsActive {
			if err := releaseAllocation(ctx, st, project, a, now); err != nil {
				return err
			}
		}
		a.IsActive = false
		a.RemovedAt = timePtr(now)

		out.add(Notification{
			UserID:      a.EmployeeID,
			Title:       "Removed from project",
			Message:     fmt.Sprintf("You have been removed from %q.", project.Name),
			Type:        NotifyAssignmentRemoved,
			RelatedID:   a.ID,
			RelatedType: RelatedAssignment,
		})
		return nil
	})
}

// UpdateAssignmentTracking applies a partial tracking update.
func (s *Service) UpdateAssignmentTracking(ctx context.Context, actor Actor, id string, update TrackingUpdate) (*Assignment, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return s.managerTransition(ctx, actor, id, func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error {
		a.Tracking.Apply(update)
		return nil
	})
}

// =============================================================================
// READS
// =============================================================================

// GetAssignment returns an assignment visible to actor.
func (s *Service) GetAssignment(ctx context.Context, actor Actor, id string) (*Assignment, error) {
	a, err := loadAssignment(ctx, s.Store, id)
	if err != nil {
		return nil, err
	}
	if a.EmployeeID == actor.ID {
		return a, nil
	}
	project, err := loadProject(ctx, s.Store, a.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(actor, project); err != nil {
		return nil, err
	}
	return a, nil
}

// ListProjectAssignments lists every assignment of a project, active or not.
func (s *Service) ListProjectAssignments(ctx context.Context, actor Actor, projectID string) ([]Assignment, error) {
	project, err := loadProject(ctx, s.Store, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(actor, project); err != nil {
		return nil, err
	}
	return s.Store.ListAssignments(ctx, AssignmentFilter{ProjectID: projectID})
}

// ListMyAssignments lists the actor's own assignments.
func (s *Service) ListMyAssignments(ctx context.Context, actor Actor, activeOnly bool) ([]Assignment, error) {
	return s.Store.ListAssignments(ctx, AssignmentFilter{EmployeeID: actor.ID, ActiveOnly: activeOnly})
}

// =============================================================================
// TRANSITION PLUMBING
// =============================================================================

type assignmentStep func(a *Assignment, project *Project, st Store, out *outbox, now time.Time) error

// employeeTransition runs step when actor is the assigned employee.
func (s *Service) employeeTransition(ctx context.Context, actor Actor, id string, step assignmentStep) (*Assignment, error) {
	return s.assignmentTransition(ctx, id, func(a *Assignment, _ *Project) error {
		if a.EmployeeID != actor.ID {
			return forbiddenf("only the assigned employee can perform this action")
		}
		return nil
	}, step)
}

// managerTransition runs step when actor manages the assignment's project.
func (s *Service) managerTransition(ctx context.Context, actor Actor, id string, step assignmentStep) (*Assignment, error) {
	return s.assignmentTransition(ctx, id, func(_ *Assignment, p *Project) error {
		return requireManager(actor, p)
	}, step)
}

func (s *Service) assignmentTransition(
	ctx context.Context,
	id string,
	authorize func(a *Assignment, p *Project) error,
	step assignmentStep,
) (*Assignment, error) {
	var result *Assignment
	err := s.transact(ctx, func(st Store, out *outbox) error {
		a, err := loadAssignment(ctx, st, id)
		if err != nil {
			return err
		}
		project, err := loadProject(ctx, st, a.ProjectID)
		if err != nil {
			return err
		}
		if err := authorize(a, project); err != nil {
			return err
		}

		now := s.now()
		if err := step(a, project, st, out, now); err != nil {
			return err
		}
		a.UpdatedAt = now
		if err := st.UpdateAssignment(ctx, *a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// releaseAllocation returns a's allocation to the project budget.
func releaseAllocation(ctx context.Context, st Store, project *Project, a *Assignment, now time.Time) error {
	project.AllocatedAmount = project.AllocatedAmount.Sub(a.AllocatedAmount)
	if project.AllocatedAmount.IsNegative() {
		project.AllocatedAmount = decimal.Zero
	}
	project.UpdatedAt = now
	return st.UpdateProject(ctx, *project)
}

// notifyManagers sends n to the project creator and, if different, the assigner.
func notifyManagers(out *outbox, project *Project, a *Assignment, n Notification) {
	recipients := []string{project.CreatedBy}
	if a.AssignedBy != "" && a.AssignedBy != project.CreatedBy {
		recipients = append(recipients, a.AssignedBy)
	}
	for _, id := range recipients {
		n.UserID = id
		out.addUnique(n)
	}
}
