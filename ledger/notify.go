package ledger

import "time"

// =============================================================================
// NOTIFICATIONS
// =============================================================================

type NotificationType string

const (
	NotifyAssignmentCreated  NotificationType = "assignment_created"
	NotifyAssignmentAccepted NotificationType = "assignment_accepted"
	NotifyAssignmentRejected NotificationType = "assignment_rejected"
	NotifyAssignmentRemoved  NotificationType = "assignment_removed"
	NotifyAssignmentReminder NotificationType = "assignment_reminder"
	NotifyWorkSubmitted      NotificationType = "work_submitted"
	NotifyWorkVerified       NotificationType = "work_verified"
	NotifyWorkRejected       NotificationType = "work_rejected"
	NotifyRevisionRequested  NotificationType = "revision_requested"
	NotifyPaymentRequested   NotificationType = "payment_requested"
	NotifyPaymentApproved    NotificationType = "payment_approved"
	NotifyPaymentRejected    NotificationType = "payment_rejected"
	NotifyPaymentSent        NotificationType = "payment_sent"
	NotifyPaymentConfirmed   NotificationType = "payment_confirmed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Related types used in Notification.RelatedType.
const (
	RelatedAssignment = "assignment"
	RelatedPayment    = "payment"
	RelatedProject    = "project"
)

// Notification is a user-facing event. RelatedID/RelatedType is a lookup
// reference only, never an ownership edge.
type Notification struct {
	ID          string
	UserID      string
	Title       string
	Message     string
	Type        NotificationType
	RelatedID   string
	RelatedType string
	Priority    Priority
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// Notifier receives notifications after a transition commits.
// Emit must not block and must not fail the caller.
type Notifier interface {
	Emit(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Emit(n Notification) { f(n) }

// nopNotifier drops everything.
type nopNotifier struct{}

func (nopNotifier) Emit(Notification) {}

// outbox collects notifications during a transition so they are only emitted
// once the transaction has committed.
type outbox struct {
	items []Notification
}

func (o *outbox) add(n Notification) {
	o.items = append(o.items, n)
}

// addUnique skips recipients already notified with the same type in this transition.
func (o *outbox) addUnique(n Notification) {
	for _, existing := range o.items {
		if existing.UserID == n.UserID && existing.Type == n.Type {
			return
		}
	}
	o.items = append(o.items, n)
}
