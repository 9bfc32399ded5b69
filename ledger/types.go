/*
Package ledger provides the project payment and assignment engine.

PURPOSE:
  This package holds the domain records (users, projects, assignments,
  payments, notifications), the two state machines that move assignments and
  payments through their lifecycles, and the financial aggregator that turns
  project snapshots into cost and variance figures.

KEY CONCEPTS IN THIS FILE (types.go):
  - Role / Actor: Who is performing an operation
  - Tracking: Rate, hours, consumables and materials (estimated vs actual)
  - Project, Assignment, Payment: The passive ledger records
  - User earnings: pending vs total running totals, plus an append-only log

MONEY:
  Every amount is a decimal.Decimal. Amounts are never float64 inside this
  package; DTOs in the api package convert at the edge.

SEE ALSO:
  - assignment.go: Assignment state machine
  - payment.go: Payment state machine
  - finance.go: Financial aggregator
  - store.go: Persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACTORS
// =============================================================================

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// =============================================================================
// USER - Earnings subset
// =============================================================================

type User struct {
	ID    string
	Name  string
	Email string
	Role  Role

	// Running totals, mutated only by payment transitions.
	TotalEarnings   decimal.Decimal
	PendingEarnings decimal.Decimal

	CompletedProjectsCount int
	LastPaymentDate        *time.Time
	LastPaymentAmount      decimal.Decimal

	CreatedAt time.Time
}

// ProjectEarning is one confirmed payment in a user's earnings log. Append-only.
type ProjectEarning struct {
	ID          string
	UserID      string
	ProjectID   string
	PaymentID   string
	Amount      decimal.Decimal
	Currency    string
	ConfirmedAt time.Time
}

// =============================================================================
// TRACKING - Estimated vs actual cost inputs
// =============================================================================

// Tracking holds the cost drivers shared by projects and assignments.
// Project-level and assignment-level tracking are independent.
type Tracking struct {
	Rate                 decimal.Decimal
	EstimatedHours       decimal.Decimal
	ActualHours          decimal.Decimal
	EstimatedConsumables decimal.Decimal
	ActualConsumables    decimal.Decimal
	EstimatedMaterials   decimal.Decimal
	ActualMaterials      decimal.Decimal
}

// TrackingUpdate is a partial update; nil fields are left untouched.
type TrackingUpdate struct {
	Rate                 *decimal.Decimal
	EstimatedHours       *decimal.Decimal
	ActualHours          *decimal.Decimal
	EstimatedConsumables *decimal.Decimal
	ActualConsumables    *decimal.Decimal
	EstimatedMaterials   *decimal.Decimal
	ActualMaterials      *decimal.Decimal
}

func (u TrackingUpdate) fields() []*decimal.Decimal {
	return []*decimal.Decimal{
		u.Rate, u.EstimatedHours, u.ActualHours,
		u.EstimatedConsumables, u.ActualConsumables,
		u.EstimatedMaterials, u.ActualMaterials,
	}
}

// Validate rejects negative values.
func (u TrackingUpdate) Validate() error {
	for _, f := range u.fields() {
		if f != nil && f.IsNegative() {
			return validationf("tracking values cannot be negative")
		}
	}
	return nil
}

// Apply copies every non-nil field of u into t.
func (t *Tracking) Apply(u TrackingUpdate) {
	set := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.Rate, u.Rate)
	set(&t.EstimatedHours, u.EstimatedHours)
	set(&t.ActualHours, u.ActualHours)
	set(&t.EstimatedConsumables, u.EstimatedConsumables)
	set(&t.ActualConsumables, u.ActualConsumables)
	set(&t.EstimatedMaterials, u.EstimatedMaterials)
	set(&t.ActualMaterials, u.ActualMaterials)
}

// =============================================================================
// PROJECT
// =============================================================================

type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on-hold"
	ProjectCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPending, ProjectInProgress, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

type Project struct {
	ID          string
	Name        string
	Description string
	Currency    string

	Budget decimal.Decimal
	// AllocatedAmount is the sum of active assignment allocations.
	AllocatedAmount decimal.Decimal
	// SpentAmount is the sum of payments that reached "paid".
	SpentAmount decimal.Decimal

	Tracking

	Status    ProjectStatus
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectUpdate is a typed partial update for a project.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Budget      *decimal.Decimal
	Status      *ProjectStatus
	Tracking    TrackingUpdate
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentAccepted AssignmentStatus = "accepted"
	AssignmentRejected AssignmentStatus = "rejected"
)

type WorkStatus string

const (
	WorkNotStarted       WorkStatus = "not_started"
	WorkInProgress       WorkStatus = "in_progress"
	WorkSubmitted        WorkStatus = "submitted"
	WorkVerified         WorkStatus = "verified"
	WorkRejected         WorkStatus = "rejected"
	WorkRevisionRequired WorkStatus = "revision_required"
)

// Assignment links one employee to one project with a fixed allocation.
type Assignment struct {
	ID              string
	ProjectID       string
	EmployeeID      string
	AssignedBy      string
	AllocatedAmount decimal.Decimal
	Currency        string
	Role            string
	Terms           string

	Status     AssignmentStatus
	WorkStatus WorkStatus
	IsActive   bool

	ResponseDeadline time.Time

	RejectionReason     string
	SubmissionNotes     string
	Deliverables        []string
	VerificationNotes   string
	Feedback            string
	WorkVerifiedBy      string
	WorkRejectionReason string
	RevisionNotes       string
	RevisionDeadline    *time.Time

	AcceptedAt          *time.Time
	RejectedAt          *time.Time
	WorkStartedAt       *time.Time
	WorkSubmittedAt     *time.Time
	WorkVerifiedAt      *time.Time
	WorkRejectedAt      *time.Time
	RevisionRequestedAt *time.Time
	RemovedAt           *time.Time
	ReminderSentAt      *time.Time

	Tracking

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// PAYMENT
// =============================================================================

type PaymentType string

const (
	PaymentAssignment PaymentType = "assignment"
	PaymentDirect     PaymentType = "direct"
	PaymentBonus      PaymentType = "bonus"
)

// RequestStatus is the workflow state of a payment.
//
//	not_requested -> requested -> approved -> paid -> confirmed
//	                          \-> rejected
//
// Direct payments start at paid.
type RequestStatus string

const (
	RequestNotRequested RequestStatus = "not_requested"
	RequestRequested    RequestStatus = "requested"
	RequestApproved     RequestStatus = "approved"
	RequestRejected     RequestStatus = "rejected"
	RequestPaid         RequestStatus = "paid"
	RequestConfirmed    RequestStatus = "confirmed"
)

// PaymentStatus is the processing status tracked alongside RequestStatus.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// Proof references evidence that money was sent.
type Proof struct {
	TransactionID        string
	TransactionProofLink string
	ProofOfPayment       string
}

func (p Proof) IsEmpty() bool {
	return p.TransactionID == "" && p.TransactionProofLink == "" && p.ProofOfPayment == ""
}

type Payment struct {
	ID           string
	EmployeeID   string
	ProjectID    string
	AssignmentID string // empty for direct payments
	Amount       decimal.Decimal
	Currency     string
	Type         PaymentType

	RequestStatus        RequestStatus
	Status               PaymentStatus
	EmployeeConfirmation bool

	RequestNotes      string
	ApprovalNotes     string
	RejectionReason   string
	ConfirmationNotes string
	ScheduledDate     *time.Time
	Proof             Proof

	RequestedAt *time.Time
	ApprovedAt  *time.Time
	ApprovedBy  string
	RejectedAt  *time.Time
	RejectedBy  string
	PaidAt      *time.Time
	ConfirmedAt *time.Time

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func timePtr(t time.Time) *time.Time { return &t }
