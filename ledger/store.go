/*
store.go - Persistence interfaces for the ledger engine

PURPOSE:
  Defines the boundary between the state machines and the database. The
  engine only needs "durable rows with equality filtering"; sums are computed
  in Go over decimal values so no float aggregation ever happens in SQL.

KEY INTERFACES:
  UserStore, ProjectStore, AssignmentStore, PaymentStore, NotificationStore
  Store:   All of the above
  TxStore: Store plus WithTx for atomic multi-row transitions

NOT FOUND CONTRACT:
  Get* methods return (nil, nil) when the row does not exist. The service
  layer turns that into ErrNotFound with an entity-specific message.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go
*/
package ledger

import (
	"context"
	"time"
)

type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, u User) error
	// ListUsers returns users with the given role, or all users when role is empty.
	ListUsers(ctx context.Context, role Role) ([]User, error)

	AppendProjectEarning(ctx context.Context, e ProjectEarning) error
	ListProjectEarnings(ctx context.Context, userID string) ([]ProjectEarning, error)
}

type ProjectFilter struct {
	CreatedBy string
	IDs       []string
}

type ProjectStore interface {
	CreateProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	UpdateProject(ctx context.Context, p Project) error
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
}

type AssignmentFilter struct {
	ProjectID  string
	EmployeeID string
	Status     AssignmentStatus
	ActiveOnly bool
}

type AssignmentStore interface {
	CreateAssignment(ctx context.Context, a Assignment) error
	GetAssignment(ctx context.Context, id string) (*Assignment, error)
	UpdateAssignment(ctx context.Context, a Assignment) error
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	// FindActiveAssignment returns the active assignment for the pair, if any.
	FindActiveAssignment(ctx context.Context, projectID, employeeID string) (*Assignment, error)
}

type PaymentFilter struct {
	ProjectID  string
	EmployeeID string
	ProjectIDs []string
	Statuses   []RequestStatus
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetPaymentByAssignment(ctx context.Context, assignmentID string) (*Payment, error)
	UpdatePayment(ctx context.Context, p Payment) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteNotification(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the service.
type Store interface {
	UserStore
	ProjectStore
	AssignmentStore
	PaymentStore
	NotificationStore
}

// TxStore wraps Store with transaction support.
// If fn returns error, the transaction is rolled back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
