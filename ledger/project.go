package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// USERS
// =============================================================================

type CreateUserInput struct {
	Name  string
	Email string
	Role  Role
}

// CreateUser registers an account. Admin only.
func (s *Service) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*User, error) {
	if !actor.IsAdmin() {
		return nil, forbiddenf("only admins can create users")
	}
	return s.createUser(ctx, in)
}

func (s *Service) createUser(ctx context.Context, in CreateUserInput) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" {
		return nil, validationf("name is required")
	}
	if in.Email == "" {
		return nil, validationf("email is required")
	}
	if !in.Role.Valid() {
		return nil, validationf("invalid role %q", in.Role)
	}
	u := User{
		ID:        s.newID(),
		Name:      in.Name,
		Email:     in.Email,
		Role:      in.Role,
		CreatedAt: s.now(),
	}
	if err := s.Store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser returns a user. Employees may only look themselves up.
func (s *Service) GetUser(ctx context.Context, actor Actor, id string) (*User, error) {
	if actor.Role == RoleEmployee && actor.ID != id {
		return nil, forbiddenf("employees can only view their own profile")
	}
	return loadUser(ctx, s.Store, id)
}

// ListUsers lists users, optionally by role. Employees are refused.
func (s *Service) ListUsers(ctx context.Context, actor Actor, role Role) ([]User, error) {
	if actor.Role == RoleEmployee {
		return nil, forbiddenf("employees cannot list users")
	}
	if role != "" && !role.Valid() {
		return nil, validationf("invalid role %q", role)
	}
	return s.Store.ListUsers(ctx, role)
}

// Earnings is a user's earnings snapshot with the confirmed-payment log.
type Earnings struct {
	User             User
	ProjectEarnings  []ProjectEarning
	ConfirmedTotal   decimal.Decimal
	ConfirmedByMonth map[string]decimal.Decimal
}

// GetEarnings returns the earnings of a user. Employees only see their own.
func (s *Service) GetEarnings(ctx context.Context, actor Actor, userID string) (*Earnings, error) {
	u, err := s.GetUser(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.Store.ListProjectEarnings(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	e := &Earnings{
		User:             *u,
		ProjectEarnings:  entries,
		ConfirmedTotal:   decimal.Zero,
		ConfirmedByMonth: make(map[string]decimal.Decimal),
	}
	for _, pe := range entries {
		e.ConfirmedTotal = e.ConfirmedTotal.Add(pe.Amount)
		month := pe.ConfirmedAt.Format("2006-01")
		e.ConfirmedByMonth[month] = e.ConfirmedByMonth[month].Add(pe.Amount)
	}
	return e, nil
}

// =============================================================================
// PROJECTS
// =============================================================================

type CreateProjectInput struct {
	Name        string
	Description string
	Currency    string
	Budget      decimal.Decimal
	Status      ProjectStatus
	Tracking    TrackingUpdate
}

// CreateProject creates a project owned by the actor. Managers and admins only.
func (s *Service) CreateProject(ctx context.Context, actor Actor, in CreateProjectInput) (*Project, error) {
	if actor.Role != RoleManager && !actor.IsAdmin() {
		return nil, forbiddenf("only managers can create projects")
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationf("project name is required")
	}
	if in.Budget.IsNegative() {
		return nil, validationf("budget cannot be negative")
	}
	if err := in.Tracking.Validate(); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = ProjectPending
	}
	if !status.Valid() {
		return nil, validationf("invalid project status %q", in.Status)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := s.now()
	p := Project{
		ID:          s.newID(),
		Name:        in.Name,
		Description: in.Description,
		Currency:    currency,
		Budget:      in.Budget,
		Status:      status,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Tracking.Apply(in.Tracking)
	if err := s.Store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProject returns a project visible to actor: its manager, an admin, or an
// employee with an assignment on it.
func (s *Service) GetProject(ctx context.Context, actor Actor, id string) (*Project, error) {
	p, err := loadProject(ctx, s.Store, id)
	if err != nil {
		return nil, err
	}
	if canManage(actor, p) {
		return p, nil
	}
	a, err := s.Store.ListAssignments(ctx, AssignmentFilter{ProjectID: id, EmployeeID: actor.ID})
	if err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return nil, forbiddenf("you do not have access to this project")
	}
	return p, nil
}

// UpdateProject applies a typed partial update.
func (s *Service) UpdateProject(ctx context.Context, actor Actor, id string, in ProjectUpdate) (*Project, error) {
	if err := in.Tracking.Validate(); err != nil {
		return nil, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, validationf("invalid project status %q", *in.Status)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, validationf("project name cannot be empty")
	}

	var result *Project
	err := s.transact(ctx, func(st Store, _ *outbox) error {
		p, err := loadProject(ctx, st, id)
		if err != nil {
			return err
		}
		if err := requireManager(actor, p); err != nil {
			return err
		}
		if in.Budget != nil {
			if in.Budget.LessThan(p.AllocatedAmount) {
				return validationf("budget %s cannot be lower than the allocated amount %s",
					in.Budget.StringFixed(2), p.AllocatedAmount.StringFixed(2))
			}
			p.Budget = *in.Budget
		}
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Status != nil {
			p.Status = *in.Status
		}
		p.Tracking.Apply(in.Tracking)
		p.UpdatedAt = s.now()
		if err := st.UpdateProject(ctx, *p); err != nil {
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

// ListProjects returns what the actor can see: all for admins, owned for
// managers, assigned for employees.
func (s *Service) ListProjects(ctx context.Context, actor Actor) ([]Project, error) {
	switch actor.Role {
	case RoleAdmin:
		return s.Store.ListProjects(ctx, ProjectFilter{})
	case RoleManager:
		return s.Store.ListProjects(ctx, ProjectFilter{CreatedBy: actor.ID})
	}
	assignments, err := s.Store.ListAssignments(ctx, AssignmentFilter{EmployeeID: actor.ID})
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return []Project{}, nil
	}
	seen := make(map[string]bool, len(assignments))
	var ids []string
	for _, a := range assignments {
		if !seen[a.ProjectID] {
			seen[a.ProjectID] = true
			ids = append(ids, a.ProjectID)
		}
	}
	return s.Store.ListProjects(ctx, ProjectFilter{IDs: ids})
}

// =============================================================================
// NOTIFICATIONS - Owner operations
// =============================================================================

// DefaultNotificationLimit caps notification listings.
const DefaultNotificationLimit = 50

func (s *Service) ListNotifications(ctx context.Context, actor Actor, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = DefaultNotificationLimit
	}
	return s.Store.ListNotifications(ctx, actor.ID, unreadOnly, limit)
}

func (s *Service) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	return s.Store.CountUnread(ctx, actor.ID)
}

// MarkNotificationRead marks one of the actor's notifications read.
func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, id string) (*Notification, error) {
	n, err := s.ownNotification(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	now := s.now()
	if err := s.Store.MarkNotificationRead(ctx, n.ID, now); err != nil {
		return nil, err
	}
	n.IsRead = true
	n.ReadAt = &now
	return n, nil
}

// MarkAllNotificationsRead returns how many notifications changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor Actor) (int64, error) {
	return s.Store.MarkAllNotificationsRead(ctx, actor.ID, s.now())
}

func (s *Service) DeleteNotification(ctx context.Context, actor Actor, id string) error {
	n, err := s.ownNotification(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.Store.DeleteNotification(ctx, n.ID)
}

func (s *Service) ownNotification(ctx context.Context, actor Actor, id string) (*Notification, error) {
	n, err := s.Store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, notFoundf("notification not found")
	}
	if n.UserID != actor.ID {
		return nil, forbiddenf("you can only access your own notifications")
	}
	return n, nil
}

// =============================================================================
// REMINDERS
// =============================================================================

// SendDueReminders notifies employees whose pending assignment deadline falls
// within the next `within` (or has passed) and who were not reminded yet.
// It returns the number of reminders sent.
func (s *Service) SendDueReminders(ctx context.Context, within time.Duration) (int, error) {
	pending, err := s.Store.ListAssignments(ctx, AssignmentFilter{Status: AssignmentPending, ActiveOnly: true})
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(within)
	sent := 0
	for _, candidate := range pending {
		if candidate.ReminderSentAt != nil || candidate.ResponseDeadline.After(cutoff) {
			continue
		}
		err := s.transact(ctx, func(st Store, out *outbox) error {
			a, err := loadAssignment(ctx, st, candidate.ID)
			if err != nil {
				return err
			}
			if a.Status != AssignmentPending || !a.IsActive || a.ReminderSentAt != nil {
				return nil
			}
			project, err := loadProject(ctx, st, a.ProjectID)
			if err != nil {
				return err
			}
			now := s.now()
			a.ReminderSentAt = timePtr(now)
			a.UpdatedAt = now
			if err := st.UpdateAssignment(ctx, *a); err != nil {
				return err
			}
			msg := "Please accept or reject your assignment on \"" + project.Name + "\""
			if a.ResponseDeadline.Before(now) {
				msg += ". The response deadline has passed."
			} else {
				msg += " before " + a.ResponseDeadline.Format(time.RFC1123) + "."
			}
			out.add(Notification{
				UserID:      a.EmployeeID,
				Title:       "Assignment awaiting response",
				Message:     msg,
				Type:        NotifyAssignmentReminder,
				RelatedID:   a.ID,
				RelatedType: RelatedAssignment,
				Priority:    PriorityHigh,
			})
			sent++
			return nil
		})
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}
