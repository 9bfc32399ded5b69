package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/project-engine/ledger"
)

// =============================================================================
// ASSIGNMENT STORE (ledger.AssignmentStore interface)
// =============================================================================

var assignmentFields = []string{
	"id", "project_id", "employee_id", "assigned_by", "allocated_amount", "currency", "role", "terms",
	"status", "work_status", "is_active", "response_deadline",
	"rejection_reason", "submission_notes", "deliverables_json", "verification_notes", "feedback",
	"work_verified_by", "work_rejection_reason", "revision_notes", "revision_deadline",
	"accepted_at", "rejected_at", "work_started_at", "work_submitted_at", "work_verified_at",
	"work_rejected_at", "revision_requested_at", "removed_at", "reminder_sent_at",
	"rate", "estimated_hours", "actual_hours", "estimated_consumables", "actual_consumables",
	"estimated_materials", "actual_materials",
	"created_at", "updated_at",
}

var assignmentColumns = strings.Join(assignmentFields, ", ")

// assignmentValues returns the values in assignmentFields order.
func assignmentValues(a ledger.Assignment) []any {
	var deliverables sql.NullString
	if len(a.Deliverables) > 0 {
		raw, _ := json.Marshal(a.Deliverables)
		deliverables = sql.NullString{String: string(raw), Valid: true}
	}
	return []any{
		a.ID, a.ProjectID, a.EmployeeID, a.AssignedBy, a.AllocatedAmount.String(), a.Currency, a.Role, a.Terms,
		string(a.Status), string(a.WorkStatus), a.IsActive, formatTime(a.ResponseDeadline),
		a.RejectionReason, a.SubmissionNotes, deliverables, a.VerificationNotes, a.Feedback,
		a.WorkVerifiedBy, a.WorkRejectionReason, a.RevisionNotes, nullTime(a.RevisionDeadline),
		nullTime(a.AcceptedAt), nullTime(a.RejectedAt), nullTime(a.WorkStartedAt), nullTime(a.WorkSubmittedAt), nullTime(a.WorkVerifiedAt),
		nullTime(a.WorkRejectedAt), nullTime(a.RevisionRequestedAt), nullTime(a.RemovedAt), nullTime(a.ReminderSentAt),
		a.Rate.String(), a.EstimatedHours.String(), a.ActualHours.String(), a.EstimatedConsumables.String(), a.ActualConsumables.String(),
		a.EstimatedMaterials.String(), a.ActualMaterials.String(),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	}
}

func (c *conn) CreateAssignment(ctx context.Context, a ledger.Assignment) error {
	query := `INSERT INTO assignments (` + assignmentColumns + `) VALUES (` + placeholders(len(assignmentFields)) + `)`
	if _, err := c.q.ExecContext(ctx, query, assignmentValues(a)...); err != nil {
		if isUniqueConstraintError(err) {
			return ledger.NewError(ledger.ErrConflict, "employee already has an active assignment on this project")
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (c *conn) GetAssignment(ctx context.Context, id string) (*ledger.Assignment, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	return scanOptionalAssignment(row)
}

// UpdateAssignment rewrites every mutable column. id and created_at are kept.
func (c *conn) UpdateAssignment(ctx context.Context, a ledger.Assignment) error {
	sets := make([]string, 0, len(assignmentFields))
	args := make([]any, 0, len(assignmentFields))
	values := assignmentValues(a)
	for i, f := range assignmentFields {
		if f == "id" || f == "created_at" {
			continue
		}
		sets = append(sets, f+" = ?")
		args = append(args, values[i])
	}
	args = append(args, a.ID)

	query := `UPDATE assignments SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := c.q.ExecContext(ctx, query, args...); err != nil {
		if isUniqueConstraintError(err) {
			return ledger.NewError(ledger.ErrConflict, "employee already has an active assignment on this project")
		}
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return nil
}

func (c *conn) ListAssignments(ctx context.Context, filter ledger.AssignmentFilter) ([]ledger.Assignment, error) {
	var w where
	if filter.ProjectID != "" {
		w.add("project_id = ?", filter.ProjectID)
	}
	if filter.EmployeeID != "" {
		w.add("employee_id = ?", filter.EmployeeID)
	}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	if filter.ActiveOnly {
		w.add("is_active = 1")
	}

	query := `SELECT ` + assignmentColumns + ` FROM assignments` + w.String() + ` ORDER BY created_at ASC`
	rows, err := c.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	assignments := []ledger.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (c *conn) FindActiveAssignment(ctx context.Context, projectID, employeeID string) (*ledger.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments
		WHERE project_id = ? AND employee_id = ? AND is_active = 1`
	row := c.q.QueryRowContext(ctx, query, projectID, employeeID)
	return scanOptionalAssignment(row)
}

func scanOptionalAssignment(row rowScanner) (*ledger.Assignment, error) {
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAssignment(row rowScanner) (ledger.Assignment, error) {
	var (
		a                                       ledger.Assignment
		allocated, status, workStatus, deadline string
		deliverables                            sql.NullString
		revisionDeadline                        sql.NullString
		acceptedAt, rejectedAt, startedAt       sql.NullString
		submittedAt, verifiedAt, workRejectedAt sql.NullString
		revisionAt, removedAt, reminderAt       sql.NullString
		rate, estHours, actHours                string
		estConsumables, actConsumables          string
		estMaterials, actMaterials              string
		createdAt, updatedAt                    string
	)
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.EmployeeID, &a.AssignedBy, &allocated, &a.Currency, &a.Role, &a.Terms,
		&status, &workStatus, &a.IsActive, &deadline,
		&a.RejectionReason, &a.SubmissionNotes, &deliverables, &a.VerificationNotes, &a.Feedback,
		&a.WorkVerifiedBy, &a.WorkRejectionReason, &a.RevisionNotes, &revisionDeadline,
		&acceptedAt, &rejectedAt, &startedAt, &submittedAt, &verifiedAt,
		&workRejectedAt, &revisionAt, &removedAt, &reminderAt,
		&rate, &estHours, &actHours, &estConsumables, &actConsumables,
		&estMaterials, &actMaterials,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("failed to scan assignment: %w", err)
	}

	a.AllocatedAmount = parseDecimal(allocated)
	a.Status = ledger.AssignmentStatus(status)
	a.WorkStatus = ledger.WorkStatus(workStatus)
	a.ResponseDeadline = parseTime(deadline)
	if deliverables.Valid && deliverables.String != "" {
		if err := json.Unmarshal([]byte(deliverables.String), &a.Deliverables); err != nil {
			return a, fmt.Errorf("failed to decode deliverables: %w", err)
		}
	}
	a.RevisionDeadline = parseNullTime(revisionDeadline)
	a.AcceptedAt = parseNullTime(acceptedAt)
	a.RejectedAt = parseNullTime(rejectedAt)
	a.WorkStartedAt = parseNullTime(startedAt)
	a.WorkSubmittedAt = parseNullTime(submittedAt)
	a.WorkVerifiedAt = parseNullTime(verifiedAt)
	a.WorkRejectedAt = parseNullTime(workRejectedAt)
	a.RevisionRequestedAt = parseNullTime(revisionAt)
	a.RemovedAt = parseNullTime(removedAt)
	a.ReminderSentAt = parseNullTime(reminderAt)
	a.Tracking = ledger.Tracking{
		Rate:                 parseDecimal(rate),
		EstimatedHours:       parseDecimal(estHours),
		ActualHours:          parseDecimal(actHours),
		EstimatedConsumables: parseDecimal(estConsumables),
		ActualConsumables:    parseDecimal(actConsumables),
		EstimatedMaterials:   parseDecimal(estMaterials),
		ActualMaterials:      parseDecimal(actMaterials),
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}
