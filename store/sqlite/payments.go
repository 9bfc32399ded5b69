package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/project-engine/ledger"
)

// =============================================================================
// PAYMENT STORE (ledger.PaymentStore interface)
// =============================================================================

var paymentFields = []string{
	"id", "employee_id", "project_id", "assignment_id", "amount", "currency", "payment_type",
	"request_status", "status", "employee_confirmation",
	"request_notes", "approval_notes", "rejection_reason", "confirmation_notes", "scheduled_date",
	"transaction_id", "transaction_proof_link", "proof_of_payment",
	"requested_at", "approved_at", "approved_by", "rejected_at", "rejected_by", "paid_at", "confirmed_at",
	"created_by", "created_at", "updated_at",
}

var paymentColumns = strings.Join(paymentFields, ", ")

func paymentValues(p ledger.Payment) []any {
	return []any{
		p.ID, p.EmployeeID, p.ProjectID, nullString(p.AssignmentID), p.Amount.String(), p.Currency, string(p.Type),
		string(p.RequestStatus), string(p.Status), p.EmployeeConfirmation,
		p.RequestNotes, p.ApprovalNotes, p.RejectionReason, p.ConfirmationNotes, nullTime(p.ScheduledDate),
		p.Proof.TransactionID, p.Proof.TransactionProofLink, p.Proof.ProofOfPayment,
		nullTime(p.RequestedAt), nullTime(p.ApprovedAt), p.ApprovedBy, nullTime(p.RejectedAt), p.RejectedBy, nullTime(p.PaidAt), nullTime(p.ConfirmedAt),
		p.CreatedBy, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	}
}

func (c *conn) CreatePayment(ctx context.Context, p ledger.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES (` + placeholders(len(paymentFields)) + `)`
	if _, err := c.q.ExecContext(ctx, query, paymentValues(p)...); err != nil {
		if isUniqueConstraintError(err) {
			return ledger.NewError(ledger.ErrConflict, "a payment already exists for this assignment")
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (c *conn) GetPayment(ctx context.Context, id string) (*ledger.Payment, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	return scanOptionalPayment(row)
}

func (c *conn) GetPaymentByAssignment(ctx context.Context, assignmentID string) (*ledger.Payment, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE assignment_id = ?`, assignmentID)
	return scanOptionalPayment(row)
}

// UpdatePayment rewrites every mutable column.
func (c *conn) UpdatePayment(ctx context.Context, p ledger.Payment) error {
	sets := make([]string, 0, len(paymentFields))
	args := make([]any, 0, len(paymentFields))
	values := paymentValues(p)
	for i, f := range paymentFields {
		if f == "id" || f == "created_at" {
			continue
		}
		sets = append(sets, f+" = ?")
		args = append(args, values[i])
	}
	args = append(args, p.ID)

	query := `UPDATE payments SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := c.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func (c *conn) ListPayments(ctx context.Context, filter ledger.PaymentFilter) ([]ledger.Payment, error) {
	var w where
	if filter.ProjectID != "" {
		w.add("project_id = ?", filter.ProjectID)
	}
	if filter.EmployeeID != "" {
		w.add("employee_id = ?", filter.EmployeeID)
	}
	if filter.ProjectIDs != nil {
		if len(filter.ProjectIDs) == 0 {
			return []ledger.Payment{}, nil
		}
		w.in("project_id", filter.ProjectIDs)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.in("request_status", statuses)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments` + w.String() + ` ORDER BY created_at DESC`
	rows, err := c.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []ledger.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanOptionalPayment(row rowScanner) (*ledger.Payment, error) {
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPayment(row rowScanner) (ledger.Payment, error) {
	var (
		p                                   ledger.Payment
		assignmentID                        sql.NullString
		amount, paymentType, requestStatus  string
		status                              string
		scheduled                           sql.NullString
		requestedAt, approvedAt, rejectedAt sql.NullString
		paidAt, confirmedAt                 sql.NullString
		createdAt, updatedAt                string
	)
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.ProjectID, &assignmentID, &amount, &p.Currency, &paymentType,
		&requestStatus, &status, &p.EmployeeConfirmation,
		&p.RequestNotes, &p.ApprovalNotes, &p.RejectionReason, &p.ConfirmationNotes, &scheduled,
		&p.Proof.TransactionID, &p.Proof.TransactionProofLink, &p.Proof.ProofOfPayment,
		&requestedAt, &approvedAt, &p.ApprovedBy, &rejectedAt, &p.RejectedBy, &paidAt, &confirmedAt,
		&p.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan payment: %w", err)
	}
	p.AssignmentID = assignmentID.String
	p.Amount = parseDecimal(amount)
	p.Type = ledger.PaymentType(paymentType)
	p.RequestStatus = ledger.RequestStatus(requestStatus)
	p.Status = ledger.PaymentStatus(status)
	p.ScheduledDate = parseNullTime(scheduled)
	p.RequestedAt = parseNullTime(requestedAt)
	p.ApprovedAt = parseNullTime(approvedAt)
	p.RejectedAt = parseNullTime(rejectedAt)
	p.PaidAt = parseNullTime(paidAt)
	p.ConfirmedAt = parseNullTime(confirmedAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}
