package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/project-engine/ledger"
)

// =============================================================================
// USER STORE (ledger.UserStore interface)
// =============================================================================

const userColumns = `id, name, email, role, total_earnings, pending_earnings,
	completed_projects_count, last_payment_date, last_payment_amount, created_at`

func (c *conn) CreateUser(ctx context.Context, u ledger.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := c.q.ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		string(u.Role),
		u.TotalEarnings.String(),
		u.PendingEarnings.String(),
		u.CompletedProjectsCount,
		nullTime(u.LastPaymentDate),
		u.LastPaymentAmount.String(),
		formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.NewError(ledger.ErrConflict, "a user with email %q already exists", u.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (c *conn) GetUser(ctx context.Context, id string) (*ledger.User, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *conn) UpdateUser(ctx context.Context, u ledger.User) error {
	query := `
		UPDATE users SET
			name = ?, email = ?, role = ?, total_earnings = ?, pending_earnings = ?,
			completed_projects_count = ?, last_payment_date = ?, last_payment_amount = ?
		WHERE id = ?
	`
	_, err := c.q.ExecContext(ctx, query,
		u.Name,
		u.Email,
		string(u.Role),
		u.TotalEarnings.String(),
		u.PendingEarnings.String(),
		u.CompletedProjectsCount,
		nullTime(u.LastPaymentDate),
		u.LastPaymentAmount.String(),
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (c *conn) ListUsers(ctx context.Context, role ledger.Role) ([]ledger.User, error) {
	var w where
	if role != "" {
		w.add("role = ?", string(role))
	}
	rows, err := c.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY name ASC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []ledger.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (ledger.User, error) {
	var (
		u               ledger.User
		role            string
		total, pending  string
		lastPaymentDate sql.NullString
		lastAmount      string
		createdAt       string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &role, &total, &pending,
		&u.CompletedProjectsCount, &lastPaymentDate, &lastAmount, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, err
		}
		return u, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Role = ledger.Role(role)
	u.TotalEarnings = parseDecimal(total)
	u.PendingEarnings = parseDecimal(pending)
	u.LastPaymentDate = parseNullTime(lastPaymentDate)
	u.LastPaymentAmount = parseDecimal(lastAmount)
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

// =============================================================================
// PROJECT EARNINGS (append-only)
// =============================================================================

func (c *conn) AppendProjectEarning(ctx context.Context, e ledger.ProjectEarning) error {
	query := `
		INSERT INTO project_earnings (id, user_id, project_id, payment_id, amount, currency, confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.q.ExecContext(ctx, query,
		e.ID, e.UserID, e.ProjectID, e.PaymentID,
		e.Amount.String(), e.Currency, formatTime(e.ConfirmedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.NewError(ledger.ErrConflict, "earning already recorded for payment %s", e.PaymentID)
		}
		return fmt.Errorf("failed to append project earning: %w", err)
	}
	return nil
}

func (c *conn) ListProjectEarnings(ctx context.Context, userID string) ([]ledger.ProjectEarning, error) {
	query := `
		SELECT id, user_id, project_id, payment_id, amount, currency, confirmed_at
		FROM project_earnings
		WHERE user_id = ?
		ORDER BY confirmed_at ASC
	`
	rows, err := c.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project earnings: %w", err)
	}
	defer rows.Close()

	earnings := []ledger.ProjectEarning{}
	for rows.Next() {
		var (
			e           ledger.ProjectEarning
			amount      string
			confirmedAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.PaymentID, &amount, &e.Currency, &confirmedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project earning: %w", err)
		}
		e.Amount = parseDecimal(amount)
		e.ConfirmedAt = parseTime(confirmedAt)
		earnings = append(earnings, e)
	}
	return earnings, rows.Err()
}
