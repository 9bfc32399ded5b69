/*
Package sqlite provides a SQLite-backed implementation of the ledger storage interfaces.

PURPOSE:
  Implements ledger.TxStore using database/sql and mattn/go-sqlite3. In
  production the same patterns apply to PostgreSQL with minor dialect changes.

KEY TABLES:
  users:            Accounts with running earnings totals
  project_earnings: Append-only log of confirmed payments
  projects:         Budgets and cost tracking
  assignments:      Employee-to-project links
  payments:         Payment workflow rows
  notifications:    Per-user inbox

CONSTRAINTS:
  - idx_assignments_active_pair: at most one active assignment per
    (project, employee). Inactive rows are ignored, so re-assignment after
    removal works.
  - idx_payments_assignment: at most one payment per assignment.

MONEY AND TIME:
  Decimals are stored as TEXT (exact). Timestamps are fixed-width UTC TEXT so
  lexical order equals chronological order.

CONCURRENCY:
  The pool is limited to one connection. Writers are serialized by SQLite
  itself and ":memory:" databases stay on a single connection. Inside WithTx
  every call must go through the Store passed to fn.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := ledger.NewService(store, dispatcher)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/project-engine/ledger"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements ledger.Store over a querier.
type conn struct {
	q querier
}

// Store implements ledger.TxStore using SQLite.
type Store struct {
	conn
	db *sql.DB
}

var _ ledger.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{conn: conn{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		total_earnings TEXT NOT NULL DEFAULT '0',
		pending_earnings TEXT NOT NULL DEFAULT '0',
		completed_projects_count INTEGER NOT NULL DEFAULT 0,
		last_payment_date TEXT,
		last_payment_amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

	-- Append-only: no UPDATE or DELETE statements are issued on this table
	CREATE TABLE IF NOT EXISTS project_earnings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		project_id TEXT NOT NULL,
		payment_id TEXT NOT NULL UNIQUE,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		confirmed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_project_earnings_user
		ON project_earnings(user_id, confirmed_at);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL,
		budget TEXT NOT NULL,
		allocated_amount TEXT NOT NULL DEFAULT '0',
		spent_amount TEXT NOT NULL DEFAULT '0',
		rate TEXT NOT NULL DEFAULT '0',
		estimated_hours TEXT NOT NULL DEFAULT '0',
		actual_hours TEXT NOT NULL DEFAULT '0',
		estimated_consumables TEXT NOT NULL DEFAULT '0',
		actual_consumables TEXT NOT NULL DEFAULT '0',
		estimated_materials TEXT NOT NULL DEFAULT '0',
		actual_materials TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_created_by ON projects(created_by);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		employee_id TEXT NOT NULL REFERENCES users(id),
		assigned_by TEXT NOT NULL,
		allocated_amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT '',
		terms TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		work_status TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		response_deadline TEXT NOT NULL,
		rejection_reason TEXT NOT NULL DEFAULT '',
		submission_notes TEXT NOT NULL DEFAULT '',
		deliverables_json TEXT,
		verification_notes TEXT NOT NULL DEFAULT '',
		feedback TEXT NOT NULL DEFAULT '',
		work_verified_by TEXT NOT NULL DEFAULT '',
		work_rejection_reason TEXT NOT NULL DEFAULT '',
		revision_notes TEXT NOT NULL DEFAULT '',
		revision_deadline TEXT,
		accepted_at TEXT,
		rejected_at TEXT,
		work_started_at TEXT,
		work_submitted_at TEXT,
		work_verified_at TEXT,
		work_rejected_at TEXT,
		revision_requested_at TEXT,
		removed_at TEXT,
		reminder_sent_at TEXT,
		rate TEXT NOT NULL DEFAULT '0',
		estimated_hours TEXT NOT NULL DEFAULT '0',
		actual_hours TEXT NOT NULL DEFAULT '0',
		estimated_consumables TEXT NOT NULL DEFAULT '0',
		actual_consumables TEXT NOT NULL DEFAULT '0',
		estimated_materials TEXT NOT NULL DEFAULT '0',
		actual_materials TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: one active assignment per (project, employee)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_active_pair
		ON assignments(project_id, employee_id)
		WHERE is_active = 1;

	CREATE INDEX IF NOT EXISTS idx_assignments_employee
		ON assignments(employee_id, is_active);
	CREATE INDEX IF NOT EXISTS idx_assignments_status
		ON assignments(status, is_active);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES users(id),
		project_id TEXT NOT NULL REFERENCES projects(id),
		assignment_id TEXT,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		request_status TEXT NOT NULL,
		status TEXT NOT NULL,
		employee_confirmation BOOLEAN NOT NULL DEFAULT FALSE,
		request_notes TEXT NOT NULL DEFAULT '',
		approval_notes TEXT NOT NULL DEFAULT '',
		rejection_reason TEXT NOT NULL DEFAULT '',
		confirmation_notes TEXT NOT NULL DEFAULT '',
		scheduled_date TEXT,
		transaction_id TEXT NOT NULL DEFAULT '',
		transaction_proof_link TEXT NOT NULL DEFAULT '',
		proof_of_payment TEXT NOT NULL DEFAULT '',
		requested_at TEXT,
		approved_at TEXT,
		approved_by TEXT NOT NULL DEFAULT '',
		rejected_at TEXT,
		rejected_by TEXT NOT NULL DEFAULT '',
		paid_at TEXT,
		confirmed_at TEXT,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One payment per assignment, regardless of outcome
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_assignment
		ON payments(assignment_id)
		WHERE assignment_id IS NOT NULL;

	CREATE INDEX IF NOT EXISTS idx_payments_project ON payments(project_id);
	CREATE INDEX IF NOT EXISTS idx_payments_employee ON payments(employee_id);

	-- related_id is a lookup reference only, never a foreign key
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		related_id TEXT NOT NULL DEFAULT '',
		related_type TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user
		ON notifications(user_id, is_read, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&conn{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reset deletes all data. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	// Children first so foreign keys hold.
	for _, table := range []string{"notifications", "project_earnings", "payments", "assignments", "projects", "users"} {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// parseDecimal returns zero for empty or malformed values.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// where accumulates AND-ed conditions.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) in(column string, values []string) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	w.add(column+" IN ("+placeholders(len(values))+")", args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
