package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/project-engine/ledger"
)

// =============================================================================
// PROJECT STORE (ledger.ProjectStore interface)
// =============================================================================

const projectColumns = `id, name, description, currency, budget, allocated_amount, spent_amount,
	rate, estimated_hours, actual_hours, estimated_consumables, actual_consumables,
	estimated_materials, actual_materials, status, created_by, created_at, updated_at`

func (c *conn) CreateProject(ctx context.Context, p ledger.Project) error {
	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := c.q.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Currency,
		p.Budget.String(),
		p.AllocatedAmount.String(),
		p.SpentAmount.String(),
		p.Rate.String(),
		p.EstimatedHours.String(),
		p.ActualHours.String(),
		p.EstimatedConsumables.String(),
		p.ActualConsumables.String(),
		p.EstimatedMaterials.String(),
		p.ActualMaterials.String(),
		string(p.Status),
		p.CreatedBy,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (c *conn) GetProject(ctx context.Context, id string) (*ledger.Project, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *conn) UpdateProject(ctx context.Context, p ledger.Project) error {
	query := `
		UPDATE projects SET
			name = ?, description = ?, currency = ?, budget = ?, allocated_amount = ?, spent_amount = ?,
			rate = ?, estimated_hours = ?, actual_hours = ?, estimated_consumables = ?,
			actual_consumables = ?, estimated_materials = ?, actual_materials = ?,
			status = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := c.q.ExecContext(ctx, query,
		p.Name,
		p.Description,
		p.Currency,
		p.Budget.String(),
		p.AllocatedAmount.String(),
		p.SpentAmount.String(),
		p.Rate.String(),
		p.EstimatedHours.String(),
		p.ActualHours.String(),
		p.EstimatedConsumables.String(),
		p.ActualConsumables.String(),
		p.EstimatedMaterials.String(),
		p.ActualMaterials.String(),
		string(p.Status),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

func (c *conn) ListProjects(ctx context.Context, filter ledger.ProjectFilter) ([]ledger.Project, error) {
	var w where
	if filter.CreatedBy != "" {
		w.add("created_by = ?", filter.CreatedBy)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []ledger.Project{}, nil
		}
		w.in("id", filter.IDs)
	}

	rows, err := c.q.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects`+w.String()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []ledger.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(row rowScanner) (ledger.Project, error) {
	var (
		p                              ledger.Project
		budget, allocated, spent       string
		rate, estHours, actHours       string
		estConsumables, actConsumables string
		estMaterials, actMaterials     string
		status, createdAt, updatedAt   string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Currency, &budget, &allocated, &spent,
		&rate, &estHours, &actHours, &estConsumables, &actConsumables,
		&estMaterials, &actMaterials, &status, &p.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan project: %w", err)
	}
	p.Budget = parseDecimal(budget)
	p.AllocatedAmount = parseDecimal(allocated)
	p.SpentAmount = parseDecimal(spent)
	p.Tracking = ledger.Tracking{
		Rate:                 parseDecimal(rate),
		EstimatedHours:       parseDecimal(estHours),
		ActualHours:          parseDecimal(actHours),
		EstimatedConsumables: parseDecimal(estConsumables),
		ActualConsumables:    parseDecimal(actConsumables),
		EstimatedMaterials:   parseDecimal(estMaterials),
		ActualMaterials:      parseDecimal(actMaterials),
	}
	p.Status = ledger.ProjectStatus(status)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}
