package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ongbook-dev/ongbook/internal/model"
)

const projectCols = `id, code, name, description, donor_id, start_date, end_date, total_budget_cents, currency_id, status`

// CreateProject inserts a project and sets its ID.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (code, name, description, donor_id, start_date, end_date, total_budget_cents, currency_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Code, p.Name, p.Description, nullID(p.DonorID), nullTime(p.StartDate), nullTime(p.EndDate),
		toCents(p.TotalBudget), nullID(p.CurrencyID), p.Status,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", p.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdateProject rewrites a project.
func (s *Store) UpdateProject(ctx context.Context, p *model.Project) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET code = ?, name = ?, description = ?, donor_id = ?, start_date = ?, end_date = ?,
		        total_budget_cents = ?, currency_id = ?, status = ?
		 WHERE id = ?`,
		p.Code, p.Name, p.Description, nullID(p.DonorID), nullTime(p.StartDate), nullTime(p.EndDate),
		toCents(p.TotalBudget), nullID(p.CurrencyID), p.Status, p.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", p.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProject returns a project by ID.
func (s *Store) GetProject(ctx context.Context, id int64) (model.Project, error) {
	return scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectCols+` FROM projects WHERE id = ?`, id))
}

// GetProjectByCode returns a project by its short code.
func (s *Store) GetProjectByCode(ctx context.Context, code string) (model.Project, error) {
	return scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectCols+` FROM projects WHERE code = ?`, code))
}

// ListProjects returns projects ordered by code, optionally filtered by status.
func (s *Store) ListProjects(ctx context.Context, status model.ProjectStatus) ([]model.Project, error) {
	q := `SELECT ` + projectCols + ` FROM projects`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY code`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProject(row rowScanner) (model.Project, error) {
	var p model.Project
	var donor, currency sql.NullInt64
	var start, end sql.NullTime
	var budgetCents int64
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &donor, &start, &end,
		&budgetCents, &currency, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("scanning project: %w", err)
	}
	p.DonorID = scanID(donor)
	p.CurrencyID = scanID(currency)
	if start.Valid {
		p.StartDate = start.Time
	}
	if end.Valid {
		p.EndDate = end.Time
	}
	p.TotalBudget = fromCents(budgetCents)
	return p, nil
}
