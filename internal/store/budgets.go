package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

const budgetLineCols = `id, project_id, category_id, code, name, year, quantity, unit, unit_cost_cents, planned_cents`

// CreateBudgetCategory inserts a category and sets its ID.
func (s *Store) CreateBudgetCategory(ctx context.Context, c *model.BudgetCategory) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_categories (code, name, rank) VALUES (?, ?, ?)`,
		c.Code, c.Name, c.Rank,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("budget category %s: %w", c.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting budget category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// ListBudgetCategories returns categories in report order.
func (s *Store) ListBudgetCategories(ctx context.Context) ([]model.BudgetCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, rank FROM budget_categories ORDER BY rank, code`)
	if err != nil {
		return nil, fmt.Errorf("listing budget categories: %w", err)
	}
	defer rows.Close()

	var out []model.BudgetCategory
	for rows.Next() {
		var c model.BudgetCategory
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Rank); err != nil {
			return nil, fmt.Errorf("scanning budget category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateBudgetLine inserts a budget line and sets its ID.
func (s *Store) CreateBudgetLine(ctx context.Context, l *model.BudgetLine) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_lines (project_id, category_id, code, name, year, quantity, unit, unit_cost_cents, planned_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ProjectID, nullID(l.CategoryID), l.Code, l.Name, nullableInt(l.Year),
		l.Quantity.String(), l.Unit, toCents(l.UnitCost), toCents(l.PlannedAmount),
	)
	if err != nil {
		return fmt.Errorf("inserting budget line: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}

// UpdateBudgetLine rewrites a budget line.
func (s *Store) UpdateBudgetLine(ctx context.Context, l *model.BudgetLine) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budget_lines SET category_id = ?, code = ?, name = ?, year = ?, quantity = ?, unit = ?,
		        unit_cost_cents = ?, planned_cents = ?
		 WHERE id = ?`,
		nullID(l.CategoryID), l.Code, l.Name, nullableInt(l.Year),
		l.Quantity.String(), l.Unit, toCents(l.UnitCost), toCents(l.PlannedAmount), l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating budget line: %w", err)
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

// DeleteBudgetLine removes a budget line. Refused once entry lines reference it.
func (s *Store) DeleteBudgetLine(ctx context.Context, id int64) error {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entry_lines WHERE budget_line_id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("counting budget line references: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("budget line has %d entry lines: %w", n, ErrInUse)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM budget_lines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting budget line: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PlannedForProject sums the planned amounts of a project's budget lines.
func (s *Store) PlannedForProject(ctx context.Context, projectID int64) (decimal.Decimal, error) {
	var cents int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(planned_cents), 0) FROM budget_lines WHERE project_id = ?`,
		projectID).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing planned budget: %w", err)
	}
	return fromCents(cents), nil
}

// GetBudgetLine returns a budget line by ID.
func (s *Store) GetBudgetLine(ctx context.Context, id int64) (model.BudgetLine, error) {
	return scanBudgetLine(s.db.QueryRowContext(ctx,
		`SELECT `+budgetLineCols+` FROM budget_lines WHERE id = ?`, id))
}

// ListBudgetLines returns a project's budget lines ordered by category then code.
func (s *Store) ListBudgetLines(ctx context.Context, projectID int64) ([]model.BudgetLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetLineCols+` FROM budget_lines WHERE project_id = ? ORDER BY category_id, code`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("listing budget lines: %w", err)
	}
	defer rows.Close()

	var out []model.BudgetLine
	for rows.Next() {
		l, err := scanBudgetLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanBudgetLine(row rowScanner) (model.BudgetLine, error) {
	var l model.BudgetLine
	var category sql.NullInt64
	var year sql.NullInt64
	var quantity string
	var unitCostCents, plannedCents int64
	err := row.Scan(&l.ID, &l.ProjectID, &category, &l.Code, &l.Name, &year,
		&quantity, &l.Unit, &unitCostCents, &plannedCents)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	if err != nil {
		return l, fmt.Errorf("scanning budget line: %w", err)
	}
	l.CategoryID = scanID(category)
	l.Year = int(scanID(year))
	l.Quantity, err = decimal.NewFromString(quantity)
	if err != nil {
		return l, fmt.Errorf("parsing quantity %q: %w", quantity, err)
	}
	l.UnitCost = fromCents(unitCostCents)
	l.PlannedAmount = fromCents(plannedCents)
	return l, nil
}

// nullableInt maps 0 to NULL for optional integer columns.
func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
