package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// AccountTotal carries an account with its aggregated movements.
type AccountTotal struct {
	Account model.Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// TotalsFilter narrows AccountTotals aggregation.
type TotalsFilter struct {
	FiscalYearID  int64
	Class         int    // 0 means all classes
	NumberPrefix  string // e.g. "52" for banks
	ValidatedOnly bool
}

// AccountTotals sums debits and credits per account over matching entries.
// Accounts with no movements are omitted.
func (s *Store) AccountTotals(ctx context.Context, f TotalsFilter) ([]AccountTotal, error) {
	q := `SELECT a.id, a.number, a.name, a.class, a.type, a.parent_id, a.active,
	             COALESCE(SUM(el.debit_cents), 0), COALESCE(SUM(el.credit_cents), 0)
	      FROM entry_lines el
	      JOIN accounts a ON a.id = el.account_id
	      JOIN entries e ON e.id = el.entry_id
	      WHERE 1=1`
	var args []any

	if f.FiscalYearID != 0 {
		q += ` AND e.fiscal_year_id = ?`
		args = append(args, f.FiscalYearID)
	}
	if f.Class != 0 {
		q += ` AND a.class = ?`
		args = append(args, f.Class)
	}
	if f.NumberPrefix != "" {
		q += ` AND a.number LIKE ?`
		args = append(args, f.NumberPrefix+"%")
	}
	if f.ValidatedOnly {
		q += ` AND e.status = ?`
		args = append(args, model.StatusValidated)
	}
	q += ` GROUP BY a.id ORDER BY a.number`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregating account totals: %w", err)
	}
	defer rows.Close()

	var out []AccountTotal
	for rows.Next() {
		var t AccountTotal
		var parent sql.NullInt64
		var debitCents, creditCents int64
		if err := rows.Scan(&t.Account.ID, &t.Account.Number, &t.Account.Name,
			&t.Account.Class, &t.Account.Type, &parent, &t.Account.Active,
			&debitCents, &creditCents); err != nil {
			return nil, fmt.Errorf("scanning account total: %w", err)
		}
		t.Account.ParentID = scanID(parent)
		t.Debit = fromCents(debitCents)
		t.Credit = fromCents(creditCents)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ClassTotals sums debits and credits of one account class for a fiscal year.
func (s *Store) ClassTotals(ctx context.Context, fiscalYearID int64, class int, validatedOnly bool) (debit, credit decimal.Decimal, err error) {
	q := `SELECT COALESCE(SUM(el.debit_cents), 0), COALESCE(SUM(el.credit_cents), 0)
	      FROM entry_lines el
	      JOIN accounts a ON a.id = el.account_id
	      JOIN entries e ON e.id = el.entry_id
	      WHERE e.fiscal_year_id = ? AND a.class = ?`
	args := []any{fiscalYearID, class}
	if validatedOnly {
		q += ` AND e.status = ?`
		args = append(args, model.StatusValidated)
	}

	var debitCents, creditCents int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&debitCents, &creditCents); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("summing class %d: %w", class, err)
	}
	return fromCents(debitCents), fromCents(creditCents), nil
}

// RealizedByBudgetLine returns actual expense per budget line of a project:
// expense-account debits tagged directly on lines plus allocation shares.
func (s *Store) RealizedByBudgetLine(ctx context.Context, projectID int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal)

	rows, err := s.db.QueryContext(ctx,
		`SELECT el.budget_line_id, COALESCE(SUM(el.debit_cents), 0)
		 FROM entry_lines el
		 JOIN accounts a ON a.id = el.account_id
		 WHERE el.project_id = ? AND el.budget_line_id IS NOT NULL AND a.class = ?
		 GROUP BY el.budget_line_id`, projectID, model.ClassExpense)
	if err != nil {
		return nil, fmt.Errorf("summing realized spend: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lineID, cents int64
		if err := rows.Scan(&lineID, &cents); err != nil {
			return nil, fmt.Errorf("scanning realized spend: %w", err)
		}
		out[lineID] = fromCents(cents)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT al.budget_line_id, COALESCE(SUM(al.amount_cents), 0)
		 FROM allocations al
		 JOIN entry_lines el ON el.id = al.entry_line_id
		 JOIN accounts a ON a.id = el.account_id
		 WHERE al.project_id = ? AND al.budget_line_id IS NOT NULL AND a.class = ?
		 GROUP BY al.budget_line_id`, projectID, model.ClassExpense)
	if err != nil {
		return nil, fmt.Errorf("summing allocated spend: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lineID, cents int64
		if err := rows.Scan(&lineID, &cents); err != nil {
			return nil, fmt.Errorf("scanning allocated spend: %w", err)
		}
		out[lineID] = out[lineID].Add(fromCents(cents))
	}
	return out, rows.Err()
}

// RealizedForProject returns total actual expense of one project.
func (s *Store) RealizedForProject(ctx context.Context, projectID int64) (decimal.Decimal, error) {
	byLine, err := s.RealizedByBudgetLine(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, amt := range byLine {
		total = total.Add(amt)
	}

	// Expenses tagged with the project but no budget line still count
	// toward the project total.
	var cents int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(el.debit_cents), 0)
		 FROM entry_lines el
		 JOIN accounts a ON a.id = el.account_id
		 WHERE el.project_id = ? AND el.budget_line_id IS NULL AND a.class = ?`,
		projectID, model.ClassExpense).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing untagged project spend: %w", err)
	}
	return total.Add(fromCents(cents)), nil
}

// AllocatedExpenseTotal sums the expense amounts attributed to any project
// for a fiscal year, via direct tags or allocation splits.
func (s *Store) AllocatedExpenseTotal(ctx context.Context, fiscalYearID int64) (decimal.Decimal, error) {
	var direct, split int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(el.debit_cents), 0)
		 FROM entry_lines el
		 JOIN accounts a ON a.id = el.account_id
		 JOIN entries e ON e.id = el.entry_id
		 WHERE e.fiscal_year_id = ? AND a.class = ? AND el.project_id IS NOT NULL`,
		fiscalYearID, model.ClassExpense).Scan(&direct)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing tagged expenses: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(al.amount_cents), 0)
		 FROM allocations al
		 JOIN entry_lines el ON el.id = al.entry_line_id
		 JOIN accounts a ON a.id = el.account_id
		 JOIN entries e ON e.id = el.entry_id
		 WHERE e.fiscal_year_id = ? AND a.class = ? AND el.project_id IS NULL`,
		fiscalYearID, model.ClassExpense).Scan(&split)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing split expenses: %w", err)
	}
	return fromCents(direct + split), nil
}
