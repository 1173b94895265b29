package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

const entryCols = `id, number, date, journal_id, fiscal_year_id, label, reference, currency_id, exchange_rate, status, created_at`

// EntryFilter narrows ListEntries results.
type EntryFilter struct {
	FiscalYearID int64
	JournalID    int64
	ProjectID    int64
	Status       model.EntryStatus
	From, To     time.Time
	Search       string // matches label, reference or number
	Limit        int
	Offset       int
}

// CreateEntry inserts an entry with its lines and allocations in one
// transaction and sets all generated IDs.
func (s *Store) CreateEntry(ctx context.Context, e *model.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (number, date, journal_id, fiscal_year_id, label, reference, currency_id, exchange_rate, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Number, e.Date, e.JournalID, e.FiscalYearID, e.Label, e.Reference,
		nullID(e.CurrencyID), e.ExchangeRate.String(), e.Status, e.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("entry %s: %w", e.Number, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	if err := insertLines(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateEntry rewrites an entry header and replaces all its lines.
func (s *Store) UpdateEntry(ctx context.Context, e *model.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE entries SET date = ?, journal_id = ?, fiscal_year_id = ?, label = ?, reference = ?,
		        currency_id = ?, exchange_rate = ?
		 WHERE id = ?`,
		e.Date, e.JournalID, e.FiscalYearID, e.Label, e.Reference,
		nullID(e.CurrencyID), e.ExchangeRate.String(), e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	// Replace lines wholesale; allocations cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_lines WHERE entry_id = ?`, e.ID); err != nil {
		return fmt.Errorf("clearing entry lines: %w", err)
	}
	if err := insertLines(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

func insertLines(ctx context.Context, tx *sql.Tx, e *model.Entry) error {
	for i := range e.Lines {
		l := &e.Lines[i]
		l.EntryID = e.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO entry_lines (entry_id, account_id, project_id, budget_line_id, label, debit_cents, credit_cents)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.EntryID, l.AccountID, nullID(l.ProjectID), nullID(l.BudgetLineID),
			l.Label, toCents(l.Debit), toCents(l.Credit),
		)
		if err != nil {
			return fmt.Errorf("inserting entry line: %w", err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		for j := range l.Allocations {
			a := &l.Allocations[j]
			a.EntryLineID = l.ID
			res, err := tx.ExecContext(ctx,
				`INSERT INTO allocations (entry_line_id, project_id, budget_line_id, percent, amount_cents)
				 VALUES (?, ?, ?, ?, ?)`,
				a.EntryLineID, a.ProjectID, nullID(a.BudgetLineID), a.Percent.String(), toCents(a.Amount),
			)
			if err != nil {
				return fmt.Errorf("inserting allocation: %w", err)
			}
			if a.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteEntry removes an entry; lines and allocations cascade.
func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
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

// GetEntry returns an entry with its lines and allocations.
func (s *Store) GetEntry(ctx context.Context, id int64) (model.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryCols+` FROM entries WHERE id = ?`, id))
	if err != nil {
		return e, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry_id, account_id, project_id, budget_line_id, label, debit_cents, credit_cents
		 FROM entry_lines WHERE entry_id = ? ORDER BY id`, id)
	if err != nil {
		return e, fmt.Errorf("loading entry lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.EntryLine
		var project, budgetLine sql.NullInt64
		var debitCents, creditCents int64
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &project, &budgetLine,
			&l.Label, &debitCents, &creditCents); err != nil {
			return e, fmt.Errorf("scanning entry line: %w", err)
		}
		l.ProjectID = scanID(project)
		l.BudgetLineID = scanID(budgetLine)
		l.Debit = fromCents(debitCents)
		l.Credit = fromCents(creditCents)
		e.Lines = append(e.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return e, err
	}

	for i := range e.Lines {
		if err := s.loadAllocations(ctx, &e.Lines[i]); err != nil {
			return e, err
		}
	}
	return e, nil
}

func (s *Store) loadAllocations(ctx context.Context, l *model.EntryLine) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry_line_id, project_id, budget_line_id, percent, amount_cents
		 FROM allocations WHERE entry_line_id = ? ORDER BY id`, l.ID)
	if err != nil {
		return fmt.Errorf("loading allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Allocation
		var budgetLine sql.NullInt64
		var percent string
		var amountCents int64
		if err := rows.Scan(&a.ID, &a.EntryLineID, &a.ProjectID, &budgetLine, &percent, &amountCents); err != nil {
			return fmt.Errorf("scanning allocation: %w", err)
		}
		a.BudgetLineID = scanID(budgetLine)
		if a.Percent, err = decimal.NewFromString(percent); err != nil {
			return fmt.Errorf("parsing allocation percent %q: %w", percent, err)
		}
		a.Amount = fromCents(amountCents)
		l.Allocations = append(l.Allocations, a)
	}
	return rows.Err()
}

// ListEntries returns entry headers matching the filter, newest first.
func (s *Store) ListEntries(ctx context.Context, f EntryFilter) ([]model.Entry, error) {
	q := `SELECT ` + entryCols + ` FROM entries WHERE 1=1`
	var args []any

	if f.FiscalYearID != 0 {
		q += ` AND fiscal_year_id = ?`
		args = append(args, f.FiscalYearID)
	}
	if f.JournalID != 0 {
		q += ` AND journal_id = ?`
		args = append(args, f.JournalID)
	}
	if f.ProjectID != 0 {
		q += ` AND EXISTS (SELECT 1 FROM entry_lines el WHERE el.entry_id = entries.id AND el.project_id = ?)`
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		q += ` AND date >= ?`
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		q += ` AND date <= ?`
		args = append(args, f.To)
	}
	if f.Search != "" {
		q += ` AND (label LIKE ? OR reference LIKE ? OR number LIKE ?)`
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	q += ` ORDER BY date DESC, number DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetEntryStatus flips an entry between draft and validated.
func (s *Store) SetEntryStatus(ctx context.Context, id int64, status model.EntryStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE entries SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("setting entry status: %w", err)
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

// MaxEntryNumber returns the highest entry number with the given prefix,
// or "" when none exists.
func (s *Store) MaxEntryNumber(ctx context.Context, prefix string) (string, error) {
	var number sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(number) FROM entries WHERE number LIKE ?`, prefix+"%").Scan(&number)
	if err != nil {
		return "", fmt.Errorf("finding max entry number: %w", err)
	}
	return number.String, nil
}

// CountDraftEntries returns the number of draft entries in a fiscal year.
func (s *Store) CountDraftEntries(ctx context.Context, fiscalYearID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE fiscal_year_id = ? AND status = ?`,
		fiscalYearID, model.StatusDraft).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting draft entries: %w", err)
	}
	return n, nil
}

// CountEntries returns the number of entries in a fiscal year.
func (s *Store) CountEntries(ctx context.Context, fiscalYearID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE fiscal_year_id = ?`, fiscalYearID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// CountStaleDrafts returns the number of drafts created before cutoff.
func (s *Store) CountStaleDrafts(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE status = ? AND created_at < ?`,
		model.StatusDraft, cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting stale drafts: %w", err)
	}
	return n, nil
}

// CountEntriesSince returns the number of entries dated on or after d.
func (s *Store) CountEntriesSince(ctx context.Context, d time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE date >= ?`, d).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries since %s: %w", d.Format("2006-01-02"), err)
	}
	return n, nil
}

func scanEntry(row rowScanner) (model.Entry, error) {
	var e model.Entry
	var currency sql.NullInt64
	var rate string
	err := row.Scan(&e.ID, &e.Number, &e.Date, &e.JournalID, &e.FiscalYearID,
		&e.Label, &e.Reference, &currency, &rate, &e.Status, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("scanning entry: %w", err)
	}
	e.CurrencyID = scanID(currency)
	if e.ExchangeRate, err = decimal.NewFromString(rate); err != nil {
		return e, fmt.Errorf("parsing exchange rate %q: %w", rate, err)
	}
	return e, nil
}
