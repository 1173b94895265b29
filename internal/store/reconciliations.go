package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

const reconciliationCols = `id, account_id, reconciled_at, period_start, period_end,
	statement_cents, book_cents, gap_cents, status, created_by, validated_by, validated_at, notes, created_at`

// AccountBalanceThrough returns the book balance (debits minus credits)
// of an account over all entries dated up to and including the given day.
func (s *Store) AccountBalanceThrough(ctx context.Context, accountID int64, through time.Time) (decimal.Decimal, error) {
	var cents int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(el.debit_cents - el.credit_cents), 0)
		 FROM entry_lines el
		 JOIN entries e ON e.id = el.entry_id
		 WHERE el.account_id = ? AND e.date <= ?`,
		accountID, through).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing account balance: %w", err)
	}
	return fromCents(cents), nil
}

// EntryLineIDsForPeriod returns the IDs of an account's book lines whose
// entry date falls inside [from, to].
func (s *Store) EntryLineIDsForPeriod(ctx context.Context, accountID int64, from, to time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT el.id
		 FROM entry_lines el
		 JOIN entries e ON e.id = el.entry_id
		 WHERE el.account_id = ? AND e.date >= ? AND e.date <= ?
		 ORDER BY e.date, el.id`,
		accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing period lines: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateReconciliation inserts a reconciliation header and its line snapshot.
func (s *Store) CreateReconciliation(ctx context.Context, rec *model.BankReconciliation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bank_reconciliations (account_id, reconciled_at, period_start, period_end,
		        statement_cents, book_cents, gap_cents, status, created_by, validated_by, validated_at, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AccountID, rec.ReconciledAt, rec.PeriodStart, rec.PeriodEnd,
		toCents(rec.Statement), toCents(rec.Book), toCents(rec.Gap), rec.Status,
		rec.CreatedBy, rec.ValidatedBy, nullTime(rec.ValidatedAt), rec.Notes, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting reconciliation: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for i := range rec.Lines {
		l := &rec.Lines[i]
		l.ReconciliationID = rec.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO reconciliation_lines (reconciliation_id, entry_line_id, matched, matched_at, matched_by)
			 VALUES (?, ?, ?, ?, ?)`,
			l.ReconciliationID, l.EntryLineID, l.Matched, nullTime(l.MatchedAt), l.MatchedBy,
		)
		if err != nil {
			return fmt.Errorf("inserting reconciliation line: %w", err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetReconciliation returns a reconciliation with its lines, each carrying
// a snapshot of the underlying book line.
func (s *Store) GetReconciliation(ctx context.Context, id int64) (model.BankReconciliation, error) {
	rec, err := scanReconciliation(s.db.QueryRowContext(ctx,
		`SELECT `+reconciliationCols+` FROM bank_reconciliations WHERE id = ?`, id))
	if err != nil {
		return rec, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rl.id, rl.reconciliation_id, rl.entry_line_id, rl.matched, rl.matched_at, rl.matched_by,
		        e.number, e.date, el.label, el.debit_cents, el.credit_cents
		 FROM reconciliation_lines rl
		 JOIN entry_lines el ON el.id = rl.entry_line_id
		 JOIN entries e ON e.id = el.entry_id
		 WHERE rl.reconciliation_id = ?
		 ORDER BY e.date, rl.id`, id)
	if err != nil {
		return rec, fmt.Errorf("loading reconciliation lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.ReconciliationLine
		var matchedAt sql.NullTime
		var debitCents, creditCents int64
		if err := rows.Scan(&l.ID, &l.ReconciliationID, &l.EntryLineID, &l.Matched, &matchedAt, &l.MatchedBy,
			&l.EntryNumber, &l.EntryDate, &l.Label, &debitCents, &creditCents); err != nil {
			return rec, fmt.Errorf("scanning reconciliation line: %w", err)
		}
		if matchedAt.Valid {
			l.MatchedAt = matchedAt.Time
		}
		l.Debit = fromCents(debitCents)
		l.Credit = fromCents(creditCents)
		rec.Lines = append(rec.Lines, l)
	}
	return rec, rows.Err()
}

// ListReconciliations returns reconciliation headers, newest first.
func (s *Store) ListReconciliations(ctx context.Context) ([]model.BankReconciliation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reconciliationCols+` FROM bank_reconciliations ORDER BY reconciled_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing reconciliations: %w", err)
	}
	defer rows.Close()

	var out []model.BankReconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MatchReconciliationLines ticks the given snapshot lines and unticks all
// others, then returns the debit-minus-credit total of the ticked lines.
func (s *Store) MatchReconciliationLines(ctx context.Context, recID int64, lineIDs []int64, by string, at time.Time) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE reconciliation_lines SET matched = 0, matched_at = NULL, matched_by = ''
		 WHERE reconciliation_id = ?`, recID); err != nil {
		return decimal.Zero, fmt.Errorf("clearing matches: %w", err)
	}

	if len(lineIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(lineIDs)), ", ")
		args := []any{by, at, recID}
		for _, id := range lineIDs {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE reconciliation_lines SET matched = 1, matched_by = ?, matched_at = ?
			 WHERE reconciliation_id = ? AND id IN (`+placeholders+`)`, args...); err != nil {
			return decimal.Zero, fmt.Errorf("setting matches: %w", err)
		}
	}

	var cents int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(el.debit_cents - el.credit_cents), 0)
		 FROM reconciliation_lines rl
		 JOIN entry_lines el ON el.id = rl.entry_line_id
		 WHERE rl.reconciliation_id = ? AND rl.matched = 1`, recID).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing matched lines: %w", err)
	}
	return fromCents(cents), tx.Commit()
}

// SetReconciliationGap stores a recomputed statement-versus-book gap.
func (s *Store) SetReconciliationGap(ctx context.Context, id int64, gap decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bank_reconciliations SET gap_cents = ? WHERE id = ?`, toCents(gap), id)
	if err != nil {
		return fmt.Errorf("updating reconciliation gap: %w", err)
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

// ValidateReconciliation marks a reconciliation as validated.
func (s *Store) ValidateReconciliation(ctx context.Context, id int64, by string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bank_reconciliations SET status = ?, validated_by = ?, validated_at = ? WHERE id = ?`,
		model.ReconciliationValidated, by, at, id)
	if err != nil {
		return fmt.Errorf("validating reconciliation: %w", err)
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

func scanReconciliation(row rowScanner) (model.BankReconciliation, error) {
	var rec model.BankReconciliation
	var validatedAt sql.NullTime
	var statementCents, bookCents, gapCents int64
	err := row.Scan(&rec.ID, &rec.AccountID, &rec.ReconciledAt, &rec.PeriodStart, &rec.PeriodEnd,
		&statementCents, &bookCents, &gapCents, &rec.Status,
		&rec.CreatedBy, &rec.ValidatedBy, &validatedAt, &rec.Notes, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("scanning reconciliation: %w", err)
	}
	if validatedAt.Valid {
		rec.ValidatedAt = validatedAt.Time
	}
	rec.Statement = fromCents(statementCents)
	rec.Book = fromCents(bookCents)
	rec.Gap = fromCents(gapCents)
	return rec, nil
}
