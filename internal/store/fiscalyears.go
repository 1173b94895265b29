package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ongbook-dev/ongbook/internal/model"
)

const fiscalYearCols = `id, year, start_date, end_date, closed`

// CreateFiscalYear inserts a fiscal year and sets its ID.
func (s *Store) CreateFiscalYear(ctx context.Context, fy *model.FiscalYear) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fiscal_years (year, start_date, end_date, closed) VALUES (?, ?, ?, ?)`,
		fy.Year, fy.StartDate, fy.EndDate, fy.Closed,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("fiscal year %d: %w", fy.Year, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting fiscal year: %w", err)
	}
	fy.ID, err = res.LastInsertId()
	return err
}

// GetFiscalYear returns a fiscal year by ID.
func (s *Store) GetFiscalYear(ctx context.Context, id int64) (model.FiscalYear, error) {
	return scanFiscalYear(s.db.QueryRowContext(ctx,
		`SELECT `+fiscalYearCols+` FROM fiscal_years WHERE id = ?`, id))
}

// GetFiscalYearByYear returns the fiscal year covering a calendar year.
func (s *Store) GetFiscalYearByYear(ctx context.Context, year int) (model.FiscalYear, error) {
	return scanFiscalYear(s.db.QueryRowContext(ctx,
		`SELECT `+fiscalYearCols+` FROM fiscal_years WHERE year = ?`, year))
}

// GetOpenFiscalYearFor returns the open fiscal year whose period contains d.
func (s *Store) GetOpenFiscalYearFor(ctx context.Context, d time.Time) (model.FiscalYear, error) {
	return scanFiscalYear(s.db.QueryRowContext(ctx,
		`SELECT `+fiscalYearCols+` FROM fiscal_years
		 WHERE closed = 0 AND start_date <= ? AND end_date >= ?`, d, d))
}

// ListFiscalYears returns all fiscal years, newest first.
func (s *Store) ListFiscalYears(ctx context.Context) ([]model.FiscalYear, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fiscalYearCols+` FROM fiscal_years ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing fiscal years: %w", err)
	}
	defer rows.Close()

	var out []model.FiscalYear
	for rows.Next() {
		fy, err := scanFiscalYear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fy)
	}
	return out, rows.Err()
}

// CloseFiscalYear marks a fiscal year closed. The transition is one-way.
func (s *Store) CloseFiscalYear(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fiscal_years SET closed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("closing fiscal year: %w", err)
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

func scanFiscalYear(row rowScanner) (model.FiscalYear, error) {
	var fy model.FiscalYear
	err := row.Scan(&fy.ID, &fy.Year, &fy.StartDate, &fy.EndDate, &fy.Closed)
	if errors.Is(err, sql.ErrNoRows) {
		return fy, ErrNotFound
	}
	if err != nil {
		return fy, fmt.Errorf("scanning fiscal year: %w", err)
	}
	return fy, nil
}
