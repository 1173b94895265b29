package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ongbook-dev/ongbook/internal/model"
)

const donorCols = `id, code, name, country, contact, email, currency_id, active`

// CreateDonor inserts a donor and sets its ID.
func (s *Store) CreateDonor(ctx context.Context, d *model.Donor) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO donors (code, name, country, contact, email, currency_id, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Code, d.Name, d.Country, d.Contact, d.Email, nullID(d.CurrencyID), d.Active,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("donor %s: %w", d.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting donor: %w", err)
	}
	d.ID, err = res.LastInsertId()
	return err
}

// UpdateDonor rewrites a donor.
func (s *Store) UpdateDonor(ctx context.Context, d *model.Donor) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE donors SET code = ?, name = ?, country = ?, contact = ?, email = ?, currency_id = ?, active = ?
		 WHERE id = ?`,
		d.Code, d.Name, d.Country, d.Contact, d.Email, nullID(d.CurrencyID), d.Active, d.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("donor %s: %w", d.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating donor: %w", err)
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

// GetDonor returns a donor by ID.
func (s *Store) GetDonor(ctx context.Context, id int64) (model.Donor, error) {
	return scanDonor(s.db.QueryRowContext(ctx,
		`SELECT `+donorCols+` FROM donors WHERE id = ?`, id))
}

// ListDonors returns donors ordered by code.
func (s *Store) ListDonors(ctx context.Context, activeOnly bool) ([]model.Donor, error) {
	q := `SELECT ` + donorCols + ` FROM donors`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY code`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing donors: %w", err)
	}
	defer rows.Close()

	var out []model.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountActiveDonors returns the number of active donors.
func (s *Store) CountActiveDonors(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM donors WHERE active = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting donors: %w", err)
	}
	return n, nil
}

func scanDonor(row rowScanner) (model.Donor, error) {
	var d model.Donor
	var currency sql.NullInt64
	err := row.Scan(&d.ID, &d.Code, &d.Name, &d.Country, &d.Contact, &d.Email, &currency, &d.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("scanning donor: %w", err)
	}
	d.CurrencyID = scanID(currency)
	return d, nil
}
