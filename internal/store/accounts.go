package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ongbook-dev/ongbook/internal/model"
)

const accountCols = `id, number, name, class, type, parent_id, active`

// CreateAccount inserts an account and sets its ID.
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (number, name, class, type, parent_id, active) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Number, a.Name, a.Class, a.Type, nullID(a.ParentID), a.Active,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %s: %w", a.Number, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// UpdateAccount rewrites an account's mutable fields.
func (s *Store) UpdateAccount(ctx context.Context, a *model.Account) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET number = ?, name = ?, class = ?, type = ?, parent_id = ?, active = ? WHERE id = ?`,
		a.Number, a.Name, a.Class, a.Type, nullID(a.ParentID), a.Active, a.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %s: %w", a.Number, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
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

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id int64) (model.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id))
}

// GetAccountByNumber returns an account by SYSCOHADA number.
func (s *Store) GetAccountByNumber(ctx context.Context, number string) (model.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE number = ?`, number))
}

// FindAccountByPrefix returns the first active account whose number starts
// with prefix, shortest number first.
func (s *Store) FindAccountByPrefix(ctx context.Context, prefix string) (model.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts
		 WHERE active = 1 AND number LIKE ? ORDER BY length(number), number LIMIT 1`,
		prefix+"%"))
}

// ListAccounts returns the chart of accounts ordered by number.
func (s *Store) ListAccounts(ctx context.Context, activeOnly bool) ([]model.Account, error) {
	q := `SELECT ` + accountCols + ` FROM accounts`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY number`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountAccounts returns the number of accounts in the chart.
func (s *Store) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return n, nil
}

func scanAccount(row rowScanner) (model.Account, error) {
	var a model.Account
	var parent sql.NullInt64
	err := row.Scan(&a.ID, &a.Number, &a.Name, &a.Class, &a.Type, &parent, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	if err != nil {
		return a, fmt.Errorf("scanning account: %w", err)
	}
	a.ParentID = scanID(parent)
	return a, nil
}
