package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// CreateCurrency inserts a currency and sets its ID.
func (s *Store) CreateCurrency(ctx context.Context, c *model.Currency) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO currencies (code, name, symbol, base_rate) VALUES (?, ?, ?, ?)`,
		c.Code, c.Name, c.Symbol, c.BaseRate.String(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("currency %s: %w", c.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting currency: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetCurrency returns a currency by ID.
func (s *Store) GetCurrency(ctx context.Context, id int64) (model.Currency, error) {
	return s.scanCurrency(s.db.QueryRowContext(ctx,
		`SELECT id, code, name, symbol, base_rate FROM currencies WHERE id = ?`, id))
}

// GetCurrencyByCode returns a currency by ISO code.
func (s *Store) GetCurrencyByCode(ctx context.Context, code string) (model.Currency, error) {
	return s.scanCurrency(s.db.QueryRowContext(ctx,
		`SELECT id, code, name, symbol, base_rate FROM currencies WHERE code = ?`, code))
}

// ListCurrencies returns all currencies ordered by code.
func (s *Store) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, symbol, base_rate FROM currencies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing currencies: %w", err)
	}
	defer rows.Close()

	var out []model.Currency
	for rows.Next() {
		c, err := s.scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanCurrency(row rowScanner) (model.Currency, error) {
	var c model.Currency
	var rate string
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scanning currency: %w", err)
	}
	c.BaseRate, err = decimal.NewFromString(rate)
	if err != nil {
		return c, fmt.Errorf("parsing base rate %q: %w", rate, err)
	}
	return c, nil
}
