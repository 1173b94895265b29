package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// UpsertExchangeRate inserts or replaces the monthly rate for a currency.
func (s *Store) UpsertExchangeRate(ctx context.Context, r *model.ExchangeRate) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (currency_id, month, year, rate, source)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (currency_id, month, year) DO UPDATE SET rate = excluded.rate, source = excluded.source`,
		r.CurrencyID, r.Month, r.Year, r.Rate.String(), r.Source)
	if err != nil {
		return fmt.Errorf("upserting exchange rate: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		r.ID = id
	}
	return nil
}

// GetExchangeRate returns the rate for a currency and month, falling back
// to the currency base rate when no monthly rate is recorded.
func (s *Store) GetExchangeRate(ctx context.Context, currencyID int64, month, year int) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT rate FROM exchange_rates WHERE currency_id = ? AND month = ? AND year = ?`,
		currencyID, month, year).Scan(&raw)
	if err != nil {
		c, err := s.GetCurrency(ctx, currencyID)
		if err != nil {
			return decimal.Zero, err
		}
		return c.BaseRate, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing exchange rate %q: %w", raw, err)
	}
	return rate, nil
}

// ListExchangeRates returns all recorded monthly rates for a currency,
// newest first.
func (s *Store) ListExchangeRates(ctx context.Context, currencyID int64) ([]model.ExchangeRate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, currency_id, month, year, rate, source FROM exchange_rates
		 WHERE currency_id = ? ORDER BY year DESC, month DESC`, currencyID)
	if err != nil {
		return nil, fmt.Errorf("listing exchange rates: %w", err)
	}
	defer rows.Close()

	var out []model.ExchangeRate
	for rows.Next() {
		var r model.ExchangeRate
		var raw string
		if err := rows.Scan(&r.ID, &r.CurrencyID, &r.Month, &r.Year, &raw, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning exchange rate: %w", err)
		}
		if r.Rate, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("parsing exchange rate %q: %w", raw, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
