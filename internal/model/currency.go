package model

import "github.com/shopspring/decimal"

// Currency is a currency the entity reports in. XOF is the base.
type Currency struct {
	ID       int64           `json:"id"`
	Code     string          `json:"code"` // ISO 4217
	Name     string          `json:"name"`
	Symbol   string          `json:"symbol,omitempty"`
	BaseRate decimal.Decimal `json:"base_rate"` // vs XOF
}

// ExchangeRate is a monthly average rate for a currency (BCEAO convention).
type ExchangeRate struct {
	ID         int64           `json:"id"`
	CurrencyID int64           `json:"currency_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Rate       decimal.Decimal `json:"rate"`
	Source     string          `json:"source,omitempty"`
}
