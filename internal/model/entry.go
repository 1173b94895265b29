package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusDraft     EntryStatus = "draft"
	StatusValidated EntryStatus = "validated"
)

// Entry is a journal entry header (pièce comptable). Its lines must balance.
type Entry struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"` // "PC202500042"
	Date         time.Time       `json:"date"`
	JournalID    int64           `json:"journal_id"`
	FiscalYearID int64           `json:"fiscal_year_id"`
	Label        string          `json:"label"`
	Reference    string          `json:"reference,omitempty"` // invoice, cheque number...
	CurrencyID   int64           `json:"currency_id,omitempty"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Status       EntryStatus     `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`

	Lines []EntryLine `json:"lines,omitempty"`
}

// TotalDebit sums the debit side of all lines.
func (e Entry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side of all lines.
func (e Entry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// Balanced reports whether debits equal credits.
func (e Entry) Balanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}

// EntryLine is a single debit or credit row of an entry.
type EntryLine struct {
	ID           int64           `json:"id"`
	EntryID      int64           `json:"entry_id"`
	AccountID    int64           `json:"account_id"`
	ProjectID    int64           `json:"project_id,omitempty"`
	BudgetLineID int64           `json:"budget_line_id,omitempty"`
	Label        string          `json:"label,omitempty"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`

	Allocations []Allocation `json:"allocations,omitempty"`
}

// Allocation splits an expense line across several projects.
// Ex: rent 60% project A, 40% project B.
type Allocation struct {
	ID           int64           `json:"id"`
	EntryLineID  int64           `json:"entry_line_id"`
	ProjectID    int64           `json:"project_id"`
	BudgetLineID int64           `json:"budget_line_id,omitempty"`
	Percent      decimal.Decimal `json:"percent"`
	Amount       decimal.Decimal `json:"amount"`
}
