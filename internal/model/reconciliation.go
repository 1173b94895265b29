package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the lifecycle state of a bank reconciliation.
type ReconciliationStatus string

const (
	ReconciliationOpen      ReconciliationStatus = "open"
	ReconciliationValidated ReconciliationStatus = "validated"
)

// BankReconciliation compares a bank statement balance against the book
// balance of a bank account over a period. Book lines in the period are
// snapshotted and ticked off one by one against the statement.
type BankReconciliation struct {
	ID           int64                `json:"id"`
	AccountID    int64                `json:"account_id"`
	ReconciledAt time.Time            `json:"reconciled_at"`
	PeriodStart  time.Time            `json:"period_start"`
	PeriodEnd    time.Time            `json:"period_end"`
	Statement    decimal.Decimal      `json:"statement_balance"`
	Book         decimal.Decimal      `json:"book_balance"`
	Gap          decimal.Decimal      `json:"gap"`
	Status       ReconciliationStatus `json:"status"`
	CreatedBy    string               `json:"created_by,omitempty"`
	ValidatedBy  string               `json:"validated_by,omitempty"`
	ValidatedAt  time.Time            `json:"validated_at,omitzero"`
	Notes        string               `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`

	Lines []ReconciliationLine `json:"lines,omitempty"`
}

// MatchedCount returns how many snapshot lines were ticked off.
func (r BankReconciliation) MatchedCount() int {
	n := 0
	for _, l := range r.Lines {
		if l.Matched {
			n++
		}
	}
	return n
}

// ReconciliationLine points at one book line of the period and records
// whether it was found on the bank statement.
type ReconciliationLine struct {
	ID               int64     `json:"id"`
	ReconciliationID int64     `json:"reconciliation_id"`
	EntryLineID      int64     `json:"entry_line_id"`
	Matched          bool      `json:"matched"`
	MatchedAt        time.Time `json:"matched_at,omitzero"`
	MatchedBy        string    `json:"matched_by,omitempty"`

	// Snapshot of the underlying book line, filled on reads.
	EntryNumber string          `json:"entry_number,omitempty"`
	EntryDate   time.Time       `json:"entry_date,omitzero"`
	Label       string          `json:"label,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}
