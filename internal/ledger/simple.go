package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// Simple entry modes for non-accountant capture.
const (
	ModeExpense  = "expense"
	ModeIncome   = "income"
	ModeTransfer = "transfer"
)

// ErrUnknownMode is returned for an unrecognized simple entry mode.
var ErrUnknownMode = errors.New("unknown simple entry mode")

// SimpleParams captures the few fields needed for a guided entry: an
// expense paid from treasury, an income received into treasury, or a
// transfer between two treasury accounts.
type SimpleParams struct {
	Mode         string          `json:"mode"`
	Date         time.Time       `json:"date"`
	JournalID    int64           `json:"journal_id,omitempty"`
	Label        string          `json:"label"`
	Reference    string          `json:"reference,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	AccountID    int64           `json:"account_id"`          // expense or revenue account
	TreasuryID   int64           `json:"treasury_id"`         // bank or cash account
	FromID       int64           `json:"from_id,omitempty"`   // transfer source
	ToID         int64           `json:"to_id,omitempty"`     // transfer destination
	ProjectID    int64           `json:"project_id,omitempty"`
	BudgetLineID int64           `json:"budget_line_id,omitempty"`
}

// CreateSimple expands a guided entry into balanced double-entry lines
// and stores it as a draft.
func (s *Service) CreateSimple(ctx context.Context, params SimpleParams) (model.Entry, error) {
	journalID := params.JournalID
	if journalID == 0 {
		var err error
		if journalID, err = s.defaultJournal(ctx, params.Mode); err != nil {
			return model.Entry{}, err
		}
	}

	var lines []LineParams
	switch params.Mode {
	case ModeExpense:
		lines = []LineParams{
			{AccountID: params.AccountID, Debit: params.Amount, ProjectID: params.ProjectID, BudgetLineID: params.BudgetLineID},
			{AccountID: params.TreasuryID, Credit: params.Amount},
		}
	case ModeIncome:
		lines = []LineParams{
			{AccountID: params.TreasuryID, Debit: params.Amount},
			{AccountID: params.AccountID, Credit: params.Amount, ProjectID: params.ProjectID},
		}
	case ModeTransfer:
		lines = []LineParams{
			{AccountID: params.ToID, Debit: params.Amount},
			{AccountID: params.FromID, Credit: params.Amount},
		}
	default:
		return model.Entry{}, fmt.Errorf("%q: %w", params.Mode, ErrUnknownMode)
	}

	return s.Create(ctx, CreateParams{
		Date:      params.Date,
		JournalID: journalID,
		Label:     params.Label,
		Reference: params.Reference,
		Lines:     lines,
	})
}

func (s *Service) defaultJournal(ctx context.Context, mode string) (int64, error) {
	var t model.JournalType
	switch mode {
	case ModeExpense:
		t = model.JournalPurchases
	case ModeIncome:
		t = model.JournalBank
	case ModeTransfer:
		t = model.JournalMisc
	default:
		return 0, fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}

	j, err := s.store.GetJournalByType(ctx, t)
	if errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("no journal of type %s: %w", t, err)
	}
	if err != nil {
		return 0, err
	}
	return j.ID, nil
}
