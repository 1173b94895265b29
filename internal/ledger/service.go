// Package ledger implements double-entry bookkeeping over the store:
// entry capture, validation, numbering and fiscal year closure.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

var (
	// ErrEntryValidated is returned when a validated entry is edited or deleted.
	ErrEntryValidated = errors.New("entry is validated")
	// ErrEntryNotDraft is returned when validating an entry that is not a draft.
	ErrEntryNotDraft = errors.New("entry is not a draft")
	// ErrEntryNotValidated is returned when invalidating a draft.
	ErrEntryNotValidated = errors.New("entry is not validated")
	// ErrFiscalYearClosed is returned when writing into a closed fiscal year.
	ErrFiscalYearClosed = errors.New("fiscal year is closed")
	// ErrNoOpenFiscalYear is returned when no open fiscal year covers a date.
	ErrNoOpenFiscalYear = errors.New("no open fiscal year covers this date")
)

// Service provides business logic for journal entries and fiscal years.
type Service struct {
	store *store.Store
	audit *audit.Recorder
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a ledger Service.
func NewService(st *store.Store, rec *audit.Recorder, log *slog.Logger) *Service {
	return &Service{store: st, audit: rec, log: log, now: time.Now}
}

// AllocationParams splits a line amount across projects.
type AllocationParams struct {
	ProjectID    int64           `json:"project_id"`
	BudgetLineID int64           `json:"budget_line_id,omitempty"`
	Percent      decimal.Decimal `json:"percent"`
}

// LineParams holds one line of an entry to create or update.
type LineParams struct {
	AccountID    int64              `json:"account_id"`
	ProjectID    int64              `json:"project_id,omitempty"`
	BudgetLineID int64              `json:"budget_line_id,omitempty"`
	Label        string             `json:"label,omitempty"`
	Debit        decimal.Decimal    `json:"debit"`
	Credit       decimal.Decimal    `json:"credit"`
	Allocations  []AllocationParams `json:"allocations,omitempty"`
}

// CreateParams holds parameters for creating a journal entry.
type CreateParams struct {
	Date         time.Time       `json:"date"`
	JournalID    int64           `json:"journal_id"`
	Label        string          `json:"label"`
	Reference    string          `json:"reference,omitempty"`
	CurrencyID   int64           `json:"currency_id,omitempty"`
	ExchangeRate decimal.Decimal `json:"exchange_rate,omitempty"`
	Lines        []LineParams    `json:"lines"`
}

// Create validates and stores a new draft entry, assigning its number.
func (s *Service) Create(ctx context.Context, params CreateParams) (model.Entry, error) {
	fy, err := s.openFiscalYearFor(ctx, params.Date)
	if err != nil {
		return model.Entry{}, err
	}

	e := model.Entry{
		Date:         params.Date,
		JournalID:    params.JournalID,
		FiscalYearID: fy.ID,
		Label:        params.Label,
		Reference:    params.Reference,
		CurrencyID:   params.CurrencyID,
		ExchangeRate: params.ExchangeRate,
		Status:       model.StatusDraft,
		CreatedAt:    s.now(),
	}
	if e.ExchangeRate.IsZero() {
		e.ExchangeRate = decimal.NewFromInt(1)
	}
	e.Lines = buildLines(params.Lines)

	if err := s.validate(ctx, &e, fy); err != nil {
		return model.Entry{}, err
	}

	if e.Number, err = s.nextNumber(ctx, fy.Year); err != nil {
		return model.Entry{}, err
	}

	if err := s.store.CreateEntry(ctx, &e); err != nil {
		return model.Entry{}, err
	}
	if err := s.audit.Record(ctx, model.AuditCreate, "entries", e.ID, nil, e); err != nil {
		return model.Entry{}, err
	}

	s.log.Info("entry created", "number", e.Number, "journal", e.JournalID, "lines", len(e.Lines))
	return e, nil
}

// Update replaces a draft entry's header and lines. Validated entries and
// entries in a closed fiscal year cannot be edited.
func (s *Service) Update(ctx context.Context, id int64, params CreateParams) (model.Entry, error) {
	old, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return model.Entry{}, err
	}
	if old.Status == model.StatusValidated {
		return model.Entry{}, ErrEntryValidated
	}
	if err := s.requireOpenYear(ctx, old.FiscalYearID); err != nil {
		return model.Entry{}, err
	}

	fy, err := s.openFiscalYearFor(ctx, params.Date)
	if err != nil {
		return model.Entry{}, err
	}

	e := old
	e.Date = params.Date
	e.JournalID = params.JournalID
	e.FiscalYearID = fy.ID
	e.Label = params.Label
	e.Reference = params.Reference
	e.CurrencyID = params.CurrencyID
	e.ExchangeRate = params.ExchangeRate
	if e.ExchangeRate.IsZero() {
		e.ExchangeRate = decimal.NewFromInt(1)
	}
	e.Lines = buildLines(params.Lines)

	if err := s.validate(ctx, &e, fy); err != nil {
		return model.Entry{}, err
	}

	if err := s.store.UpdateEntry(ctx, &e); err != nil {
		return model.Entry{}, err
	}
	if err := s.audit.Record(ctx, model.AuditUpdate, "entries", e.ID, old, e); err != nil {
		return model.Entry{}, err
	}
	return e, nil
}

// Delete removes a draft entry. Validated entries cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if e.Status == model.StatusValidated {
		return ErrEntryValidated
	}
	if err := s.requireOpenYear(ctx, e.FiscalYearID); err != nil {
		return err
	}

	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	return s.audit.Record(ctx, model.AuditDelete, "entries", id, e, nil)
}

// Validate marks a draft entry as validated, locking it against edits.
func (s *Service) Validate(ctx context.Context, id int64) (model.Entry, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return model.Entry{}, err
	}
	if e.Status != model.StatusDraft {
		return model.Entry{}, ErrEntryNotDraft
	}
	if err := s.requireOpenYear(ctx, e.FiscalYearID); err != nil {
		return model.Entry{}, err
	}

	// Balance is re-checked at validation time, not only at capture.
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	if debit.Sub(credit).Abs().GreaterThan(balanceTolerance) {
		return model.Entry{}, ValidationErrors{{
			Invariant:   2,
			Description: fmt.Sprintf("entry is unbalanced: debits %s, credits %s", debit.StringFixed(2), credit.StringFixed(2)),
		}}
	}

	if err := s.store.SetEntryStatus(ctx, id, model.StatusValidated); err != nil {
		return model.Entry{}, err
	}
	if err := s.audit.Record(ctx, model.AuditValidate, "entries", id, nil, nil); err != nil {
		return model.Entry{}, err
	}
	e.Status = model.StatusValidated
	return e, nil
}

// Invalidate returns a validated entry to draft. The fiscal year must
// still be open.
func (s *Service) Invalidate(ctx context.Context, id int64) (model.Entry, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return model.Entry{}, err
	}
	if e.Status != model.StatusValidated {
		return model.Entry{}, ErrEntryNotValidated
	}
	if err := s.requireOpenYear(ctx, e.FiscalYearID); err != nil {
		return model.Entry{}, err
	}

	if err := s.store.SetEntryStatus(ctx, id, model.StatusDraft); err != nil {
		return model.Entry{}, err
	}
	if err := s.audit.Record(ctx, model.AuditInvalidate, "entries", id, nil, nil); err != nil {
		return model.Entry{}, err
	}
	e.Status = model.StatusDraft
	return e, nil
}

// ValidateBatch validates several drafts at once and returns how many
// succeeded. Entries that are not drafts are skipped.
func (s *Service) ValidateBatch(ctx context.Context, ids []int64) (int, error) {
	validated := 0
	for _, id := range ids {
		_, err := s.Validate(ctx, id)
		if errors.Is(err, ErrEntryNotDraft) {
			continue
		}
		if err != nil {
			return validated, fmt.Errorf("validating entry %d: %w", id, err)
		}
		validated++
	}
	return validated, nil
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (model.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// List returns entry headers matching the filter.
func (s *Service) List(ctx context.Context, f store.EntryFilter) ([]model.Entry, error) {
	return s.store.ListEntries(ctx, f)
}

func buildLines(params []LineParams) []model.EntryLine {
	lines := make([]model.EntryLine, len(params))
	for i, lp := range params {
		l := model.EntryLine{
			AccountID:    lp.AccountID,
			ProjectID:    lp.ProjectID,
			BudgetLineID: lp.BudgetLineID,
			Label:        lp.Label,
			Debit:        lp.Debit,
			Credit:       lp.Credit,
		}
		amount := lp.Debit.Add(lp.Credit)
		for _, ap := range lp.Allocations {
			l.Allocations = append(l.Allocations, model.Allocation{
				ProjectID:    ap.ProjectID,
				BudgetLineID: ap.BudgetLineID,
				Percent:      ap.Percent,
				Amount:       amount.Mul(ap.Percent).Div(decimal.NewFromInt(100)).Round(2),
			})
		}
		lines[i] = l
	}
	return lines
}

// validate runs the invariants against the chart of accounts and wraps
// violations as a ValidationErrors value.
func (s *Service) validate(ctx context.Context, e *model.Entry, fy model.FiscalYear) error {
	checker, err := s.loadAccounts(ctx, e)
	if err != nil {
		return err
	}
	if verrs := ValidateEntry(e, checker, fy); len(verrs) > 0 {
		return verrs
	}
	return nil
}

type accountSet map[int64]model.Account

func (s accountSet) Active(id int64) bool {
	a, ok := s[id]
	return ok && a.Active
}

func (s *Service) loadAccounts(ctx context.Context, e *model.Entry) (accountSet, error) {
	set := make(accountSet)
	for _, l := range e.Lines {
		if _, seen := set[l.AccountID]; seen {
			continue
		}
		a, err := s.store.GetAccount(ctx, l.AccountID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		set[a.ID] = a
	}
	return set, nil
}

func (s *Service) openFiscalYearFor(ctx context.Context, d time.Time) (model.FiscalYear, error) {
	fy, err := s.store.GetOpenFiscalYearFor(ctx, d)
	if errors.Is(err, store.ErrNotFound) {
		return model.FiscalYear{}, fmt.Errorf("%s: %w", d.Format("2006-01-02"), ErrNoOpenFiscalYear)
	}
	return fy, err
}

func (s *Service) requireOpenYear(ctx context.Context, fiscalYearID int64) error {
	fy, err := s.store.GetFiscalYear(ctx, fiscalYearID)
	if err != nil {
		return err
	}
	if fy.Closed {
		return fmt.Errorf("fiscal year %d: %w", fy.Year, ErrFiscalYearClosed)
	}
	return nil
}

func (s *Service) nextNumber(ctx context.Context, year int) (string, error) {
	prefix := YearPrefix(year)
	max, err := s.store.MaxEntryNumber(ctx, prefix)
	if err != nil {
		return "", err
	}

	seq := 0
	if max != "" {
		if _, seq, err = ParseEntryNumber(max); err != nil {
			return "", err
		}
	}
	return FormatEntryNumber(year, seq+1), nil
}
