package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// ErrDraftEntries is returned when closing a fiscal year that still has
// drafts without forcing.
var ErrDraftEntries = errors.New("fiscal year has draft entries")

// CloseResult summarizes a fiscal year closure.
type CloseResult struct {
	Year     int             `json:"year"`
	Entries  int             `json:"entries"`
	Drafts   int             `json:"drafts"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expense  decimal.Decimal `json:"expense"`
	Result   decimal.Decimal `json:"result"`
	ClosedAt time.Time       `json:"closed_at"`
}

// CreateFiscalYear opens a calendar fiscal year.
func (s *Service) CreateFiscalYear(ctx context.Context, year int) (model.FiscalYear, error) {
	fy := model.FiscalYear{
		Year:      year,
		StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := s.store.CreateFiscalYear(ctx, &fy); err != nil {
		return model.FiscalYear{}, err
	}
	return fy, nil
}

// PreviewClose computes the closing figures of a fiscal year without
// closing it.
func (s *Service) PreviewClose(ctx context.Context, year int) (CloseResult, error) {
	fy, err := s.store.GetFiscalYearByYear(ctx, year)
	if err != nil {
		return CloseResult{}, err
	}
	return s.closeStats(ctx, fy)
}

// CloseFiscalYear computes the year's result and closes it for good.
// Drafts block the closure unless force is set; forced drafts stay drafts
// and are excluded from the result.
func (s *Service) CloseFiscalYear(ctx context.Context, year int, force bool) (CloseResult, error) {
	fy, err := s.store.GetFiscalYearByYear(ctx, year)
	if err != nil {
		return CloseResult{}, err
	}
	if fy.Closed {
		return CloseResult{}, fmt.Errorf("fiscal year %d: %w", year, ErrFiscalYearClosed)
	}

	res, err := s.closeStats(ctx, fy)
	if err != nil {
		return CloseResult{}, err
	}
	if res.Drafts > 0 && !force {
		return CloseResult{}, fmt.Errorf("%d draft(s) in %d: %w", res.Drafts, year, ErrDraftEntries)
	}

	if err := s.store.CloseFiscalYear(ctx, fy.ID); err != nil {
		return CloseResult{}, err
	}
	if err := s.audit.Record(ctx, model.AuditClose, "fiscal_years", fy.ID, nil, res); err != nil {
		return CloseResult{}, err
	}

	s.log.Info("fiscal year closed", "year", year,
		"result", res.Result.StringFixed(2), "entries", res.Entries, "drafts", res.Drafts)
	return res, nil
}

// closeStats computes the result from validated entries: revenue credit
// balances minus expense debit balances.
func (s *Service) closeStats(ctx context.Context, fy model.FiscalYear) (CloseResult, error) {
	drafts, err := s.store.CountDraftEntries(ctx, fy.ID)
	if err != nil {
		return CloseResult{}, err
	}
	entries, err := s.store.CountEntries(ctx, fy.ID)
	if err != nil {
		return CloseResult{}, err
	}

	expDebit, expCredit, err := s.store.ClassTotals(ctx, fy.ID, model.ClassExpense, true)
	if err != nil {
		return CloseResult{}, err
	}
	revDebit, revCredit, err := s.store.ClassTotals(ctx, fy.ID, model.ClassRevenue, true)
	if err != nil {
		return CloseResult{}, err
	}

	res := CloseResult{
		Year:     fy.Year,
		Entries:  entries,
		Drafts:   drafts,
		Revenue:  revCredit.Sub(revDebit),
		Expense:  expDebit.Sub(expCredit),
		ClosedAt: s.now(),
	}
	res.Result = res.Revenue.Sub(res.Expense)
	return res, nil
}

// ListFiscalYears returns all fiscal years, newest first.
func (s *Service) ListFiscalYears(ctx context.Context) ([]model.FiscalYear, error) {
	return s.store.ListFiscalYears(ctx)
}
