package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// Account number prefixes for treasury positions.
const (
	bankPrefix = "52"
	cashPrefix = "57"
)

// TreasuryPosition is the current balance of one bank or cash account.
type TreasuryPosition struct {
	Account model.Account   `json:"account"`
	Balance decimal.Decimal `json:"balance"`
}

// Dashboard carries the home page figures.
type Dashboard struct {
	Banks            []TreasuryPosition `json:"banks"`
	CashBoxes        []TreasuryPosition `json:"cash_boxes"`
	TotalTreasury    decimal.Decimal    `json:"total_treasury"`
	TotalBudget      decimal.Decimal    `json:"total_budget"`
	TotalRealized    decimal.Decimal    `json:"total_realized"`
	BudgetRate       decimal.Decimal    `json:"budget_rate"` // percent of budget consumed
	EntriesThisMonth int                `json:"entries_this_month"`
	DraftEntries     int                `json:"draft_entries"`
	ActiveProjects   int                `json:"active_projects"`
	ActiveDonors     int                `json:"active_donors"`
}

// DashboardFor assembles treasury balances and activity counters for a
// fiscal year.
func (s *Service) DashboardFor(ctx context.Context, year int) (Dashboard, error) {
	fy, err := s.store.GetFiscalYearByYear(ctx, year)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{TotalTreasury: decimal.Zero}

	if d.Banks, err = s.treasuryPositions(ctx, fy.ID, bankPrefix); err != nil {
		return Dashboard{}, err
	}
	if d.CashBoxes, err = s.treasuryPositions(ctx, fy.ID, cashPrefix); err != nil {
		return Dashboard{}, err
	}
	for _, p := range d.Banks {
		d.TotalTreasury = d.TotalTreasury.Add(p.Balance)
	}
	for _, p := range d.CashBoxes {
		d.TotalTreasury = d.TotalTreasury.Add(p.Balance)
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if d.EntriesThisMonth, err = s.store.CountEntriesSince(ctx, monthStart); err != nil {
		return Dashboard{}, err
	}
	if d.DraftEntries, err = s.store.CountDraftEntries(ctx, fy.ID); err != nil {
		return Dashboard{}, err
	}

	projects, err := s.store.ListProjects(ctx, model.ProjectActive)
	if err != nil {
		return Dashboard{}, err
	}
	d.ActiveProjects = len(projects)

	d.TotalBudget = decimal.Zero
	d.TotalRealized = decimal.Zero
	for _, p := range projects {
		planned, err := s.store.PlannedForProject(ctx, p.ID)
		if err != nil {
			return Dashboard{}, err
		}
		if planned.IsZero() {
			planned = p.TotalBudget
		}
		realized, err := s.store.RealizedForProject(ctx, p.ID)
		if err != nil {
			return Dashboard{}, err
		}
		d.TotalBudget = d.TotalBudget.Add(planned)
		d.TotalRealized = d.TotalRealized.Add(realized)
	}
	if d.TotalBudget.IsPositive() {
		d.BudgetRate = d.TotalRealized.Mul(decimal.NewFromInt(100)).Div(d.TotalBudget).Round(2)
	}

	if d.ActiveDonors, err = s.store.CountActiveDonors(ctx); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

func (s *Service) treasuryPositions(ctx context.Context, fiscalYearID int64, prefix string) ([]TreasuryPosition, error) {
	totals, err := s.store.AccountTotals(ctx, store.TotalsFilter{
		FiscalYearID: fiscalYearID,
		NumberPrefix: prefix,
	})
	if err != nil {
		return nil, err
	}

	var out []TreasuryPosition
	for _, t := range totals {
		out = append(out, TreasuryPosition{
			Account: t.Account,
			Balance: t.Debit.Sub(t.Credit),
		})
	}
	return out, nil
}
