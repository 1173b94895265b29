package budget

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// Alert thresholds.
var (
	warnThreshold   = decimal.NewFromInt(80) // percent of budget consumed
	dangerThreshold = decimal.NewFromInt(100)
	staleDraftAge   = 7 // days
)

// Alerts computes the current monitoring alerts: budgets near or past
// their ceiling, drafts sitting unvalidated, and negative treasury
// balances. Alerts are derived on demand, never persisted.
func (s *Service) Alerts(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert

	ov, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	for _, sum := range ov.Projects {
		if sum.Planned.IsZero() {
			continue
		}
		// Strictly above threshold: exactly 80% stays quiet, exactly
		// 100% is still a warning.
		switch {
		case sum.Rate.GreaterThan(dangerThreshold):
			alerts = append(alerts, model.Alert{
				Type:      model.AlertBudgetOverrun,
				Level:     model.AlertDanger,
				ProjectID: sum.Project.ID,
				Message: fmt.Sprintf("project %s exceeded its budget (%s%% consumed)",
					sum.Project.Code, sum.Rate.StringFixed(1)),
				CreatedAt: s.now(),
			})
		case sum.Rate.GreaterThan(warnThreshold):
			alerts = append(alerts, model.Alert{
				Type:      model.AlertBudgetOverrun,
				Level:     model.AlertWarning,
				ProjectID: sum.Project.ID,
				Message: fmt.Sprintf("project %s consumed %s%% of its budget",
					sum.Project.Code, sum.Rate.StringFixed(1)),
				CreatedAt: s.now(),
			})
		}
	}

	cutoff := s.now().AddDate(0, 0, -staleDraftAge)
	stale, err := s.store.CountStaleDrafts(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if stale > 0 {
		alerts = append(alerts, model.Alert{
			Type:      model.AlertStaleDrafts,
			Level:     model.AlertWarning,
			Message:   fmt.Sprintf("%d draft entries older than %d days await validation", stale, staleDraftAge),
			CreatedAt: s.now(),
		})
	}

	treasuries, err := s.store.AccountTotals(ctx, store.TotalsFilter{Class: model.ClassTreasury})
	if err != nil {
		return nil, err
	}
	for _, t := range treasuries {
		balance := t.Debit.Sub(t.Credit)
		if balance.IsNegative() {
			alerts = append(alerts, model.Alert{
				Type:      model.AlertNegativeBalance,
				Level:     model.AlertDanger,
				AccountID: t.Account.ID,
				Message: fmt.Sprintf("account %s %s has a negative balance (%s)",
					t.Account.Number, t.Account.Name, balance.StringFixed(2)),
				CreatedAt: s.now(),
			})
		}
	}

	return alerts, nil
}
