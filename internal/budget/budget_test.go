package budget

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

type fixture struct {
	svc *Service
	st  *store.Store

	year    model.FiscalYear
	journal model.Journal
	bank    model.Account
	expense model.Account
	project model.Project
	labor   model.BudgetCategory
	travel  model.BudgetCategory
	salary  model.BudgetLine
	mission model.BudgetLine
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())

	f := &fixture{st: st, svc: NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))}

	f.year = model.FiscalYear{Year: 2025,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.CreateFiscalYear(ctx, &f.year))

	f.journal = model.Journal{Code: "AC", Name: "Achats", Type: model.JournalPurchases}
	require.NoError(t, st.CreateJournal(ctx, &f.journal))

	f.bank = model.Account{Number: "521", Name: "Banques", Class: 5, Type: model.AccountTypeAsset, Active: true}
	require.NoError(t, st.CreateAccount(ctx, &f.bank))
	f.expense = model.Account{Number: "661", Name: "Rémunérations", Class: 6, Type: model.AccountTypeExpense, Active: true}
	require.NoError(t, st.CreateAccount(ctx, &f.expense))

	f.project = model.Project{Code: "SANTE01", Name: "Projet santé", TotalBudget: dec("10000.00"), Status: model.ProjectActive}
	require.NoError(t, st.CreateProject(ctx, &f.project))

	f.labor = model.BudgetCategory{Code: "LABOR", Name: "Personnel", Rank: 1}
	require.NoError(t, st.CreateBudgetCategory(ctx, &f.labor))
	f.travel = model.BudgetCategory{Code: "TRAVEL", Name: "Déplacements", Rank: 2}
	require.NoError(t, st.CreateBudgetCategory(ctx, &f.travel))

	f.salary = model.BudgetLine{
		ProjectID: f.project.ID, CategoryID: f.labor.ID, Code: "1.1", Name: "Salaires",
		Quantity: dec("12"), UnitCost: dec("500"), PlannedAmount: dec("6000.00"),
	}
	require.NoError(t, st.CreateBudgetLine(ctx, &f.salary))
	f.mission = model.BudgetLine{
		ProjectID: f.project.ID, CategoryID: f.travel.ID, Code: "2.1", Name: "Missions terrain",
		Quantity: dec("4"), UnitCost: dec("1000"), PlannedAmount: dec("4000.00"),
	}
	require.NoError(t, st.CreateBudgetLine(ctx, &f.mission))

	return f
}

// spend posts a validated expense against a budget line.
func (f *fixture) spend(t *testing.T, number, amount string, budgetLineID int64) {
	t.Helper()
	e := model.Entry{
		Number: number, Date: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		JournalID: f.journal.ID, FiscalYearID: f.year.ID, Label: "Dépense",
		ExchangeRate: dec("1"), Status: model.StatusValidated, CreatedAt: time.Now(),
		Lines: []model.EntryLine{
			{AccountID: f.expense.ID, Debit: dec(amount), ProjectID: f.project.ID, BudgetLineID: budgetLineID},
			{AccountID: f.bank.ID, Credit: dec(amount)},
		},
	}
	require.NoError(t, f.st.CreateEntry(context.Background(), &e))
}

func TestReport_GroupsByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.spend(t, "PC202500001", "3000.00", f.salary.ID)
	f.spend(t, "PC202500002", "1000.00", f.mission.ID)

	rep, err := f.svc.Report(ctx, f.project.ID)
	require.NoError(t, err)

	require.Len(t, rep.Categories, 2)
	assert.Equal(t, "LABOR", rep.Categories[0].Category.Code, "rank order")
	assert.True(t, rep.Categories[0].Realized.Equal(dec("3000.00")))
	assert.True(t, rep.Categories[1].Realized.Equal(dec("1000.00")))

	require.Len(t, rep.Categories[0].Lines, 1)
	lr := rep.Categories[0].Lines[0]
	assert.True(t, lr.Variance.Equal(dec("3000.00")))
	assert.True(t, lr.Rate.Equal(dec("50")), "rate: %s", lr.Rate)

	assert.True(t, rep.Planned.Equal(dec("10000.00")))
	assert.True(t, rep.Realized.Equal(dec("4000.00")))
	assert.True(t, rep.Rate.Equal(dec("40")), "rate: %s", rep.Rate)
}

func TestReport_NoSpend(t *testing.T) {
	f := newFixture(t)

	rep, err := f.svc.Report(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.True(t, rep.Realized.IsZero())
	assert.True(t, rep.Rate.IsZero())
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.spend(t, "PC202500001", "2500.00", f.salary.ID)

	ov, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, ov.Projects, 1)
	assert.True(t, ov.Projects[0].Realized.Equal(dec("2500.00")))
	assert.True(t, ov.Projects[0].Planned.Equal(dec("10000.00")), "planned from budget lines")
	assert.True(t, ov.Projects[0].Rate.Equal(dec("25")), "rate: %s", ov.Projects[0].Rate)
	assert.True(t, ov.TotalPlanned.Equal(dec("10000.00")))
	assert.True(t, ov.TotalRealized.Equal(dec("2500.00")))
	assert.True(t, ov.Rate.Equal(dec("25")), "portfolio rate: %s", ov.Rate)
}

func TestAlerts_ThresholdsAreStrict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Exactly 80% consumed: no alert yet.
	f.spend(t, "PC202500001", "8000.00", f.salary.ID)

	alerts, err := f.svc.Alerts(ctx)
	require.NoError(t, err)
	for _, a := range alerts {
		assert.NotEqual(t, model.AlertBudgetOverrun, a.Type)
	}

	// Exactly 100%: warning, not danger.
	f.spend(t, "PC202500002", "2000.00", f.mission.ID)

	alerts, err = f.svc.Alerts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, alerts)
	assert.Equal(t, model.AlertBudgetOverrun, alerts[0].Type)
	assert.Equal(t, model.AlertWarning, alerts[0].Level)
}

func TestAlerts_BudgetThresholds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 85% consumed: warning.
	f.spend(t, "PC202500001", "8500.00", f.salary.ID)

	alerts, err := f.svc.Alerts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, alerts)
	assert.Equal(t, model.AlertBudgetOverrun, alerts[0].Type)
	assert.Equal(t, model.AlertWarning, alerts[0].Level)
	assert.Equal(t, f.project.ID, alerts[0].ProjectID)

	// Past 100%: danger.
	f.spend(t, "PC202500002", "2000.00", f.mission.ID)

	alerts, err = f.svc.Alerts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, alerts)
	assert.Equal(t, model.AlertDanger, alerts[0].Level)
}

func TestAlerts_StaleDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := model.Entry{
		Number: "PC202500001", Date: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		JournalID: f.journal.ID, FiscalYearID: f.year.ID, Label: "Vieille pièce",
		ExchangeRate: dec("1"), Status: model.StatusDraft,
		CreatedAt: time.Now().AddDate(0, 0, -10),
		Lines: []model.EntryLine{
			{AccountID: f.expense.ID, Debit: dec("10.00")},
			{AccountID: f.bank.ID, Credit: dec("10.00")},
		},
	}
	require.NoError(t, f.st.CreateEntry(ctx, &e))

	alerts, err := f.svc.Alerts(ctx)
	require.NoError(t, err)

	var found bool
	for _, a := range alerts {
		if a.Type == model.AlertStaleDrafts {
			found = true
			assert.Equal(t, model.AlertWarning, a.Level)
		}
	}
	assert.True(t, found, "expected a stale drafts alert")
}

func TestAlerts_NegativeTreasury(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Credit the bank more than it was ever debited.
	e := model.Entry{
		Number: "PC202500001", Date: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		JournalID: f.journal.ID, FiscalYearID: f.year.ID, Label: "Découvert",
		ExchangeRate: dec("1"), Status: model.StatusValidated, CreatedAt: time.Now(),
		Lines: []model.EntryLine{
			{AccountID: f.expense.ID, Debit: dec("500.00")},
			{AccountID: f.bank.ID, Credit: dec("500.00")},
		},
	}
	require.NoError(t, f.st.CreateEntry(ctx, &e))

	alerts, err := f.svc.Alerts(ctx)
	require.NoError(t, err)

	var found bool
	for _, a := range alerts {
		if a.Type == model.AlertNegativeBalance {
			found = true
			assert.Equal(t, f.bank.ID, a.AccountID)
			assert.Equal(t, model.AlertDanger, a.Level)
		}
	}
	assert.True(t, found, "expected a negative balance alert")
}
