package report

import (
	"context"
	"fmt"
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

	year     model.FiscalYear
	journal  model.Journal
	capital  model.Account // class 1
	bank     model.Account // 521
	cash     model.Account // 571
	supplies model.Account // class 6
	grants   model.Account // class 7
	project  model.Project
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

	f.journal = model.Journal{Code: "OD", Name: "Opérations diverses", Type: model.JournalMisc}
	require.NoError(t, st.CreateJournal(ctx, &f.journal))

	accounts := []*model.Account{
		{Number: "102", Name: "Fonds associatifs", Class: 1, Type: model.AccountTypeLiability},
		{Number: "521", Name: "Banques", Class: 5, Type: model.AccountTypeAsset},
		{Number: "571", Name: "Caisse", Class: 5, Type: model.AccountTypeAsset},
		{Number: "601", Name: "Achats", Class: 6, Type: model.AccountTypeExpense},
		{Number: "701", Name: "Subventions", Class: 7, Type: model.AccountTypeRevenue},
	}
	for _, a := range accounts {
		a.Active = true
		require.NoError(t, st.CreateAccount(ctx, a))
	}
	f.capital, f.bank, f.cash, f.supplies, f.grants =
		*accounts[0], *accounts[1], *accounts[2], *accounts[3], *accounts[4]

	f.project = model.Project{Code: "EDU01", Name: "Éducation", Status: model.ProjectActive}
	require.NoError(t, st.CreateProject(ctx, &f.project))

	return f
}

var entrySeq int

func (f *fixture) post(t *testing.T, status model.EntryStatus, lines ...model.EntryLine) {
	t.Helper()
	entrySeq++
	e := model.Entry{
		Number:    fmt.Sprintf("PC2025%05d", entrySeq),
		Date:      time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		JournalID: f.journal.ID, FiscalYearID: f.year.ID, Label: "test",
		ExchangeRate: dec("1"), Status: status, CreatedAt: time.Now(),
		Lines: lines,
	}
	require.NoError(t, f.st.CreateEntry(context.Background(), &e))
}

func TestTrialBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, model.StatusValidated,
		model.EntryLine{AccountID: f.bank.ID, Debit: dec("1000.00")},
		model.EntryLine{AccountID: f.grants.ID, Credit: dec("1000.00")})
	f.post(t, model.StatusDraft,
		model.EntryLine{AccountID: f.supplies.ID, Debit: dec("200.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("200.00")})

	tb, err := f.svc.TrialBalanceFor(ctx, 2025, false)
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2, "drafts excluded")
	assert.True(t, tb.TotalDebit.Equal(dec("1000.00")))
	assert.True(t, tb.TotalCredit.Equal(dec("1000.00")))
	assert.True(t, tb.TotalDebit.Equal(tb.TotalCredit), "trial balance must balance")

	withDrafts, err := f.svc.TrialBalanceFor(ctx, 2025, true)
	require.NoError(t, err)
	require.Len(t, withDrafts.Rows, 3)
	assert.True(t, withDrafts.TotalDebit.Equal(dec("1200.00")))

	var bankRow *TrialBalanceRow
	for i := range withDrafts.Rows {
		if withDrafts.Rows[i].Account.ID == f.bank.ID {
			bankRow = &withDrafts.Rows[i]
		}
	}
	require.NotNil(t, bankRow)
	assert.True(t, bankRow.BalanceDebit.Equal(dec("800.00")))
	assert.True(t, bankRow.BalanceCredit.IsZero())

	var grantsRow *TrialBalanceRow
	for i := range withDrafts.Rows {
		if withDrafts.Rows[i].Account.ID == f.grants.ID {
			grantsRow = &withDrafts.Rows[i]
		}
	}
	require.NotNil(t, grantsRow)
	assert.True(t, grantsRow.BalanceCredit.Equal(dec("1000.00")))
	assert.True(t, grantsRow.BalanceDebit.IsZero())
}

func TestStatements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Opening funds, a grant and an expense, all validated.
	f.post(t, model.StatusValidated,
		model.EntryLine{AccountID: f.bank.ID, Debit: dec("5000.00")},
		model.EntryLine{AccountID: f.capital.ID, Credit: dec("5000.00")})
	f.post(t, model.StatusValidated,
		model.EntryLine{AccountID: f.bank.ID, Debit: dec("1000.00")},
		model.EntryLine{AccountID: f.grants.ID, Credit: dec("1000.00")})
	f.post(t, model.StatusValidated,
		model.EntryLine{AccountID: f.supplies.ID, Debit: dec("400.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("400.00")})

	fs, err := f.svc.Statements(ctx, 2025)
	require.NoError(t, err)

	require.Len(t, fs.Assets, 1)
	assert.Equal(t, f.bank.ID, fs.Assets[0].Account.ID)
	assert.True(t, fs.TotalAssets.Equal(dec("5600.00")), "assets: %s", fs.TotalAssets)

	require.Len(t, fs.Liabilities, 1)
	assert.True(t, fs.TotalLiabilities.Equal(dec("5000.00")))

	assert.True(t, fs.TotalExpenses.Equal(dec("400.00")))
	assert.True(t, fs.TotalRevenues.Equal(dec("1000.00")))
	assert.True(t, fs.Result.Equal(dec("600.00")))

	// Balance sheet equation: assets = liabilities + result.
	assert.True(t, fs.TotalAssets.Equal(fs.TotalLiabilities.Add(fs.Result)))
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, model.StatusValidated,
		model.EntryLine{AccountID: f.supplies.ID, Debit: dec("300.00"), ProjectID: f.project.ID},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("300.00")})
	f.post(t, model.StatusValidated,
		model.EntryLine{AccountID: f.supplies.ID, Debit: dec("100.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("100.00")})

	rec, err := f.svc.Reconcile(ctx, 2025)
	require.NoError(t, err)
	assert.True(t, rec.TotalExpenses.Equal(dec("400.00")))
	assert.True(t, rec.Allocated.Equal(dec("300.00")))
	assert.True(t, rec.Unallocated.Equal(dec("100.00")))
	assert.True(t, rec.AllocatedRate.Equal(dec("75")), "rate: %s", rec.AllocatedRate)

	require.Len(t, rec.Projects, 1)
	assert.Equal(t, f.project.ID, rec.Projects[0].Project.ID)
	assert.True(t, rec.Projects[0].Amount.Equal(dec("300.00")))
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := model.Donor{Code: "UE", Name: "Union européenne", Active: true}
	require.NoError(t, f.st.CreateDonor(ctx, &d))

	line := model.BudgetLine{ProjectID: f.project.ID, Code: "1.1", Name: "Fournitures",
		PlannedAmount: dec("2000.00"), Quantity: dec("1"), UnitCost: dec("2000.00")}
	require.NoError(t, f.st.CreateBudgetLine(ctx, &line))

	f.post(t, model.StatusValidated,
		model.EntryLine{AccountID: f.bank.ID, Debit: dec("1000.00")},
		model.EntryLine{AccountID: f.grants.ID, Credit: dec("1000.00")})
	f.post(t, model.StatusDraft,
		model.EntryLine{AccountID: f.cash.ID, Debit: dec("150.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("150.00")})
	f.post(t, model.StatusValidated,
		model.EntryLine{AccountID: f.supplies.ID, Debit: dec("500.00"),
			ProjectID: f.project.ID, BudgetLineID: line.ID},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("500.00")})

	dash, err := f.svc.DashboardFor(ctx, 2025)
	require.NoError(t, err)

	require.Len(t, dash.Banks, 1)
	assert.True(t, dash.Banks[0].Balance.Equal(dec("350.00")))
	require.Len(t, dash.CashBoxes, 1)
	assert.True(t, dash.CashBoxes[0].Balance.Equal(dec("150.00")))
	assert.True(t, dash.TotalTreasury.Equal(dec("500.00")))
	assert.True(t, dash.TotalBudget.Equal(dec("2000.00")))
	assert.True(t, dash.TotalRealized.Equal(dec("500.00")))
	assert.True(t, dash.BudgetRate.Equal(dec("25")), "rate: %s", dash.BudgetRate)
	assert.Equal(t, 1, dash.DraftEntries)
	assert.Equal(t, 1, dash.ActiveProjects)
	assert.Equal(t, 1, dash.ActiveDonors)
}
