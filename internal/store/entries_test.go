package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// entryFixture holds the reference rows an entry needs.
type entryFixture struct {
	st      *Store
	journal model.Journal
	year    model.FiscalYear
	bank    model.Account
	expense model.Account
	project model.Project
	line    model.BudgetLine
}

func newEntryFixture(t *testing.T) *entryFixture {
	t.Helper()
	st := testStore(t)
	ctx := context.Background()

	f := &entryFixture{
		st:      st,
		journal: addJournal(t, st, "AC", model.JournalPurchases),
		year:    addFiscalYear(t, st, 2025),
		bank:    addAccount(t, st, "521", "Banques", 5, model.AccountTypeAsset),
		expense: addAccount(t, st, "601", "Achats", 6, model.AccountTypeExpense),
	}

	f.project = model.Project{Code: "EDU01", Name: "Éducation", Status: model.ProjectActive}
	require.NoError(t, st.CreateProject(ctx, &f.project))

	f.line = model.BudgetLine{
		ProjectID: f.project.ID, Code: "1.1", Name: "Fournitures scolaires",
		Quantity: dec("1"), UnitCost: dec("1000"), PlannedAmount: dec("1000.00"),
	}
	require.NoError(t, st.CreateBudgetLine(ctx, &f.line))

	return f
}

func (f *entryFixture) newEntry(number string, day int, amount string) model.Entry {
	return model.Entry{
		Number:       number,
		Date:         date(2025, 3, day),
		JournalID:    f.journal.ID,
		FiscalYearID: f.year.ID,
		Label:        "Achat fournitures",
		ExchangeRate: dec("1"),
		Status:       model.StatusDraft,
		CreatedAt:    time.Now(),
		Lines: []model.EntryLine{
			{AccountID: f.expense.ID, Debit: dec(amount)},
			{AccountID: f.bank.ID, Credit: dec(amount)},
		},
	}
}

func TestEntries_CreateGetRoundTrip(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	e := f.newEntry("PC202500001", 15, "125.50")
	e.Reference = "FACT-042"
	e.Lines[0].ProjectID = f.project.ID
	e.Lines[0].BudgetLineID = f.line.ID
	e.Lines[0].Label = "cahiers"
	require.NoError(t, f.st.CreateEntry(ctx, &e))
	require.NotZero(t, e.ID)

	got, err := f.st.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "PC202500001", got.Number)
	assert.Equal(t, "FACT-042", got.Reference)
	assert.True(t, got.Date.Equal(date(2025, 3, 15)))
	assert.True(t, got.ExchangeRate.Equal(dec("1")))

	require.Len(t, got.Lines, 2)
	assert.Equal(t, f.project.ID, got.Lines[0].ProjectID)
	assert.Equal(t, f.line.ID, got.Lines[0].BudgetLineID)
	assert.Equal(t, "cahiers", got.Lines[0].Label)
	assert.True(t, got.Lines[0].Debit.Equal(dec("125.50")))
	assert.True(t, got.Lines[1].Credit.Equal(dec("125.50")))
	assert.Zero(t, got.Lines[1].ProjectID)
}

func TestEntries_Allocations(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	e := f.newEntry("PC202500001", 10, "100.00")
	e.Lines[0].Allocations = []model.Allocation{
		{ProjectID: f.project.ID, BudgetLineID: f.line.ID, Percent: dec("100"), Amount: dec("100.00")},
	}
	require.NoError(t, f.st.CreateEntry(ctx, &e))

	got, err := f.st.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines[0].Allocations, 1)
	al := got.Lines[0].Allocations[0]
	assert.Equal(t, f.project.ID, al.ProjectID)
	assert.True(t, al.Percent.Equal(dec("100")))
	assert.True(t, al.Amount.Equal(dec("100.00")))
}

func TestEntries_UpdateReplacesLines(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	e := f.newEntry("PC202500001", 10, "100.00")
	require.NoError(t, f.st.CreateEntry(ctx, &e))

	e.Label = "Achat corrigé"
	e.Lines = []model.EntryLine{
		{AccountID: f.expense.ID, Debit: dec("60.00")},
		{AccountID: f.expense.ID, Debit: dec("40.00")},
		{AccountID: f.bank.ID, Credit: dec("100.00")},
	}
	require.NoError(t, f.st.UpdateEntry(ctx, &e))

	got, err := f.st.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Achat corrigé", got.Label)
	assert.Len(t, got.Lines, 3)
}

func TestEntries_DuplicateNumber(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	e1 := f.newEntry("PC202500001", 10, "10.00")
	require.NoError(t, f.st.CreateEntry(ctx, &e1))

	e2 := f.newEntry("PC202500001", 11, "20.00")
	assert.ErrorIs(t, f.st.CreateEntry(ctx, &e2), ErrDuplicate)
}

func TestEntries_ListFilters(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	e1 := f.newEntry("PC202500001", 10, "10.00")
	e1.Lines[0].ProjectID = f.project.ID
	require.NoError(t, f.st.CreateEntry(ctx, &e1))

	e2 := f.newEntry("PC202500002", 20, "20.00")
	e2.Label = "Location salle"
	require.NoError(t, f.st.CreateEntry(ctx, &e2))
	require.NoError(t, f.st.SetEntryStatus(ctx, e2.ID, model.StatusValidated))

	all, err := f.st.ListEntries(ctx, EntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "PC202500002", all[0].Number, "newest first")

	drafts, err := f.st.ListEntries(ctx, EntryFilter{Status: model.StatusDraft})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, e1.ID, drafts[0].ID)

	byProject, err := f.st.ListEntries(ctx, EntryFilter{ProjectID: f.project.ID})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, e1.ID, byProject[0].ID)

	bySearch, err := f.st.ListEntries(ctx, EntryFilter{Search: "Location"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, e2.ID, bySearch[0].ID)

	byDate, err := f.st.ListEntries(ctx, EntryFilter{From: date(2025, 3, 15)})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, e2.ID, byDate[0].ID)

	limited, err := f.st.ListEntries(ctx, EntryFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, e1.ID, limited[0].ID)
}

func TestEntries_MaxNumberAndCounts(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	max, err := f.st.MaxEntryNumber(ctx, "PC2025")
	require.NoError(t, err)
	assert.Empty(t, max)

	e1 := f.newEntry("PC202500001", 10, "10.00")
	require.NoError(t, f.st.CreateEntry(ctx, &e1))
	e2 := f.newEntry("PC202500002", 11, "20.00")
	require.NoError(t, f.st.CreateEntry(ctx, &e2))
	require.NoError(t, f.st.SetEntryStatus(ctx, e2.ID, model.StatusValidated))

	max, err = f.st.MaxEntryNumber(ctx, "PC2025")
	require.NoError(t, err)
	assert.Equal(t, "PC202500002", max)

	drafts, err := f.st.CountDraftEntries(ctx, f.year.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, drafts)

	total, err := f.st.CountEntries(ctx, f.year.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	stale, err := f.st.CountStaleDrafts(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stale, "draft created before the cutoff is stale")
}

func TestEntries_DeleteCascadesLines(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	e := f.newEntry("PC202500001", 10, "10.00")
	require.NoError(t, f.st.CreateEntry(ctx, &e))
	require.NoError(t, f.st.DeleteEntry(ctx, e.ID))

	_, err := f.st.GetEntry(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.st.DeleteEntry(ctx, e.ID), ErrNotFound)
}
