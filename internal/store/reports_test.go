package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// post inserts a draft or validated two-line entry.
func (f *entryFixture) post(t *testing.T, number string, status model.EntryStatus, debit, credit model.EntryLine) model.Entry {
	t.Helper()
	e := f.newEntry(number, 10, "0")
	e.Status = status
	e.Lines = []model.EntryLine{debit, credit}
	require.NoError(t, f.st.CreateEntry(context.Background(), &e))
	return e
}

func TestAccountTotals(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	f.post(t, "PC202500001", model.StatusValidated,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("100.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("100.00")})
	f.post(t, "PC202500002", model.StatusDraft,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("50.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("50.00")})

	all, err := f.st.AccountTotals(ctx, TotalsFilter{FiscalYearID: f.year.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "521", all[0].Account.Number, "ordered by number")
	assert.True(t, all[0].Credit.Equal(dec("150.00")))
	assert.True(t, all[1].Debit.Equal(dec("150.00")))

	validated, err := f.st.AccountTotals(ctx, TotalsFilter{FiscalYearID: f.year.ID, ValidatedOnly: true})
	require.NoError(t, err)
	require.Len(t, validated, 2)
	assert.True(t, validated[1].Debit.Equal(dec("100.00")), "drafts excluded")

	banks, err := f.st.AccountTotals(ctx, TotalsFilter{NumberPrefix: "52"})
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, f.bank.ID, banks[0].Account.ID)
}

func TestClassTotals(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	f.post(t, "PC202500001", model.StatusValidated,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("100.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("100.00")})
	f.post(t, "PC202500002", model.StatusDraft,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("40.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("40.00")})

	debit, credit, err := f.st.ClassTotals(ctx, f.year.ID, model.ClassExpense, true)
	require.NoError(t, err)
	assert.True(t, debit.Equal(dec("100.00")))
	assert.True(t, credit.IsZero())

	debit, _, err = f.st.ClassTotals(ctx, f.year.ID, model.ClassExpense, false)
	require.NoError(t, err)
	assert.True(t, debit.Equal(dec("140.00")))
}

func TestRealizedByBudgetLine(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	// Direct tag on the line.
	f.post(t, "PC202500001", model.StatusValidated,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("100.00"), ProjectID: f.project.ID, BudgetLineID: f.line.ID},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("100.00")})

	// Allocation split: 40% of 50.00 lands on the same budget line.
	f.post(t, "PC202500002", model.StatusValidated,
		model.EntryLine{
			AccountID: f.expense.ID, Debit: dec("50.00"),
			Allocations: []model.Allocation{
				{ProjectID: f.project.ID, BudgetLineID: f.line.ID, Percent: dec("40"), Amount: dec("20.00")},
			},
		},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("50.00")})

	byLine, err := f.st.RealizedByBudgetLine(ctx, f.project.ID)
	require.NoError(t, err)
	require.Contains(t, byLine, f.line.ID)
	assert.True(t, byLine[f.line.ID].Equal(dec("120.00")), "got %s", byLine[f.line.ID])
}

func TestRealizedForProject_IncludesUntaggedLines(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	f.post(t, "PC202500001", model.StatusValidated,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("100.00"), ProjectID: f.project.ID, BudgetLineID: f.line.ID},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("100.00")})

	// Tagged to the project but to no budget line.
	f.post(t, "PC202500002", model.StatusValidated,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("30.00"), ProjectID: f.project.ID},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("30.00")})

	total, err := f.st.RealizedForProject(ctx, f.project.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("130.00")), "got %s", total)
}

func TestAllocatedExpenseTotal(t *testing.T) {
	f := newEntryFixture(t)
	ctx := context.Background()

	// Direct project tag.
	f.post(t, "PC202500001", model.StatusValidated,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("100.00"), ProjectID: f.project.ID},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("100.00")})

	// Split across projects without a direct tag.
	f.post(t, "PC202500002", model.StatusValidated,
		model.EntryLine{
			AccountID: f.expense.ID, Debit: dec("50.00"),
			Allocations: []model.Allocation{
				{ProjectID: f.project.ID, Percent: dec("100"), Amount: dec("50.00")},
			},
		},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("50.00")})

	// Untagged expense counts toward nothing.
	f.post(t, "PC202500003", model.StatusValidated,
		model.EntryLine{AccountID: f.expense.ID, Debit: dec("25.00")},
		model.EntryLine{AccountID: f.bank.ID, Credit: dec("25.00")})

	total, err := f.st.AllocatedExpenseTotal(ctx, f.year.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("150.00")), "got %s", total)
}
