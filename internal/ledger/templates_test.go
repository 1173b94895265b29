package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

func (f *fixture) rentTemplate(amount string) TemplateParams {
	return TemplateParams{
		Name:      "Loyer mensuel",
		JournalID: f.journal,
		Label:     "Loyer bureau",
		Frequency: "monthly",
		Lines: []TemplateLineParams{
			{AccountID: f.supplies, Side: model.SideDebit, Amount: dec(amount), ProjectID: f.project},
			{AccountID: f.bank, Side: model.SideCredit, Amount: dec(amount)},
		},
	}
}

func TestApplyTemplate_CreatesDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.now = func() time.Time { return date(2025, 6, 1) }

	tpl, err := f.svc.CreateTemplate(ctx, f.rentTemplate("250.00"))
	require.NoError(t, err)
	assert.True(t, tpl.Active)

	e, err := f.svc.ApplyTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "PC202500001", e.Number)
	assert.Equal(t, model.StatusDraft, e.Status)
	assert.Equal(t, "Loyer bureau", e.Label)
	require.Len(t, e.Lines, 2)
	assert.True(t, e.Lines[0].Debit.Equal(dec("250.00")))
	assert.Equal(t, f.project, e.Lines[0].ProjectID)
	assert.True(t, e.Lines[1].Credit.Equal(dec("250.00")))

	got, err := f.svc.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.False(t, got.LastApplied.IsZero(), "applying stamps the template")
}

func TestApplyTemplate_InactiveRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.now = func() time.Time { return date(2025, 6, 1) }

	params := f.rentTemplate("250.00")
	inactive := false
	params.Active = &inactive

	tpl, err := f.svc.CreateTemplate(ctx, params)
	require.NoError(t, err)

	_, err = f.svc.ApplyTemplate(ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrTemplateInactive)
}

func TestApplyTemplate_UnbalancedRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.now = func() time.Time { return date(2025, 6, 1) }

	params := f.rentTemplate("250.00")
	params.Lines[1].Amount = dec("200.00")

	tpl, err := f.svc.CreateTemplate(ctx, params)
	require.NoError(t, err)

	_, err = f.svc.ApplyTemplate(ctx, tpl.ID)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, 2, verrs[0].Invariant)
}

func TestUpdateTemplate_ReplacesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tpl, err := f.svc.CreateTemplate(ctx, f.rentTemplate("250.00"))
	require.NoError(t, err)

	params := f.rentTemplate("300.00")
	params.Name = "Loyer revu"
	updated, err := f.svc.UpdateTemplate(ctx, tpl.ID, params)
	require.NoError(t, err)
	assert.Equal(t, "Loyer revu", updated.Name)
	require.Len(t, updated.Lines, 2)
	assert.True(t, updated.Lines[0].Amount.Equal(dec("300.00")))
}

func TestCreateTemplate_DuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTemplate(ctx, f.rentTemplate("250.00"))
	require.NoError(t, err)

	_, err = f.svc.CreateTemplate(ctx, f.rentTemplate("100.00"))
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestDeleteTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tpl, err := f.svc.CreateTemplate(ctx, f.rentTemplate("250.00"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTemplate(ctx, tpl.ID))

	_, err = f.svc.GetTemplate(ctx, tpl.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
