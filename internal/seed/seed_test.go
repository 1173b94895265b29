package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())
	return st
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApply(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	require.NoError(t, Apply(ctx, st, discard()))

	currencies, err := st.ListCurrencies(ctx)
	require.NoError(t, err)
	assert.Len(t, currencies, 4)

	xof, err := st.GetCurrencyByCode(ctx, "XOF")
	require.NoError(t, err)
	assert.Equal(t, "1", xof.BaseRate.String(), "XOF is the base currency")

	journals, err := st.ListJournals(ctx)
	require.NoError(t, err)
	assert.Len(t, journals, 5)

	categories, err := st.ListBudgetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 7)
	assert.Equal(t, "LABOR", categories[0].Code, "ordered by rank")

	accounts, err := st.ListAccounts(ctx, true)
	require.NoError(t, err)
	assert.Greater(t, len(accounts), 100)

	bank, err := st.GetAccountByNumber(ctx, "521")
	require.NoError(t, err)
	assert.Equal(t, 5, bank.Class)
	assert.Equal(t, model.AccountTypeAsset, bank.Type)

	// The current calendar year is open for capture.
	_, err = st.GetOpenFiscalYearFor(ctx, time.Now().UTC().Truncate(24*time.Hour))
	assert.NoError(t, err)
}

func TestApply_Idempotent(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	require.NoError(t, Apply(ctx, st, discard()))
	before, err := st.CountAccounts(ctx)
	require.NoError(t, err)

	require.NoError(t, Apply(ctx, st, discard()))
	after, err := st.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApply_AccountClassesMatchNumbers(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	require.NoError(t, Apply(ctx, st, discard()))

	accounts, err := st.ListAccounts(ctx, false)
	require.NoError(t, err)
	for _, a := range accounts {
		require.NotEmpty(t, a.Number)
		assert.Equal(t, int(a.Number[0]-'0'), a.Class, "account %s", a.Number)
	}
}
