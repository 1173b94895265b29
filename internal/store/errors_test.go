package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongbook-dev/ongbook/internal/model"
)

func mockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: db}, mock
}

func TestGetAccount_QueryError(t *testing.T) {
	st, mock := mockStore(t)
	boom := errors.New("disk I/O error")
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \?`).WillReturnError(boom)

	_, err := st.GetAccount(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEntry_RollbackOnLineFailure(t *testing.T) {
	st, mock := mockStore(t)
	boom := errors.New("constraint failed")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO entries`).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(`INSERT INTO entry_lines`).WillReturnError(boom)
	mock.ExpectRollback()

	e := model.Entry{
		Number: "PC202500001", Date: date(2025, 3, 1), JournalID: 1, FiscalYearID: 1,
		Label: "test", ExchangeRate: dec("1"), Status: model.StatusDraft, CreatedAt: date(2025, 3, 1),
		Lines: []model.EntryLine{
			{AccountID: 1, Debit: dec("10.00")},
			{AccountID: 2, Credit: dec("10.00")},
		},
	}
	err := st.CreateEntry(context.Background(), &e)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEntries_RowScanError(t *testing.T) {
	st, mock := mockStore(t)

	rows := sqlmock.NewRows([]string{"id", "number"}).AddRow(1, "PC202500001")
	mock.ExpectQuery(`SELECT .+ FROM entries`).WillReturnRows(rows)

	_, err := st.ListEntries(context.Background(), EntryFilter{})
	assert.Error(t, err, "short row must not scan")
	assert.NoError(t, mock.ExpectationsWereMet())
}
