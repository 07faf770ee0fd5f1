package dailyrecord

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordCols = []string{
	"id", "student_id", "class_id", "record_date", "created_by_staff_id", "last_modified_by_staff_id",
	"first_course", "second_course", "dessert", "snack", "meal_notes",
	"nap_taken", "nap_start", "nap_end", "nap_notes",
	"bowel_movement", "bowel_count", "bowel_notes",
	"need_diapers", "need_wipes", "need_change_of_clothes", "other_supply_note", "general_notes",
	"deleted", "reviewed_by_guardian", "reviewed_at", "guardian_comment",
	"created_at", "last_modified_at",
}

const (
	canonicalS1 = "registro_20240301_S1"
	selectByID  = `FROM daily_records WHERE id = \?`
)

// S1 / 2024-03-01 の行
func recordRows(id, notes string, modified time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(recordCols).AddRow(
		id, "S1", "C1", testDay, "staff-a", "staff-a",
		"", "", "", "", "",
		false, nil, nil, "",
		false, int64(0), "",
		false, false, false, "", notes,
		false, false, nil, "",
		testNow, modified,
	)
}

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn, time.UTC), mock
}

func TestSQLStore_FindAdoptsLegacyRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectByID).WithArgs(canonicalS1).WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectQuery(regexp.QuoteMeta("id LIKE ? ORDER BY last_modified_at DESC, id DESC")).
		WithArgs("S1", "2024-03-01", legacyLike()).
		WillReturnRows(recordRows("temp_abc", "legacy", testNow))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE daily_records SET id = ? WHERE id = ?")).
		WithArgs(canonicalS1, "temp_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, found, err := store.Find(context.Background(), canonicalS1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, canonicalS1, got.ID)
	assert.Equal(t, "legacy", got.GeneralNotes)
	assert.Equal(t, testDay, got.Date)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_FindByLegacyIDReturnsCanonical(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectByID).WithArgs("temp_abc").WillReturnRows(recordRows("temp_abc", "legacy", testNow))
	mock.ExpectQuery(selectByID).WithArgs(canonicalS1).WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectQuery(regexp.QuoteMeta("id LIKE ?")).
		WithArgs("S1", "2024-03-01", legacyLike()).
		WillReturnRows(recordRows("temp_abc", "legacy", testNow))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE daily_records SET id = ? WHERE id = ?")).
		WithArgs(canonicalS1, "temp_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, found, err := store.Find(context.Background(), "temp_abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, canonicalS1, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_FindStaleLegacyIDIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectByID).WithArgs("temp_abc").WillReturnRows(recordRows("temp_abc", "stale legacy", testNow))
	mock.ExpectQuery(selectByID).WithArgs(canonicalS1).WillReturnRows(recordRows(canonicalS1, "", testNow))
	mock.ExpectCommit()

	_, found, err := store.Find(context.Background(), "temp_abc")
	require.NoError(t, err)
	assert.False(t, found)
	// UPDATE は流れない
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetOrCreateDuplicateKeyReturnsWinner(t *testing.T) {
	store, mock := newMockStore(t)
	rec := newRecord(testDay, "S1", "C1", "staff-b", testNow)

	mock.ExpectBegin()
	mock.ExpectQuery(selectByID + ` FOR UPDATE`).WithArgs(canonicalS1).WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectQuery(regexp.QuoteMeta("id LIKE ?")).
		WithArgs("S1", "2024-03-01", legacyLike()).
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectExec("INSERT INTO daily_records").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	// 負けた側は勝者の行を読み直す
	mock.ExpectBegin()
	mock.ExpectQuery(selectByID).WithArgs(canonicalS1).WillReturnRows(recordRows(canonicalS1, "winner", testNow))
	mock.ExpectCommit()

	got, created, err := store.GetOrCreate(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, canonicalS1, got.ID)
	assert.Equal(t, "winner", got.GeneralNotes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Exists(t *testing.T) {
	t.Run("canonical", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? AND deleted = 0")).
			WithArgs(canonicalS1).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectCommit()

		ok, err := store.Exists(context.Background(), canonicalS1)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale legacy", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectByID).WithArgs("temp_abc").WillReturnRows(recordRows("temp_abc", "stale legacy", testNow))
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? OR (student_id = ?")).
			WithArgs(canonicalS1, "S1", "2024-03-01", legacyLike(), sqlmock.AnyArg(), sqlmock.AnyArg(), "temp_abc").
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectCommit()

		ok, err := store.Exists(context.Background(), "temp_abc")
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unparseable id", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? AND deleted = 0")).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{"1"}))
		mock.ExpectCommit()

		ok, err := store.Exists(context.Background(), "nope")
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
