package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBlob = `[{"general":{"ticker":"AAPL"},"technicalIndicators":{"rsi":"55.1","macd":[],"crossPosition":"Down","bollinger":{"upper":"1","middle":"1","lower":"1"},"sma":"1"}}]`

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{conn: sqlDB, driver: DriverPostgres}, mock
}

func TestPutWatchlistBlob_Success(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO watchlists .* ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs(int64(7), sampleBlob, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.PutWatchlistBlob(context.Background(), 7, []byte(sampleBlob))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutWatchlistBlob_RollsBackOnExecError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO watchlists").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := db.PutWatchlistBlob(context.Background(), 7, []byte(sampleBlob))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save watchlist")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutWatchlistBlob_ReturnsErrorIfBeginFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("begin failed"))

	err := db.PutWatchlistBlob(context.Background(), 7, []byte("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutWatchlistBlob_CommitError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO watchlists").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := db.PutWatchlistBlob(context.Background(), 7, []byte("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
}

func TestGetWatchlistBlob_Mock(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT stocks\s+FROM watchlists\s+WHERE user_id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"stocks"}).AddRow(sampleBlob))

		blob, found, err := db.GetWatchlistBlob(context.Background(), 3)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, sampleBlob, string(blob))
	})

	t.Run("absent", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT stocks").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"stocks"}))

		blob, found, err := db.GetWatchlistBlob(context.Background(), 3)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, blob)
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT stocks").WillReturnError(errors.New("connection reset"))

		_, found, err := db.GetWatchlistBlob(context.Background(), 3)
		require.Error(t, err)
		assert.False(t, found)
		assert.Contains(t, err.Error(), "failed to get watchlist")
	})
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	lite := &DB{driver: DriverSQLite}

	query := "INSERT INTO t (a, b, c) VALUES ($1, $2, $1) -- $12"
	assert.Equal(t, query, pg.rebind(query))
	assert.Equal(t, "INSERT INTO t (a, b, c) VALUES (?1, ?2, ?1) -- ?12", lite.rebind(query))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New("mysql", "root@/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestWatchlistBlob_SQLite(t *testing.T) {
	testDB := SetupSQLiteDB(t)
	ctx := context.Background()
	user := createTestUser(t, testDB.DB, "alice")

	_, found, err := testDB.GetWatchlistBlob(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, testDB.PutWatchlistBlob(ctx, user.ID, []byte(sampleBlob)))
	blob, found, err := testDB.GetWatchlistBlob(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sampleBlob, string(blob))

	require.NoError(t, testDB.PutWatchlistBlob(ctx, user.ID, []byte("[]")))
	blob, found, err = testDB.GetWatchlistBlob(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", string(blob))

	var rows int
	require.NoError(t, testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM watchlists`).Scan(&rows))
	assert.Equal(t, 1, rows, "one row per user")

	require.NoError(t, testDB.DeleteWatchlist(ctx, user.ID))
	_, found, err = testDB.GetWatchlistBlob(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWatchlistBlob_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()

	t.Run("upsert keeps one row and exact text", func(t *testing.T) {
		testDB.TruncateAll(t)
		user := createTestUser(t, testDB.DB, "bob")

		require.NoError(t, testDB.PutWatchlistBlob(ctx, user.ID, []byte("[]")))
		require.NoError(t, testDB.PutWatchlistBlob(ctx, user.ID, []byte(sampleBlob)))

		blob, found, err := testDB.GetWatchlistBlob(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, sampleBlob, string(blob))
	})

	t.Run("users are isolated", func(t *testing.T) {
		testDB.TruncateAll(t)
		a := createTestUser(t, testDB.DB, "carol")
		b := createTestUser(t, testDB.DB, "dave")

		require.NoError(t, testDB.PutWatchlistBlob(ctx, a.ID, []byte(sampleBlob)))

		_, found, err := testDB.GetWatchlistBlob(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unknown user violates foreign key", func(t *testing.T) {
		testDB.TruncateAll(t)
		err := testDB.PutWatchlistBlob(ctx, 999999, []byte("[]"))
		assert.Error(t, err)
	})
}
