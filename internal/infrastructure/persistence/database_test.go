package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fishfarm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T, cfg *config.DatabaseConfig) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	if cfg == nil {
		cfg = &config.DatabaseConfig{MaxOpenConns: 4, MaxIdleConns: 2}
	}
	mock.ExpectPing()
	db, err := Open(postgres.New(postgres.Config{Conn: mockDB}), cfg, WithPreparedStatements(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return db, mock
}

func TestOpen_SizesPool(t *testing.T) {
	db, mock := newMockDatabase(t, &config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 3})

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 7, stats.MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PingFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(assert.AnError)
	mock.ExpectClose()

	_, err = Open(postgres.New(postgres.Config{Conn: mockDB}), &config.DatabaseConfig{}, WithPreparedStatements(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_PingAndClose(t *testing.T) {
	db, mock := newMockDatabase(t, nil)

	mock.ExpectPing()
	assert.NoError(t, db.Ping())

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	type pond struct {
		ID   uint
		Name string
	}

	t.Run("commits", func(t *testing.T) {
		db, mock := newMockDatabase(t, nil)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "ponds"`).
			WithArgs("pond-a").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&pond{Name: "pond-a"}).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDatabase(t, nil)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error { return assert.AnError })
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryTimeoutPlugin_SetsDeadline(t *testing.T) {
	db, mock := newMockDatabase(t, &config.DatabaseConfig{QueryTimeout: time.Second})

	var sawDeadline bool
	require.NoError(t, db.DB.Callback().Query().Before("gorm:query").After(queryTimeoutPluginName+":before").
		Register("test:deadline", func(tx *gorm.DB) {
			_, sawDeadline = tx.Statement.Context.Deadline()
		}))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "storage_locations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	var n int64
	require.NoError(t, db.DB.WithContext(context.Background()).Table("storage_locations").Count(&n).Error)
	assert.True(t, sawDeadline)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryTimeoutPlugin_KeepsCallerDeadline(t *testing.T) {
	db, mock := newMockDatabase(t, &config.DatabaseConfig{QueryTimeout: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	want, _ := ctx.Deadline()

	var got time.Time
	require.NoError(t, db.DB.Callback().Query().Before("gorm:query").After(queryTimeoutPluginName+":before").
		Register("test:deadline", func(tx *gorm.DB) {
			got, _ = tx.Statement.Context.Deadline()
		}))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "transfers"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	var n int64
	require.NoError(t, db.DB.WithContext(ctx).Table("transfers").Count(&n).Error)
	assert.Equal(t, want, got)
}
