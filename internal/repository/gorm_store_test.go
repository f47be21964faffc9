package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockGorm(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *GormStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock, NewGormStore(gdb)
}

func TestGormStoreGet(t *testing.T) {
	db, mock, store := setupMockGorm(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"collection", "payload", "updated_at"}).
		AddRow("rooms", []byte(`[{"id":7}]`), time.Now())
	mock.ExpectQuery(`SELECT \* FROM "documents"`).WillReturnRows(rows)

	got, err := store.Get(context.Background(), RoomsCollection)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":7}]`, string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetNotFound(t *testing.T) {
	db, mock, store := setupMockGorm(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM "documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"collection", "payload", "updated_at"}))

	_, err := store.Get(context.Background(), MinimapCollection)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorePutUpserts(t *testing.T) {
	db, mock, store := setupMockGorm(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO "documents" .* ON CONFLICT \("collection"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Put(context.Background(), SensorsCollection, []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreDelete(t *testing.T) {
	db, mock, store := setupMockGorm(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM "documents"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), ScenarioCollection))
	require.NoError(t, mock.ExpectationsWereMet())
}
