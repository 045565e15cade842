package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	intdb "bookeosync/internal/db"
	"bookeosync/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSyncStateGetMissingKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT last_sync_time FROM SyncState").
		WithArgs(models.DefaultSyncKey).
		WillReturnError(sql.ErrNoRows)

	repo := SyncStateRepository{DB: db, Dialect: intdb.DialectSQLServer}
	_, found, err := repo.Get(context.Background(), models.DefaultSyncKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("missing key must report found=false, not an error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSyncStateGetReturnsUTC(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	stored := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT last_sync_time FROM SyncState").
		WithArgs(models.DefaultSyncKey).
		WillReturnRows(sqlmock.NewRows([]string{"last_sync_time"}).AddRow(stored))

	repo := SyncStateRepository{DB: db, Dialect: intdb.DialectMySQL}
	got, found, err := repo.Get(context.Background(), models.DefaultSyncKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if !got.Equal(stored) {
		t.Fatalf("checkpoint = %s, want %s", got, stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSyncStateSetAdvancesExistingCheckpoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	ts := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE SyncState SET last_sync_time").
		WithArgs(ts, models.DefaultSyncKey, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := SyncStateRepository{DB: db, Dialect: intdb.DialectSQLServer}
	if err := repo.Set(context.Background(), models.DefaultSyncKey, ts); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSyncStateSetNeverRegresses(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	older := time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)
	newer := older.Add(2 * time.Hour)

	// The conditional update matches nothing because the stored checkpoint is
	// newer, and the follow-up select finds the row, so no insert happens.
	mock.ExpectExec("UPDATE SyncState SET last_sync_time").
		WithArgs(older, models.DefaultSyncKey, older).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT last_sync_time FROM SyncState").
		WithArgs(models.DefaultSyncKey).
		WillReturnRows(sqlmock.NewRows([]string{"last_sync_time"}).AddRow(newer))

	repo := SyncStateRepository{DB: db, Dialect: intdb.DialectMySQL}
	if err := repo.Set(context.Background(), models.DefaultSyncKey, older); err != nil {
		t.Fatalf("set with stale timestamp must succeed silently: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSyncStateSetInsertsFirstCheckpoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	ts := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE SyncState SET last_sync_time").
		WithArgs(ts, models.DefaultSyncKey, ts).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT last_sync_time FROM SyncState").
		WithArgs(models.DefaultSyncKey).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO SyncState").
		WithArgs(models.DefaultSyncKey, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := SyncStateRepository{DB: db, Dialect: intdb.DialectSQLServer}
	if err := repo.Set(context.Background(), models.DefaultSyncKey, ts); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
