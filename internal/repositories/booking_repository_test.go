package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	intdb "bookeosync/internal/db"
	"bookeosync/internal/domain"
	"bookeosync/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func testRow(number string, canceled bool) models.BookingRow {
	return models.BookingRow{
		BookingNumber: number,
		ProductName:   "Candle Workshop",
		StartTime:     "2026-03-14T18:00:00-07:00",
		Canceled:      canceled,
		Accepted:      true,
		TotalGross:    "125.50",
		Currency:      "USD",
		RawJSON:       `{"bookingNumber":"` + number + `"}`,
	}
}

func TestEnsureSchemaCreatesFreshTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES").
		WithArgs("Bookings").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("CREATE TABLE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := BookingRepository{DB: db, Dialect: intdb.DialectSQLServer}
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchemaAddsMissingColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES").
		WithArgs("Bookings").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("Bookings"))
	mock.ExpectQuery("SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS").
		WithArgs("Bookings", "total_participants").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("ALTER TABLE Bookings ADD COLUMN total_participants INT").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := BookingRepository{DB: db, Dialect: intdb.DialectMySQL}
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchemaNoopWhenCurrent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES").
		WithArgs("Bookings").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("Bookings"))
	mock.ExpectQuery("SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS").
		WithArgs("Bookings", "total_participants").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).AddRow("total_participants"))

	repo := BookingRepository{DB: db, Dialect: intdb.DialectSQLServer}
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertBatchMySQLUsesOnDuplicateKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO Bookings .*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := BookingRepository{DB: db, Dialect: intdb.DialectMySQL}
	written, err := repo.UpsertBatch(context.Background(), []models.BookingRow{testRow("B-100", false)})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if written != 1 {
		t.Fatalf("written = %d, want 1", written)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertBatchSQLServerUpdatesExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	// Existing row: the update matches, no insert follows.
	mock.ExpectExec("UPDATE Bookings SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := BookingRepository{DB: db, Dialect: intdb.DialectSQLServer}
	if _, err := repo.UpsertBatch(context.Background(), []models.BookingRow{testRow("B-100", true)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertBatchSQLServerInsertsNewRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE Bookings SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO Bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := BookingRepository{DB: db, Dialect: intdb.DialectSQLServer}
	if _, err := repo.UpsertBatch(context.Background(), []models.BookingRow{testRow("B-101", false)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertBatchRollsBackOnMidBatchFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO Bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO Bookings").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	repo := BookingRepository{DB: db, Dialect: intdb.DialectMySQL}
	rows := []models.BookingRow{testRow("B-1", false), testRow("B-2", false)}
	_, err = repo.UpsertBatch(context.Background(), rows)
	if err == nil {
		t.Fatal("expected mid-batch failure to surface")
	}
	if !domain.IsPersistence(err) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertBatchSkipsRowsWithoutKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO Bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := BookingRepository{DB: db, Dialect: intdb.DialectMySQL}
	rows := []models.BookingRow{{BookingNumber: "  "}, testRow("B-1", false)}
	written, err := repo.UpsertBatch(context.Background(), rows)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if written != 1 {
		t.Fatalf("written = %d, want 1 (keyless row skipped)", written)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertBatchEmptyInputNoTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	repo := BookingRepository{DB: db, Dialect: intdb.DialectSQLServer}
	written, err := repo.UpsertBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if written != 0 {
		t.Fatalf("written = %d, want 0", written)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
