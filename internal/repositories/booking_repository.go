package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intconfig "bookeosync/internal/config"
	intdb "bookeosync/internal/db"
	"bookeosync/internal/domain"
	"bookeosync/internal/domain/models"
)

// BookingRepository is the idempotent writer for the Bookings table.
// A row with a previously seen booking_number is fully replaced; the provider
// is the sole source of truth.
type BookingRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// bookingColumns is the insert column order shared by both dialects.
var bookingColumns = []string{
	"booking_number", "event_id", "product_id", "product_name",
	"start_time", "end_time", "customer_id", "title",
	"canceled", "accepted", "no_show", "private_event",
	"source_ip", "cancelation_time", "creation_time", "last_change_time", "last_change_agent",
	"total_participants", "total_gross", "total_net", "total_paid", "currency",
	"raw_json",
}

func bookingValues(b models.BookingRow) []any {
	return []any{
		b.BookingNumber,
		intdb.NullIfEmpty(b.EventID),
		intdb.NullIfEmpty(b.ProductID),
		intdb.NullIfEmpty(b.ProductName),
		intdb.NullIfEmpty(b.StartTime),
		intdb.NullIfEmpty(b.EndTime),
		intdb.NullIfEmpty(b.CustomerID),
		intdb.NullIfEmpty(b.Title),
		b.Canceled,
		b.Accepted,
		b.NoShow,
		b.PrivateEvent,
		intdb.NullIfEmpty(b.SourceIP),
		intdb.NullIfEmpty(b.CancelationTime),
		intdb.NullIfEmpty(b.CreationTime),
		intdb.NullIfEmpty(b.LastChangeTime),
		intdb.NullIfEmpty(b.LastChangeAgent),
		b.TotalParticipants,
		intdb.NullIfEmpty(b.TotalGross),
		intdb.NullIfEmpty(b.TotalNet),
		intdb.NullIfEmpty(b.TotalPaid),
		intdb.NullIfEmpty(b.Currency),
		intdb.NullIfEmpty(b.RawJSON),
	}
}

// EnsureSchema creates the Bookings table, or brings an existing one up to
// the current column set.
func (r BookingRepository) EnsureSchema(ctx context.Context) error {
	db := r.db()
	if db == nil {
		return domain.PersistenceError{Op: "ensure_schema", Err: fmt.Errorf("db not connected")}
	}

	if intdb.HasTable(db, r.Dialect, "Bookings") {
		return r.migrate(ctx, db)
	}

	var ddl string
	if r.Dialect == intdb.DialectMySQL {
		ddl = `
			CREATE TABLE IF NOT EXISTS Bookings (
				booking_number VARCHAR(50) PRIMARY KEY,
				event_id VARCHAR(100),
				product_id VARCHAR(50),
				product_name VARCHAR(500),
				start_time VARCHAR(40),
				end_time VARCHAR(40),
				customer_id VARCHAR(50),
				title VARCHAR(255),
				canceled BOOLEAN NOT NULL DEFAULT FALSE,
				accepted BOOLEAN NOT NULL DEFAULT TRUE,
				no_show BOOLEAN NOT NULL DEFAULT FALSE,
				private_event BOOLEAN NOT NULL DEFAULT FALSE,
				source_ip VARCHAR(45),
				cancelation_time VARCHAR(40),
				creation_time VARCHAR(40),
				last_change_time VARCHAR(40),
				last_change_agent VARCHAR(255),
				total_participants INT,
				total_gross VARCHAR(20),
				total_net VARCHAR(20),
				total_paid VARCHAR(20),
				currency VARCHAR(10),
				raw_json LONGTEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				INDEX IX_Bookings_StartTime (start_time),
				INDEX IX_Bookings_CustomerId (customer_id),
				INDEX IX_Bookings_ProductId (product_id)
			)`
	} else {
		ddl = `
			IF NOT EXISTS (SELECT * FROM sys.tables WHERE name = 'Bookings')
			BEGIN
				CREATE TABLE Bookings (
					booking_number NVARCHAR(50) PRIMARY KEY,
					event_id NVARCHAR(100),
					product_id NVARCHAR(50),
					product_name NVARCHAR(500),
					start_time DATETIMEOFFSET,
					end_time DATETIMEOFFSET,
					customer_id NVARCHAR(50),
					title NVARCHAR(255),
					canceled BIT NOT NULL DEFAULT 0,
					accepted BIT NOT NULL DEFAULT 1,
					no_show BIT NOT NULL DEFAULT 0,
					private_event BIT NOT NULL DEFAULT 0,
					source_ip NVARCHAR(45),
					cancelation_time DATETIMEOFFSET,
					creation_time DATETIMEOFFSET,
					last_change_time DATETIMEOFFSET,
					last_change_agent NVARCHAR(255),
					total_participants INT,
					total_gross NVARCHAR(20),
					total_net NVARCHAR(20),
					total_paid NVARCHAR(20),
					currency NVARCHAR(10),
					raw_json NVARCHAR(MAX),
					created_at DATETIMEOFFSET DEFAULT SYSDATETIMEOFFSET(),
					updated_at DATETIMEOFFSET DEFAULT SYSDATETIMEOFFSET()
				);
				CREATE INDEX IX_Bookings_StartTime ON Bookings(start_time);
				CREATE INDEX IX_Bookings_CustomerId ON Bookings(customer_id);
				CREATE INDEX IX_Bookings_ProductId ON Bookings(product_id);
			END`
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return domain.PersistenceError{Op: "ensure_schema", Err: err}
	}
	return nil
}

// migrate adds columns introduced after the first deployments.
func (r BookingRepository) migrate(ctx context.Context, db *sql.DB) error {
	if intdb.HasColumn(db, r.Dialect, "Bookings", "total_participants") {
		return nil
	}
	alter := "ALTER TABLE Bookings ADD total_participants INT"
	if r.Dialect == intdb.DialectMySQL {
		alter = "ALTER TABLE Bookings ADD COLUMN total_participants INT"
	}
	if _, err := db.ExecContext(ctx, alter); err != nil {
		return domain.PersistenceError{Op: "migrate", Err: err}
	}
	return nil
}

// UpsertBatch persists rows inside one transaction so a mid-batch failure
// leaves the table as it was. Returns the number of rows written.
func (r BookingRepository) UpsertBatch(ctx context.Context, rows []models.BookingRow) (int, error) {
	db := r.db()
	if db == nil {
		return 0, domain.PersistenceError{Op: "upsert_batch", Err: fmt.Errorf("db not connected")}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.PersistenceError{Op: "begin", Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	written := 0
	for _, row := range rows {
		if strings.TrimSpace(row.BookingNumber) == "" {
			continue
		}
		if err := r.upsertTx(ctx, tx, row); err != nil {
			return 0, domain.PersistenceError{Op: "upsert " + row.BookingNumber, Err: err}
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, domain.PersistenceError{Op: "commit", Err: err}
	}
	committed = true
	return written, nil
}

// Upsert persists a single row in its own transaction (webhook path).
func (r BookingRepository) Upsert(ctx context.Context, row models.BookingRow) error {
	_, err := r.UpsertBatch(ctx, []models.BookingRow{row})
	return err
}

func (r BookingRepository) upsertTx(ctx context.Context, tx *sql.Tx, row models.BookingRow) error {
	if r.Dialect == intdb.DialectMySQL {
		return r.upsertMySQL(ctx, tx, row)
	}
	return r.upsertSQLServer(ctx, tx, row)
}

// upsertMySQL uses INSERT ... ON DUPLICATE KEY UPDATE keyed on the primary key.
func (r BookingRepository) upsertMySQL(ctx context.Context, tx *sql.Tx, row models.BookingRow) error {
	updates := make([]string, 0, len(bookingColumns))
	for _, col := range bookingColumns[1:] {
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}

	q := fmt.Sprintf(
		"INSERT INTO Bookings (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		strings.Join(bookingColumns, ", "),
		r.Dialect.Placeholders(1, len(bookingColumns)),
		strings.Join(updates, ", "),
	)
	_, err := tx.ExecContext(ctx, q, bookingValues(row)...)
	return err
}

// upsertSQLServer updates first and inserts when no row matched, which keeps
// the statement free of MERGE locking quirks and is idempotent under re-runs.
func (r BookingRepository) upsertSQLServer(ctx context.Context, tx *sql.Tx, row models.BookingRow) error {
	d := r.Dialect
	vals := bookingValues(row)

	sets := make([]string, 0, len(bookingColumns)-1)
	// Parameters 1..n-1 are the non-key columns; the key goes last.
	args := make([]any, 0, len(vals))
	for i, col := range bookingColumns[1:] {
		sets = append(sets, fmt.Sprintf("%s = %s", col, d.Placeholder(i+1)))
		args = append(args, vals[i+1])
	}
	args = append(args, row.BookingNumber)

	updateQ := fmt.Sprintf(
		"UPDATE Bookings SET %s, updated_at = SYSDATETIMEOFFSET() WHERE booking_number = %s",
		strings.Join(sets, ", "),
		d.Placeholder(len(bookingColumns)),
	)
	res, err := tx.ExecContext(ctx, updateQ, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	insertQ := fmt.Sprintf(
		"INSERT INTO Bookings (%s) VALUES (%s)",
		strings.Join(bookingColumns, ", "),
		d.Placeholders(1, len(bookingColumns)),
	)
	_, err = tx.ExecContext(ctx, insertQ, vals...)
	return err
}

// Count reports how many bookings the destination currently holds.
func (r BookingRepository) Count(ctx context.Context) (int, error) {
	db := r.db()
	if db == nil {
		return 0, domain.PersistenceError{Op: "count", Err: fmt.Errorf("db not connected")}
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM Bookings").Scan(&n); err != nil {
		return 0, domain.PersistenceError{Op: "count", Err: err}
	}
	return n, nil
}
