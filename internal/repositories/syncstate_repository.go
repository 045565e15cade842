package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "bookeosync/internal/config"
	intdb "bookeosync/internal/db"
	"bookeosync/internal/domain"
)

// SyncStateRepository is the durable checkpoint store. Get returning found =
// false signals "no prior sync; perform a full historical fetch". Set must be
// called only after the corresponding batch has been committed.
type SyncStateRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

func (r SyncStateRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// EnsureSchema creates the SyncState table when missing.
func (r SyncStateRepository) EnsureSchema(ctx context.Context) error {
	db := r.db()
	if db == nil {
		return domain.PersistenceError{Op: "ensure_schema", Err: fmt.Errorf("db not connected")}
	}

	var ddl string
	if r.Dialect == intdb.DialectMySQL {
		ddl = `
			CREATE TABLE IF NOT EXISTS SyncState (
				sync_key VARCHAR(64) PRIMARY KEY,
				last_sync_time DATETIME(6) NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)`
	} else {
		ddl = `
			IF NOT EXISTS (SELECT * FROM sys.tables WHERE name = 'SyncState')
			CREATE TABLE SyncState (
				sync_key NVARCHAR(64) PRIMARY KEY,
				last_sync_time DATETIME2 NOT NULL,
				updated_at DATETIMEOFFSET DEFAULT SYSDATETIMEOFFSET()
			)`
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return domain.PersistenceError{Op: "ensure_schema", Err: err}
	}
	return nil
}

// Get returns the checkpoint for key, or found = false when none exists yet.
func (r SyncStateRepository) Get(ctx context.Context, key string) (time.Time, bool, error) {
	db := r.db()
	if db == nil {
		return time.Time{}, false, domain.PersistenceError{Op: "get_state", Err: fmt.Errorf("db not connected")}
	}

	q := "SELECT last_sync_time FROM SyncState WHERE sync_key = " + r.Dialect.Placeholder(1)
	var ts time.Time
	err := db.QueryRowContext(ctx, q, key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, domain.PersistenceError{Op: "get_state", Err: err}
	}
	return ts.UTC(), true, nil
}

// Set advances the checkpoint for key. The conditional update makes the
// checkpoint monotonic under racing runs: a larger timestamp always wins and
// an older writer cannot regress it.
func (r SyncStateRepository) Set(ctx context.Context, key string, ts time.Time) error {
	db := r.db()
	if db == nil {
		return domain.PersistenceError{Op: "set_state", Err: fmt.Errorf("db not connected")}
	}
	d := r.Dialect
	ts = ts.UTC()

	updateQ := "UPDATE SyncState SET last_sync_time = " + d.Placeholder(1) +
		" WHERE sync_key = " + d.Placeholder(2) +
		" AND last_sync_time < " + d.Placeholder(3)
	res, err := db.ExecContext(ctx, updateQ, ts, key, ts)
	if err != nil {
		return domain.PersistenceError{Op: "set_state", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.PersistenceError{Op: "set_state", Err: err}
	}
	if affected > 0 {
		return nil
	}

	// Zero rows: either the key is absent or a newer checkpoint already won.
	var existing time.Time
	selectQ := "SELECT last_sync_time FROM SyncState WHERE sync_key = " + d.Placeholder(1)
	err = db.QueryRowContext(ctx, selectQ, key).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.PersistenceError{Op: "set_state", Err: err}
	}

	insertQ := "INSERT INTO SyncState (sync_key, last_sync_time) VALUES (" + d.Placeholders(1, 2) + ")"
	if _, err := db.ExecContext(ctx, insertQ, key, ts); err != nil {
		// A racing first run may have inserted in between; its row stands
		// and the conditional update above resolves any follow-up.
		if _, found, getErr := r.Get(ctx, key); getErr == nil && found {
			return nil
		}
		return domain.PersistenceError{Op: "set_state", Err: err}
	}
	return nil
}
