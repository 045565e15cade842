package config

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB(env Env) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}

	driver, dsn, err := buildDSN(env)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	DB = db
	return DB, nil
}

func buildDSN(env Env) (driver, dsn string, err error) {
	switch env.DBDriver {
	case "sqlserver", "mssql", "":
		if env.SQLServer == "" || env.SQLUser == "" || env.SQLPassword == "" {
			return "", "", fmt.Errorf("AZURE_SQL_SERVER, AZURE_SQL_USER and AZURE_SQL_PASSWORD must be set")
		}
		u := url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(env.SQLUser, env.SQLPassword),
			Host:   fmt.Sprintf("%s:1433", env.SQLServer),
		}
		q := url.Values{}
		q.Set("database", env.SQLDatabase)
		q.Set("encrypt", "true")
		q.Set("TrustServerCertificate", "false")
		q.Set("dial timeout", "30")
		u.RawQuery = q.Encode()
		return "sqlserver", u.String(), nil
	case "mysql":
		if env.MySQLDSN == "" {
			return "", "", fmt.Errorf("MYSQL_DSN must be set when DB_DRIVER=mysql")
		}
		return "mysql", env.MySQLDSN, nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", env.DBDriver)
	}
}

// EnsureDB pings the shared connection, reconnecting when needed.
func EnsureDB(env Env) error {
	dbMu.Lock()
	if DB == nil {
		dbMu.Unlock()
		_, err := ConnectDB(env)
		return err
	}
	defer dbMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return DB.PingContext(ctx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
