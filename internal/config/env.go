package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Env carries all runtime configuration. Values come from the environment
// (App Settings in the cloud, .env locally via godotenv in main).
type Env struct {
	AppAddr string `envconfig:"APP_ADDR" default:":8080"`
	GinMode string `envconfig:"GIN_MODE"`

	// Provider credentials and endpoint.
	BookeoBaseURL    string `envconfig:"BOOKEO_BASE_URL" default:"https://api.bookeo.com/v2"`
	BookeoAPIKey     string `envconfig:"BOOKEO_API_KEY"`
	BookeoSecretKey  string `envconfig:"BOOKEO_SECRET_KEY"`
	BookeoWebhookURL string `envconfig:"BOOKEO_WEBHOOK_URL"`

	// Sync window tuning.
	HistoricalStart string `envconfig:"BOOKEO_HISTORICAL_START" default:"2026-01-01T00:00:00Z"`
	FutureDays      int    `envconfig:"BOOKEO_FUTURE_DAYS" default:"90"`
	LookbackMinutes int    `envconfig:"BOOKEO_LOOKBACK_MINUTES" default:"60"`
	IncludeCanceled bool   `envconfig:"BOOKEO_INCLUDE_CANCELED" default:"true"`

	// Destination store. Driver is "sqlserver" (Azure SQL) or "mysql".
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlserver"`
	SQLServer   string `envconfig:"AZURE_SQL_SERVER"`
	SQLDatabase string `envconfig:"AZURE_SQL_DATABASE" default:"corkandcandles-bookings"`
	SQLUser     string `envconfig:"AZURE_SQL_USER"`
	SQLPassword string `envconfig:"AZURE_SQL_PASSWORD"`
	MySQLDSN    string `envconfig:"MYSQL_DSN"`

	// Bearer secret for the manual sync trigger endpoint.
	SyncTokenSecret string `envconfig:"SYNC_TOKEN_SECRET"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// LoadEnv reads configuration from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return Env{}, err
	}
	e.DBDriver = strings.ToLower(strings.TrimSpace(e.DBDriver))
	return e, nil
}

// RequireBookeoCredentials fails fast before any provider call is attempted.
func (e Env) RequireBookeoCredentials() error {
	if strings.TrimSpace(e.BookeoAPIKey) == "" || strings.TrimSpace(e.BookeoSecretKey) == "" {
		return fmt.Errorf("BOOKEO_API_KEY and BOOKEO_SECRET_KEY must be set")
	}
	return nil
}

// Lookback returns the incremental safety margin as a duration.
func (e Env) Lookback() time.Duration {
	if e.LookbackMinutes < 0 {
		return 0
	}
	return time.Duration(e.LookbackMinutes) * time.Minute
}
