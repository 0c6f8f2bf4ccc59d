// Package datasource turns a data location (a CSV file or a SQL query against
// sqlite, postgres or snowflake) into a dataset.Table.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/spboyer/tabcheck/internal/dataset"
)

// Supported SQL drivers.
const (
	DriverSQLite    = "sqlite3"
	DriverPostgres  = "postgres"
	DriverSnowflake = "snowflake"
)

const pingTimeout = 10 * time.Second

// Source describes where a table comes from. Path wins over Query.
type Source struct {
	Path   string
	Driver string
	DSN    string
	Query  string
}

// LookupFunc reads an environment variable.
type LookupFunc func(string) (string, bool)

// Load reads the table described by src. Connection settings missing from
// src are taken from lookup.
func Load(ctx context.Context, src Source, lookup LookupFunc) (*dataset.Table, error) {
	if src.Path != "" {
		slog.Debug("loading csv", "path", src.Path)
		return dataset.LoadCSV(src.Path)
	}
	if src.Query == "" {
		return nil, errors.New("no data source: set a CSV path or a SQL query")
	}

	db, err := Open(ctx, src.Driver, src.DSN, lookup)
	if err != nil {
		return nil, err
	}
	defer db.Close() //nolint:errcheck

	slog.Debug("running query", "driver", src.Driver)
	return dataset.LoadSQL(ctx, db, src.Query)
}

// Open connects to a database and verifies the connection.
func Open(ctx context.Context, driver, dsn string, lookup LookupFunc) (*sqlx.DB, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	dsn, err := ResolveDSN(driver, dsn, lookup)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}
	return db, nil
}

// ResolveDSN returns the connection string for driver. An explicit dsn is
// used as is, except that postgres URLs are converted to key/value form.
// Otherwise postgres and snowflake settings come from POSTGRES_* and
// SNOWFLAKE_* variables.
func ResolveDSN(driver, dsn string, lookup LookupFunc) (string, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			return "", errors.New("sqlite3 needs a DSN (database file path)")
		}
		return dsn, nil
	case DriverPostgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			conn, err := pq.ParseURL(dsn)
			if err != nil {
				return "", fmt.Errorf("parsing postgres URL: %w", err)
			}
			return conn, nil
		}
		if dsn != "" {
			return dsn, nil
		}
		return postgresFromEnv(lookup)
	case DriverSnowflake:
		if dsn != "" {
			return dsn, nil
		}
		return snowflakeFromEnv(lookup)
	default:
		return "", fmt.Errorf("unsupported driver %q (want %s, %s or %s)", driver, DriverSQLite, DriverPostgres, DriverSnowflake)
	}
}

func postgresFromEnv(lookup LookupFunc) (string, error) {
	env := envReader{lookup: lookup}
	user := env.required("POSTGRES_USER")
	password := env.required("POSTGRES_PASSWORD")
	database := env.required("POSTGRES_DB")
	if err := env.err(); err != nil {
		return "", err
	}

	port := env.get("POSTGRES_PORT", "5432")
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("POSTGRES_PORT must be a number, got %q", port)
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		env.get("POSTGRES_HOST", "localhost"),
		port,
		user,
		password,
		database,
		env.get("POSTGRES_SSLMODE", "disable"),
	), nil
}

func snowflakeFromEnv(lookup LookupFunc) (string, error) {
	env := envReader{lookup: lookup}
	cfg := &sf.Config{
		User:      env.required("SNOWFLAKE_USER"),
		Password:  env.required("SNOWFLAKE_PASSWORD"),
		Account:   env.required("SNOWFLAKE_ACCOUNT"),
		Warehouse: env.required("SNOWFLAKE_WAREHOUSE"),
		Database:  env.get("SNOWFLAKE_DATABASE", ""),
		Schema:    env.get("SNOWFLAKE_SCHEMA", ""),
		Role:      env.get("SNOWFLAKE_ROLE", ""),
	}
	if err := env.err(); err != nil {
		return "", err
	}

	auth, err := snowflakeAuthenticator(env.get("SNOWFLAKE_AUTHENTICATOR", "snowflake"))
	if err != nil {
		return "", err
	}
	cfg.Authenticator = auth

	slog.Debug("building snowflake DSN",
		"account", cfg.Account,
		"user", cfg.User,
		"database", cfg.Database,
		"warehouse", cfg.Warehouse,
		"role", cfg.Role)

	dsn, err := sf.DSN(cfg)
	if err != nil {
		return "", fmt.Errorf("building snowflake DSN: %w", err)
	}
	return dsn, nil
}

func snowflakeAuthenticator(name string) (sf.AuthType, error) {
	switch strings.ToLower(name) {
	case "snowflake":
		return sf.AuthTypeSnowflake, nil
	case "oauth":
		return sf.AuthTypeOAuth, nil
	case "externalbrowser":
		return sf.AuthTypeExternalBrowser, nil
	case "username_password_mfa":
		return sf.AuthTypeUsernamePasswordMFA, nil
	case "jwt":
		return sf.AuthTypeJwt, nil
	case "okta":
		return sf.AuthTypeOkta, nil
	default:
		return 0, fmt.Errorf("unknown SNOWFLAKE_AUTHENTICATOR %q", name)
	}
}

// envReader collects the names of missing required variables so they can be
// reported together.
type envReader struct {
	lookup  LookupFunc
	missing []string
}

func (e *envReader) get(key, fallback string) string {
	if e.lookup != nil {
		if v, ok := e.lookup(key); ok && v != "" {
			return v
		}
	}
	return fallback
}

func (e *envReader) required(key string) string {
	v := e.get(key, "")
	if v == "" {
		e.missing = append(e.missing, key)
	}
	return v
}

func (e *envReader) err() error {
	if len(e.missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing environment variables: %s", strings.Join(e.missing, ", "))
}
