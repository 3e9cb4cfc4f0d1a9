package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"personapi/internal/config"
	"personapi/internal/database/migration"
	"personapi/internal/logging"
)

var sqlOpen = sql.Open

// pingTimeout bounds the connectivity check done right after opening.
const pingTimeout = 5 * time.Second

// dsn renders c as a postgres:// URL for the pgx driver.
func dsn(c config.DatabaseConfig) (string, error) {
	var missing []string
	for name, v := range map[string]string{"DB_HOST": c.Host, "DB_PORT": c.Port, "DB_USER": c.User, "DB_NAME": c.Name} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("postgres backend needs %s", strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(c.User),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String(), nil
}

// Open connects to PostgreSQL through a traced pgx pool, verifies the
// connection and makes sure the people schema exists. The pool is closed on
// any failure after it was opened.
func Open(ctx context.Context, c config.DatabaseConfig, log *logging.Logger) (*sql.DB, error) {
	target, err := dsn(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, target)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	configurePool(db, c)

	if err := ready(ctx, db, c, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func configurePool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}
}

func ready(ctx context.Context, db *sql.DB, c config.DatabaseConfig, log *logging.Logger) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return migration.EnsureMigrated(ctx, db, log, c.Host)
}
