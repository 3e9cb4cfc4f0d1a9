package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"personapi/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_people",
		SQL: `CREATE TABLE IF NOT EXISTS people (
  seq        BIGSERIAL   NOT NULL UNIQUE,
  first_name TEXT        PRIMARY KEY,
  last_name  TEXT        NOT NULL DEFAULT '',
  age        INTEGER     NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_people_seq",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_people_seq ON people (seq);`,
	},
}

// sentinel reports whether the schema was already created.
const sentinel = "SELECT to_regclass('public.people') IS NOT NULL"

// EnsureMigrated creates the people schema unless the sentinel table exists.
// Steps run in order and stop at the first failure.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	start := time.Now()
	emit := func(event, status string, extra map[string]any) {
		fields := map[string]any{
			"component":   "database",
			"event":       event,
			"status":      status,
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		for k, v := range extra {
			fields[k] = v
		}
		log.Log(fields)
	}

	emit("db_migration_check", "starting", nil)

	var exists bool
	if err := db.QueryRowContext(ctx, sentinel).Scan(&exists); err != nil {
		err = fmt.Errorf("failed to check sentinel table: %w", err)
		emit("db_migration_failed", "error", map[string]any{"error_message": err.Error()})
		return err
	}
	if exists {
		emit("db_migration_skip", "success", map[string]any{"msg": "schema already exists, skipping migration"})
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		extra := map[string]any{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}
		if err != nil {
			extra["error_message"] = err.Error()
			emit("db_migration_failed", "error", extra)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		emit("db_migration_step", "success", extra)
	}

	emit("db_migration_success", "success", nil)
	return nil
}
