package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migration represents a single schema migration.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// New migrations are appended at the end; never modify existing entries.
var migrations = []migration{
	{
		version:     1,
		description: "initial schema (applied via schemaSQL)",
		apply:       func(tx *sql.Tx) error { return nil },
	},
	{
		version:     2,
		description: "index parse_results by last access for pruning",
		apply: func(tx *sql.Tx) error {
			_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_parse_results_accessed ON parse_results(accessed_at)")
			return err
		},
	},
}

// Migrate runs all pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		slog.Debug("store: applying migration", "version", m.version, "description", m.description)

		err := s.inTx(ctx, func(tx *sql.Tx) error {
			if err := m.apply(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_version (version, description) VALUES (?, ?)",
				m.version, m.description); err != nil {
				return fmt.Errorf("recording migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}
