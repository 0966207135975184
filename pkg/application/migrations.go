package application

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type schemaEntry struct {
	name string
	ddl  string
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []schemaEntry
}

func (m *migrationManager) RegisterSchema(name string, ddl string) {
	m.schemas = append(m.schemas, schemaEntry{name: name, ddl: ddl})
}

// Run applies each registered schema exactly once, in registration order.
// Applied schemas are tracked by name in the schema_migrations table.
func (m *migrationManager) Run(ctx context.Context) error {
	if m.pool == nil {
		return fmt.Errorf("migrations: pool is not configured")
	}

	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT        PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("migrations: ensure tracking table: %w", err)
	}

	for _, entry := range m.schemas {
		if err := m.applyOne(ctx, entry); err != nil {
			return fmt.Errorf("migrations: apply %q: %w", entry.name, err)
		}
	}
	return nil
}

func (m *migrationManager) applyOne(ctx context.Context, entry schemaEntry) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var applied bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, entry.name).Scan(&applied)
	if err != nil {
		return err
	}
	if applied {
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, entry.ddl); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, entry.name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
