// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"campaignspace/internal/dbx"
	"campaignspace/internal/server/migrations"
	"campaignspace/internal/server/repositories/campaigns"
	"campaignspace/internal/server/repositories/filerecords"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Campaigns returns a campaigns.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Campaigns(db dbx.DBTX) campaigns.Repository {
	return campaigns.NewPostgresRepository(db)
}

// FileRecords returns a filerecords.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) FileRecords(db dbx.DBTX) filerecords.Repository {
	return filerecords.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
