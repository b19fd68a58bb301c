package repomanager

import (
	"context"
	"database/sql"

	"campaignspace/internal/dbx"
	"campaignspace/internal/server/repositories/campaigns"
	"campaignspace/internal/server/repositories/filerecords"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Campaigns(db dbx.DBTX) campaigns.Repository
	FileRecords(db dbx.DBTX) filerecords.Repository
}
