package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkotlyar/snipstash/internal/dbx"
	"github.com/dkotlyar/snipstash/internal/server/repositories/snippets"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Snippets(db dbx.DBTX) snippets.Repository
}
