package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkotlyar/snipstash/internal/dbx"
	"github.com/dkotlyar/snipstash/internal/server/migrations"
	"github.com/dkotlyar/snipstash/internal/server/repositories/snippets"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func (m *PostgresRepositoryManager) Snippets(db dbx.DBTX) snippets.Repository {
	return snippets.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
