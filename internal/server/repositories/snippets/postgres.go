// Package snippets provides the PostgreSQL-backed repository for the
// code_snippets table.
package snippets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/dbx"
	"github.com/dkotlyar/snipstash/internal/models"
)

// PostgresRepository implements snippet storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const snippetColumns = `id, title, content, password, timestamp, hidden, is_encrypted, content_type, file_name, file_type, storage_path`

// List returns one page of snippets ordered by id descending. IDs are
// creation-timestamp milliseconds, so this is newest-first.
func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]models.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM code_snippets ORDER BY id DESC OFFSET $1 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select snippets: %w", err)
	}
	defer rows.Close()

	var result []models.Snippet
	for rows.Next() {
		item, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the total number of stored snippets.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM code_snippets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snippets: %w", err)
	}
	return n, nil
}

// GetByID returns a single snippet or ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM code_snippets WHERE id=$1`

	row := r.db.QueryRowContext(ctx, query, id)
	item, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snippet %d: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

// CreateOrUpdate upserts a snippet by id.
// Returns an error for DB failures or unexpected rows affected.
func (r *PostgresRepository) CreateOrUpdate(ctx context.Context, snippet *models.Snippet) error {
	query := `
		INSERT INTO code_snippets (id, title, content, password, timestamp, hidden, is_encrypted, content_type, file_name, file_type, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			password = EXCLUDED.password,
			timestamp = EXCLUDED.timestamp,
			hidden = EXCLUDED.hidden,
			is_encrypted = EXCLUDED.is_encrypted,
			content_type = EXCLUDED.content_type,
			file_name = EXCLUDED.file_name,
			file_type = EXCLUDED.file_type,
			storage_path = EXCLUDED.storage_path;
	`
	res, err := r.db.ExecContext(ctx, query,
		snippet.ID, snippet.Title, snippet.Content, snippet.Password, snippet.Timestamp,
		snippet.Hidden, snippet.IsEncrypted, string(snippet.ContentType),
		nullString(snippet.FileName), nullString(snippet.FileType), nullString(snippet.StoragePath))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// Delete removes one row. Returns ErrNotFound if the id does not exist.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM code_snippets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snippet %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteAll clears the table. Used by the full-state replace flow inside
// a transaction.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM code_snippets`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*models.Snippet, error) {
	var item models.Snippet
	var contentType string
	var fileName, fileType, storagePath sql.NullString

	if err := row.Scan(
		&item.ID, &item.Title, &item.Content, &item.Password, &item.Timestamp,
		&item.Hidden, &item.IsEncrypted, &contentType, &fileName, &fileType, &storagePath,
	); err != nil {
		return nil, err
	}

	item.ContentType = models.ContentType(contentType)
	item.FileName = fileName.String
	item.FileType = fileType.String
	item.StoragePath = storagePath.String
	return &item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
