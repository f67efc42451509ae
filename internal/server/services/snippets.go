// Package services implements the server-side snippet operations on top
// of the repository and the blob store.
package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/dbx"
	"github.com/dkotlyar/snipstash/internal/models"
	"github.com/dkotlyar/snipstash/internal/server/repositories/repomanager"
	"github.com/dkotlyar/snipstash/internal/server/storage"
)

// BlobStore is the part of the object storage the snippet service needs.
type BlobStore interface {
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type SnippetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       BlobStore
}

func NewSnippetService(db *sql.DB, repomanager repomanager.RepositoryManager, blobs BlobStore) *SnippetService {
	return &SnippetService{
		db:          db,
		repomanager: repomanager,
		blobs:       blobs,
	}
}

// ListPage returns one page of snippets, newest first, plus the total
// row count. In lightweight mode inline content is omitted for
// file-type rows so list payloads stay small; clients fetch file bytes
// through signed URLs or the raw-content endpoint instead.
func (s *SnippetService) ListPage(ctx context.Context, page, limit int, lightweight bool) ([]models.Snippet, int, error) {
	repo := s.repomanager.Snippets(s.db)

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	items, err := repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}

	if lightweight {
		for i := range items {
			if items[i].ContentType.IsFile() {
				items[i].Content = ""
			}
		}
	}

	return items, total, nil
}

func (s *SnippetService) GetByID(ctx context.Context, id int64) (*models.Snippet, error) {
	return s.repomanager.Snippets(s.db).GetByID(ctx, id)
}

// GetURL returns the snippet with FileURL set to a presigned download
// URL when its payload lives in the blob store.
func (s *SnippetService) GetURL(ctx context.Context, id int64) (*models.Snippet, error) {
	snippet, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if snippet.StoragePath != "" {
		url, err := s.blobs.PresignGet(ctx, snippet.StoragePath)
		if err != nil {
			return nil, err
		}
		snippet.FileURL = url
	}
	return snippet, nil
}

// GetContent returns the stored payload bytes as a string, reading the
// blob store when the row only carries a storage key. For encrypted
// snippets this is the ciphertext envelope; decryption happens
// client-side.
func (s *SnippetService) GetContent(ctx context.Context, id int64) (string, error) {
	snippet, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if snippet.StoragePath == "" {
		return snippet.Content, nil
	}

	data, err := s.blobs.Get(ctx, snippet.StoragePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetUploadTarget presigns a PUT destination for a direct client upload
// and returns the storage key the client must record on the snippet.
func (s *SnippetService) GetUploadTarget(ctx context.Context, id int64, fileName string) (string, string, error) {
	key := storage.StorageKey(id, fileName)

	url, err := s.blobs.PresignPut(ctx, key)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// Save upserts one snippet. File payloads that arrive inline are moved
// to the blob store first; the stored row keeps only the storage key,
// and the returned snippet is the canonical shape the client must adopt.
func (s *SnippetService) Save(ctx context.Context, snippet *models.Snippet) (*models.Snippet, error) {
	if err := snippet.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Snippets(s.db)

	// An update can supersede an existing blob, e.g. hiding a file
	// snippet re-saves it as an inline ciphertext envelope. Remember the
	// old key so it can be cleaned up once the new row is in place.
	var prevKey string
	if prev, err := repo.GetByID(ctx, snippet.ID); err == nil {
		prevKey = prev.StoragePath
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if err := s.moveInlinePayload(ctx, snippet); err != nil {
		return nil, err
	}

	if err := repo.CreateOrUpdate(ctx, snippet); err != nil {
		return nil, err
	}

	if prevKey != "" && prevKey != snippet.StoragePath {
		if err := s.blobs.Delete(ctx, prevKey); err != nil {
			return nil, fmt.Errorf("deleting superseded blob %s: %w", prevKey, err)
		}
	}
	return snippet, nil
}

// ReplaceAll swaps the whole dataset for the given state in one
// transaction. This is the client's coalesced full-state flush; rows
// that already reference blobs keep their storage keys.
func (s *SnippetService) ReplaceAll(ctx context.Context, snippets []models.Snippet) error {
	// Blob writes happen before the transaction; object storage has no
	// part in the DB rollback.
	for i := range snippets {
		if err := s.moveInlinePayload(ctx, &snippets[i]); err != nil {
			return err
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Snippets(tx)

		if err := repo.DeleteAll(ctx); err != nil {
			return err
		}
		for i := range snippets {
			if err := repo.CreateOrUpdate(ctx, &snippets[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the row and, when present, its blob.
func (s *SnippetService) Delete(ctx context.Context, id int64) error {
	repo := s.repomanager.Snippets(s.db)

	snippet, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if snippet.StoragePath != "" {
		if err := s.blobs.Delete(ctx, snippet.StoragePath); err != nil {
			return fmt.Errorf("deleting blob %s: %w", snippet.StoragePath, err)
		}
	}

	return repo.Delete(ctx, id)
}

func (s *SnippetService) moveInlinePayload(ctx context.Context, snippet *models.Snippet) error {
	if !snippet.ContentType.IsFile() || snippet.Content == "" || snippet.StoragePath != "" {
		return nil
	}

	key := storage.StorageKey(snippet.ID, snippet.FileName)

	// Plain data URIs are decoded so the blob holds real file bytes and
	// a presigned GET serves them directly. Encrypted envelopes are
	// opaque text and stored verbatim; they come back via GetContent.
	data, contentType, ok := decodeDataURI(snippet.Content)
	if !ok {
		data = []byte(snippet.Content)
		contentType = ""
	}

	if err := s.blobs.Put(ctx, key, data, contentType); err != nil {
		return fmt.Errorf("storing blob %s: %w", key, err)
	}

	snippet.StoragePath = key
	snippet.Content = ""
	return nil
}

func decodeDataURI(content string) ([]byte, string, bool) {
	if !strings.HasPrefix(content, "data:") {
		return nil, "", false
	}
	meta, payload, found := strings.Cut(content, ";base64,")
	if !found {
		return nil, "", false
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return data, strings.TrimPrefix(meta, "data:"), true
}
