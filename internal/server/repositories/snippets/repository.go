package snippets

import (
	"context"

	"github.com/dkotlyar/snipstash/internal/models"
)

type Repository interface {
	List(ctx context.Context, offset, limit int) ([]models.Snippet, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id int64) (*models.Snippet, error)
	CreateOrUpdate(ctx context.Context, snippet *models.Snippet) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}
