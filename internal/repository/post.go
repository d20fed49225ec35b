package repository

import (
	"context"

	"tinyfeed/internal/domain"
)

// PostRepository stores immutable posts under sequential ids.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
}
