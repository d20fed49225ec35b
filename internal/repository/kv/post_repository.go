package kv

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tinyfeed/internal/domain"
	"tinyfeed/internal/repository"
	"tinyfeed/internal/store"
)

type PostRepository struct {
	store store.Store
}

func NewPostRepository(s store.Store) repository.PostRepository {
	return &PostRepository{store: s}
}

// Create allocates the next post id and writes every field in one HSet.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	id, err := r.store.Incr(ctx, postIDCounter)
	if err != nil {
		return 0, fmt.Errorf("allocate post id: %w", err)
	}

	if err := r.store.HSet(ctx, postKey(id), map[string]string{
		"userid":    formatID(post.AuthorID),
		"username":  post.AuthorUsername,
		"message":   post.Message,
		"timestamp": strconv.FormatInt(post.CreatedAt.UnixMilli(), 10),
	}); err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	post.ID = id
	return id, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	fields, err := r.store.HGetAll(ctx, postKey(id))
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
	}

	authorID, err := strconv.ParseInt(fields["userid"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("post %d: malformed userid %q: %w", id, fields["userid"], err)
	}
	ms, err := strconv.ParseInt(fields["timestamp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("post %d: malformed timestamp %q: %w", id, fields["timestamp"], err)
	}

	return &domain.Post{
		ID:             id,
		AuthorID:       authorID,
		AuthorUsername: fields["username"],
		Message:        fields["message"],
		CreatedAt:      time.UnixMilli(ms).UTC(),
	}, nil
}
