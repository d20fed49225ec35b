package repository

import (
	"context"

	"tinyfeed/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	// Create allocates the next user id and claims the username. It returns
	// ErrAlreadyExists when another user holds the name.
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// Usernames returns every claimed username mapped to its user id.
	Usernames(ctx context.Context) (map[string]int64, error)
}
