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

type UserRepository struct {
	store store.Store
}

func NewUserRepository(s store.Store) repository.UserRepository {
	return &UserRepository{store: s}
}

// Create writes user:{id} before claiming the name in the users index, so
// any id reachable from the index always resolves. A lost claim leaves an
// unindexed user:{id} behind; its id is never reused.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	id, err := r.store.Incr(ctx, userIDCounter)
	if err != nil {
		return 0, fmt.Errorf("allocate user id: %w", err)
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if err := r.store.HSet(ctx, userKey(id), map[string]string{
		"username": user.Username,
		"hash":     user.PasswordHash,
		"created":  strconv.FormatInt(user.CreatedAt.UnixMilli(), 10),
	}); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	claimed, err := r.store.HSetNX(ctx, usersIndexKey, user.Username, formatID(id))
	if err != nil {
		return 0, fmt.Errorf("claim username: %w", err)
	}
	if !claimed {
		return 0, fmt.Errorf("user %q: %w", user.Username, repository.ErrAlreadyExists)
	}

	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	raw, ok, err := r.store.HGet(ctx, usersIndexKey, username)
	if err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed user id %q for %q: %w", raw, username, err)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	fields, err := r.store.HGetAll(ctx, userKey(id))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return parseUser(id, fields)
}

func (r *UserRepository) Usernames(ctx context.Context) (map[string]int64, error) {
	index, err := r.store.HGetAll(ctx, usersIndexKey)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make(map[string]int64, len(index))
	for name, raw := range index {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed user id %q for %q: %w", raw, name, err)
		}
		out[name] = id
	}
	return out, nil
}

func parseUser(id int64, fields map[string]string) (*domain.User, error) {
	username, ok := fields["username"]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}

	user := &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: fields["hash"],
	}
	if ms, err := strconv.ParseInt(fields["created"], 10, 64); err == nil {
		user.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return user, nil
}
