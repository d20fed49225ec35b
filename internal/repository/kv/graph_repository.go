package kv

import (
	"context"
	"fmt"

	"tinyfeed/internal/repository"
	"tinyfeed/internal/store"
)

type GraphRepository struct {
	store store.Store
}

func NewGraphRepository(s store.Store) repository.GraphRepository {
	return &GraphRepository{store: s}
}

func (r *GraphRepository) AddFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	added, err := r.store.SAdd(ctx, followingKey(followerID), formatID(followeeID))
	if err != nil {
		return false, fmt.Errorf("add following: %w", err)
	}
	return added, nil
}

func (r *GraphRepository) AddFollower(ctx context.Context, followeeID, followerID int64) (bool, error) {
	added, err := r.store.SAdd(ctx, followersKey(followeeID), formatID(followerID))
	if err != nil {
		return false, fmt.Errorf("add follower: %w", err)
	}
	return added, nil
}

func (r *GraphRepository) Following(ctx context.Context, userID int64) ([]int64, error) {
	return r.members(ctx, followingKey(userID))
}

func (r *GraphRepository) Followers(ctx context.Context, userID int64) ([]int64, error) {
	return r.members(ctx, followersKey(userID))
}

func (r *GraphRepository) members(ctx context.Context, key string) ([]int64, error) {
	raw, err := r.store.SMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return parseIDs(key, raw)
}
