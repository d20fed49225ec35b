package kv

import (
	"context"
	"fmt"

	"tinyfeed/internal/repository"
	"tinyfeed/internal/store"
)

type TimelineRepository struct {
	store store.Store
}

func NewTimelineRepository(s store.Store) repository.TimelineRepository {
	return &TimelineRepository{store: s}
}

func (r *TimelineRepository) Push(ctx context.Context, userID, postID int64) error {
	if err := r.store.LPush(ctx, timelineKey(userID), formatID(postID)); err != nil {
		return fmt.Errorf("push timeline: %w", err)
	}
	return nil
}

func (r *TimelineRepository) Latest(ctx context.Context, userID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}
	key := timelineKey(userID)
	raw, err := r.store.LRange(ctx, key, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	return parseIDs(key, raw)
}
