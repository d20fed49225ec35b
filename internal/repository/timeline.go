package repository

import "context"

// TimelineRepository holds each user's post ids, newest first.
type TimelineRepository interface {
	Push(ctx context.Context, userID, postID int64) error
	Latest(ctx context.Context, userID int64, limit int) ([]int64, error)
}
