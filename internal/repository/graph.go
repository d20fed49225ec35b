package repository

import "context"

// GraphRepository keeps both directions of each follow edge. The two
// directions are separate writes; callers own their ordering.
type GraphRepository interface {
	AddFollowing(ctx context.Context, followerID, followeeID int64) (bool, error)
	AddFollower(ctx context.Context, followeeID, followerID int64) (bool, error)
	Following(ctx context.Context, userID int64) ([]int64, error)
	Followers(ctx context.Context, userID int64) ([]int64, error)
}
