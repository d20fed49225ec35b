package service

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"tinyfeed/internal/domain"
)

// GraphService mutates and repairs the follow graph.
type GraphService interface {
	Follow(ctx context.Context, followerID int64, followeeUsername string) (domain.FollowResult, error)
	// Reconcile restores followers-set entries missing for the user's
	// following set and returns how many it added.
	Reconcile(ctx context.Context, userID int64) (int, error)
	ReconcileAll(ctx context.Context) (int, error)
}

type graphService struct {
	repos  Repositories
	logger *logrus.Logger
}

func NewGraphService(repos Repositories, logger *logrus.Logger) GraphService {
	if logger == nil {
		logger = logrus.New()
	}
	return &graphService{
		repos:  repos,
		logger: logger,
	}
}

// Follow writes following:{follower} and then followers:{followee}. When
// only the first write lands the edge is half-applied; it is logged and
// reported, and Reconcile repairs it.
func (s *graphService) Follow(ctx context.Context, followerID int64, followeeUsername string) (domain.FollowResult, error) {
	followeeUsername = strings.TrimSpace(followeeUsername)
	if followeeUsername == "" {
		return "", invalidInput("username is required")
	}

	follower, err := s.repos.Users.GetByID(ctx, followerID)
	if err != nil {
		return "", lookupFailure("get follower", err)
	}
	followee, err := s.repos.Users.GetByUsername(ctx, followeeUsername)
	if err != nil {
		return "", lookupFailure("get followee", err)
	}

	addedFollowing, err := s.repos.Graph.AddFollowing(ctx, follower.ID, followee.ID)
	if err != nil {
		return "", storeFailure("add following", err)
	}
	addedFollower, err := s.repos.Graph.AddFollower(ctx, followee.ID, follower.ID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"follower_id": follower.ID,
			"followee_id": followee.ID,
		}).WithError(err).Error("follow edge half-applied, followers set needs reconcile")
		return "", storeFailure("add follower (following already written)", err)
	}

	switch {
	case follower.ID == followee.ID:
		return domain.FollowedSelf, nil
	case !addedFollowing && !addedFollower:
		return domain.FollowAlreadyExists, nil
	default:
		return domain.FollowCreated, nil
	}
}

func (s *graphService) Reconcile(ctx context.Context, userID int64) (int, error) {
	following, err := s.repos.Graph.Following(ctx, userID)
	if err != nil {
		return 0, storeFailure("read following", err)
	}

	repaired := 0
	for _, followeeID := range following {
		added, err := s.repos.Graph.AddFollower(ctx, followeeID, userID)
		if err != nil {
			return repaired, storeFailure("repair follower", err)
		}
		if added {
			repaired++
			s.logger.WithFields(logrus.Fields{
				"follower_id": userID,
				"followee_id": followeeID,
			}).Info("repaired follow edge")
		}
	}
	return repaired, nil
}

func (s *graphService) ReconcileAll(ctx context.Context) (int, error) {
	users, err := s.repos.Users.Usernames(ctx)
	if err != nil {
		return 0, storeFailure("list users", err)
	}

	ids := make([]int64, 0, len(users))
	for _, id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := 0
	for _, id := range ids {
		n, err := s.Reconcile(ctx, id)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
