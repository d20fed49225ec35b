package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"tinyfeed/internal/clock"
	"tinyfeed/internal/domain"
	"tinyfeed/internal/repository"
)

// DashboardService assembles a user's home view from their timeline.
type DashboardService interface {
	Assemble(ctx context.Context, userID int64) (*domain.Dashboard, error)
}

type dashboardService struct {
	repos  Repositories
	clock  clock.Clock
	logger *logrus.Logger
}

func NewDashboardService(repos Repositories, clk clock.Clock, logger *logrus.Logger) DashboardService {
	if logger == nil {
		logger = logrus.New()
	}
	return &dashboardService{
		repos:  repos,
		clock:  clk,
		logger: logger,
	}
}

// Assemble reads the newest TimelineWindow entries in stored order. Entries
// whose post cannot be found are skipped with a warning.
func (s *dashboardService) Assemble(ctx context.Context, userID int64) (*domain.Dashboard, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupFailure("get user", err)
	}

	postIDs, err := s.repos.Timelines.Latest(ctx, user.ID, domain.TimelineWindow)
	if err != nil {
		return nil, storeFailure("read timeline", err)
	}

	now := s.clock.NowUTC()
	timeline := make([]domain.TimelineEntry, 0, len(postIDs))
	for _, postID := range postIDs {
		post, err := s.repos.Posts.Get(ctx, postID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.WithFields(logrus.Fields{
					"post_id": postID,
					"user_id": user.ID,
				}).Warn("data integrity: timeline references missing post, entry skipped")
				continue
			}
			return nil, storeFailure("get post", err)
		}
		timeline = append(timeline, domain.TimelineEntry{
			PostID:         post.ID,
			Message:        post.Message,
			AuthorUsername: post.AuthorUsername,
			RelativeAge:    RelativeAge(now, post.CreatedAt),
		})
	}

	suggestions, err := s.suggestions(ctx, user)
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		UserID:      user.ID,
		Username:    user.Username,
		Timeline:    timeline,
		Suggestions: suggestions,
	}, nil
}

// suggestions is every username except the user and the accounts they
// follow, sorted. It scans the whole users index.
func (s *dashboardService) suggestions(ctx context.Context, user *domain.User) ([]string, error) {
	following, err := s.repos.Graph.Following(ctx, user.ID)
	if err != nil {
		return nil, storeFailure("read following", err)
	}
	followed := make(map[int64]struct{}, len(following))
	for _, id := range following {
		followed[id] = struct{}{}
	}

	users, err := s.repos.Users.Usernames(ctx)
	if err != nil {
		return nil, storeFailure("list users", err)
	}

	out := make([]string, 0, len(users))
	for name, id := range users {
		if id == user.ID {
			continue
		}
		if _, ok := followed[id]; ok {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// RelativeAge renders how long before now a post was created, e.g. "5 minutes ago".
func RelativeAge(now, createdAt time.Time) string {
	return humanize.RelTime(createdAt, now, "ago", "from now")
}
