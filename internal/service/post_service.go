package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"tinyfeed/internal/clock"
	"tinyfeed/internal/domain"
	"tinyfeed/internal/fanout"
)

// PostService publishes posts and fans them out to follower timelines.
type PostService interface {
	Publish(ctx context.Context, authorID int64, message string) (*domain.Post, domain.FanoutReport, error)
}

type postService struct {
	repos      Repositories
	dispatcher fanout.Dispatcher
	clock      clock.Clock
	logger     *logrus.Logger
}

func NewPostService(repos Repositories, dispatcher fanout.Dispatcher, clk clock.Clock, logger *logrus.Logger) PostService {
	if logger == nil {
		logger = logrus.New()
	}
	return &postService{
		repos:      repos,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger,
	}
}

// Publish writes the post, pushes it onto the author's timeline and then
// onto each follower's. The post write always precedes any timeline push.
// Follower pushes are best effort: failures show up only in the report.
func (s *postService) Publish(ctx context.Context, authorID int64, message string) (*domain.Post, domain.FanoutReport, error) {
	var report domain.FanoutReport
	if strings.TrimSpace(message) == "" {
		return nil, report, invalidInput("message is required")
	}

	author, err := s.repos.Users.GetByID(ctx, authorID)
	if err != nil {
		return nil, report, lookupFailure("get author", err)
	}

	post := &domain.Post{
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Message:        message,
		CreatedAt:      s.clock.NowUTC(),
	}
	if _, err := s.repos.Posts.Create(ctx, post); err != nil {
		return nil, report, storeFailure("create post", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"post_id":   post.ID,
		"author_id": author.ID,
	})

	if err := s.repos.Timelines.Push(ctx, author.ID, post.ID); err != nil {
		log.WithError(err).Error("author timeline push failed")
		return nil, report, storeFailure("push author timeline", err)
	}

	followers, err := s.repos.Graph.Followers(ctx, author.ID)
	if err != nil {
		log.WithError(err).Warn("follower lookup failed, post reached author timeline only")
		return nil, report, storeFailure("read followers", err)
	}

	recipients := make([]int64, 0, len(followers))
	for _, id := range followers {
		// a self-follow must not put the post on the author's timeline twice
		if id != author.ID {
			recipients = append(recipients, id)
		}
	}

	report = s.dispatcher.Deliver(ctx, post.ID, recipients)
	log.WithFields(logrus.Fields{
		"delivered": report.Delivered,
		"failed":    report.Failed,
	}).Info("post published")
	return post, report, nil
}
