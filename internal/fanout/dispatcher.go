package fanout

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tinyfeed/internal/domain"
	"tinyfeed/internal/repository"
)

// Dispatcher pushes a post id onto many timelines. Individual failures are
// logged and counted, never returned.
type Dispatcher interface {
	Deliver(ctx context.Context, postID int64, recipients []int64) domain.FanoutReport
}

type Config struct {
	MaxConcurrent int
	Logger        *logrus.Logger
}

type dispatcher struct {
	cfg       Config
	timelines repository.TimelineRepository
}

func NewDispatcher(cfg Config, timelines repository.TimelineRepository) Dispatcher {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &dispatcher{
		cfg:       cfg,
		timelines: timelines,
	}
}

// Deliver blocks until every recipient has been attempted once. There is
// no retry: a recipient whose push fails simply misses the post.
func (d *dispatcher) Deliver(ctx context.Context, postID int64, recipients []int64) domain.FanoutReport {
	var delivered, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(d.cfg.MaxConcurrent)
	for _, userID := range recipients {
		g.Go(func() error {
			if err := d.timelines.Push(ctx, userID, postID); err != nil {
				failed.Add(1)
				d.cfg.Logger.WithFields(logrus.Fields{
					"post_id": postID,
					"user_id": userID,
				}).WithError(err).Warn("timeline push failed, follower misses post")
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	// failures are counted above, so no closure ever returns an error
	_ = g.Wait()

	return domain.FanoutReport{
		Delivered: int(delivered.Load()),
		Failed:    int(failed.Load()),
	}
}
