package domain

import "time"

// Post is an immutable message. AuthorUsername is copied in at publish
// time so timelines render without a user lookup.
type Post struct {
	ID             int64
	AuthorID       int64
	AuthorUsername string
	Message        string
	CreatedAt      time.Time
}

// FanoutReport counts follower timelines reached by one publish. The
// author's own timeline is not included.
type FanoutReport struct {
	Delivered int
	Failed    int
}
