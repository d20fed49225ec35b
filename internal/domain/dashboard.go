package domain

// TimelineWindow is how many of the most recent timeline entries a dashboard shows.
const TimelineWindow = 21

type TimelineEntry struct {
	PostID         int64
	Message        string
	AuthorUsername string
	RelativeAge    string
}

// Dashboard is the assembled home view for one user.
type Dashboard struct {
	UserID      int64
	Username    string
	Timeline    []TimelineEntry
	Suggestions []string
}
