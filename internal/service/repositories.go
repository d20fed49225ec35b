package service

import "tinyfeed/internal/repository"

// Repositories bundles the leaf stores every service reads from.
type Repositories struct {
	Users     repository.UserRepository
	Posts     repository.PostRepository
	Graph     repository.GraphRepository
	Timelines repository.TimelineRepository
}
