package domain

type FollowResult string

const (
	FollowCreated       FollowResult = "created"
	FollowAlreadyExists FollowResult = "already_following"
	FollowedSelf        FollowResult = "followed_self"
)
