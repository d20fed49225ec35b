package domain

import "time"

// User represents a registered account. Usernames never change once claimed.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
