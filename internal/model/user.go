package model

import "time"

// User is an identity known to the identity service. ID is the Cognito sub.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileSummary is the subset of a profile returned to its owner on read.
type ProfileSummary struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
