package models

import (
	"regexp"
	"time"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Profile is the public face of an account.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IsPublic  bool      `json:"is_public"`
	PushToken string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the username rules.
func (p *Profile) Validate() error {
	if len(p.Username) < MinUsernameLength {
		return invalid("username", "username must be at least 3 characters")
	}
	if len(p.Username) > MaxUsernameLength {
		return invalid("username", "username must be 30 characters or fewer")
	}
	if !usernamePattern.MatchString(p.Username) {
		return invalid("username", "username may only contain lowercase letters, digits and underscores")
	}
	return nil
}

// Relationship is a directed follow edge.
type Relationship struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

// Validate rejects empty ids and self-follows.
func (r *Relationship) Validate() error {
	if r.FollowerID == "" || r.FollowingID == "" {
		return invalid("following_id", "follower and following ids are required")
	}
	if r.FollowerID == r.FollowingID {
		return invalid("following_id", "cannot follow yourself")
	}
	return nil
}
