package models

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidUsername = errors.New("username must not be empty")

// NormalizeUsername lowercases and trims a username for index lookups.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UsernameEntry maps a normalized username to its owner. Usernames are unique.
type UsernameEntry struct {
	Username string `json:"username"`
	OwnerID  string `json:"owner_id"`
}

// Profile is the public user record created together with its UsernameEntry.
type Profile struct {
	OwnerID   string    `json:"owner_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalize returns p with a normalized username, or ErrInvalidUsername.
func (p Profile) Normalize() (Profile, error) {
	p.Username = NormalizeUsername(p.Username)
	if p.Username == "" {
		return p, ErrInvalidUsername
	}
	return p, nil
}

// Suggestion is a username search hit augmented with its avatar URL. The URL
// is empty when the user has no picture or it could not be resolved.
type Suggestion struct {
	UsernameEntry
	AvatarURL string
}
