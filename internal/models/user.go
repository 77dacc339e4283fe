package models

import "time"

// User is a GitHub account that has logged in at least once.
type User struct {
	ID          string
	ExternalID  int64
	Login       string
	AvatarURL   string
	AccessToken string `json:"-"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
