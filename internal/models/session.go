package models

import "time"

// Profile is the subset of the GitHub user profile kept in a session.
type Profile struct {
	ExternalID int64  `json:"id"`
	Login      string `json:"login"`
	Name       string `json:"name,omitempty"`
	AvatarURL  string `json:"avatar_url"`
	HTMLURL    string `json:"html_url,omitempty"`
}

// Session is the per-browser authentication state.
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	AccessToken   string    `json:"-"` // never serialized
	Profile       *Profile  `json:"profile,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// CanAct reports whether the session may call GitHub on the user's behalf.
func (s *Session) CanAct() bool {
	return s != nil && s.Authenticated && s.AccessToken != ""
}
