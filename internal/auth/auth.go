// Package auth drives the GitHub OAuth login flow and keeps its outcome in
// the session store.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/github"
	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/session"
)

// UserStore records users that have logged in.
type UserStore interface {
	UpsertUser(ctx context.Context, u *models.User) error
}

// Status is the client-visible view of a session.
type Status struct {
	Authenticated bool            `json:"authenticated"`
	User          *models.Profile `json:"user,omitempty"`
}

// Controller implements login, status and logout on top of a session store.
type Controller struct {
	provider github.Provider
	sessions session.Store
	users    UserStore
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewController creates a Controller. users may be nil, in which case logins
// are not recorded.
func NewController(p github.Provider, sessions session.Store, users UserStore, ttl time.Duration, logger *slog.Logger) *Controller {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		provider: p,
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// NewState returns a random OAuth state value.
func NewState() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// BeginLogin returns the GitHub authorize URL carrying state.
func (c *Controller) BeginLogin(state string) string {
	return c.provider.AuthCodeURL(state)
}

// CompleteLogin exchanges code for a token, fetches the user's profile and
// stores the authenticated session under a freshly minted id, which it
// returns in the session. previousID, the pre-login session if any, is
// deleted so an id known before login never becomes authenticated.
func (c *Controller) CompleteLogin(ctx context.Context, previousID, code string) (*models.Session, error) {
	if code == "" {
		return nil, apperr.Validation("missing authorization code")
	}

	token, err := c.provider.ExchangeCode(ctx, code)
	if err != nil {
		c.logger.Warn("oauth code exchange failed", "error", err)
		return nil, apperr.Upstream("authentication failed", err)
	}

	profile, err := c.provider.GetProfile(ctx, token)
	if err != nil {
		c.logger.Warn("fetch github profile failed", "error", err)
		return nil, apperr.Upstream("failed to fetch user profile", err)
	}

	c.recordUser(ctx, profile, token)

	now := c.now()
	sess := &models.Session{
		ID:            c.newID(),
		Authenticated: true,
		AccessToken:   token,
		Profile:       profile,
		CreatedAt:     now,
		ExpiresAt:     now.Add(c.ttl),
	}
	if err := c.sessions.Put(ctx, sess.ID, sess); err != nil {
		c.logger.Error("store session failed", "error", err)
		return nil, apperr.Upstream("failed to store session", err)
	}

	if previousID != "" && previousID != sess.ID {
		if err := c.sessions.Delete(ctx, previousID); err != nil {
			c.logger.Warn("drop pre-login session failed", "error", err)
		}
	}

	c.logger.Info("user logged in", "login", profile.Login)
	return sess, nil
}

func (c *Controller) recordUser(ctx context.Context, p *models.Profile, token string) {
	if c.users == nil {
		return
	}
	u := &models.User{
		ExternalID:  p.ExternalID,
		Login:       p.Login,
		AvatarURL:   p.AvatarURL,
		AccessToken: token,
	}
	if err := c.users.UpsertUser(ctx, u); err != nil {
		c.logger.Warn("record user failed", "login", p.Login, "error", err)
	}
}

// Session returns the live session for id, or nil when there is none.
func (c *Controller) Session(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := c.sessions.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Status reports whether id belongs to a logged-in session. Store errors
// are logged and reported as anonymous.
func (c *Controller) Status(ctx context.Context, id string) Status {
	sess, err := c.Session(ctx, id)
	if err != nil {
		c.logger.Warn("load session failed", "error", err)
		return Status{}
	}
	if !sess.CanAct() {
		return Status{}
	}
	return Status{Authenticated: true, User: sess.Profile}
}

// Logout destroys the session. Logging out twice is not an error.
func (c *Controller) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := c.sessions.Delete(ctx, id); err != nil {
		return apperr.Upstream("failed to clear session", err)
	}
	return nil
}
