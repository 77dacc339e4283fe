package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joescharf/discissue/internal/models"
)

// CookieName is the cookie carrying the session id.
const CookieName = "discissue_session"

// Options configures a Manager.
type Options struct {
	TTL          time.Duration
	SecureCookie bool
	CookiePath   string
}

// Manager maps HTTP cookies onto sessions in a Store.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
	path   string
	now    func() time.Time
}

// NewManager creates a Manager over st.
func NewManager(st Store, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CookiePath == "" {
		opts.CookiePath = "/"
	}
	return &Manager{store: st, ttl: opts.TTL, secure: opts.SecureCookie, path: opts.CookiePath, now: time.Now}
}

// Store returns the underlying session store.
func (m *Manager) Store() Store { return m.store }

// TTL returns the rolling session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// ID returns the session id carried by r, or "" if none.
func (m *Manager) ID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// Ensure returns the request's session id, issuing a new cookie when the
// request carries none.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) string {
	if id := m.ID(r); id != "" {
		return id
	}
	id := uuid.NewString()
	m.setCookie(w, id, m.ttl)
	return id
}

// Issue points the client's session cookie at id.
func (m *Manager) Issue(w http.ResponseWriter, id string) {
	m.setCookie(w, id, m.ttl)
}

// Load returns the live session for r and extends its expiry. A request
// without a session yields (nil, nil).
func (m *Manager) Load(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Session, error) {
	id := m.ID(r)
	if id == "" {
		return nil, nil
	}
	sess, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess.ExpiresAt = m.now().Add(m.ttl)
	if err := m.store.Put(ctx, id, sess); err != nil {
		slog.Warn("failed to extend session", "error", err)
	} else {
		m.setCookie(w, id, m.ttl)
	}
	return sess, nil
}

// NewSession returns an empty session with id stamped with the manager's TTL.
func (m *Manager) NewSession(id string) *models.Session {
	now := m.now()
	return &models.Session{ID: id, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}
}

// Clear expires the session cookie on the client.
func (m *Manager) Clear(w http.ResponseWriter) {
	m.setCookie(w, "", -1)
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     m.path,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
		c.Expires = m.now().Add(ttl)
	}
	http.SetCookie(w, c)
}
