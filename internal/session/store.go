// Package session keeps per-browser authentication state keyed by an
// opaque cookie-carried identifier.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/store"
)

// ErrNotFound is returned by Get when no live session exists for an id.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is the rolling lifetime of a session.
const DefaultTTL = 24 * time.Hour

// Store persists sessions. Implementations must be safe for concurrent use.
// Get returns ErrNotFound for missing or expired sessions; Delete of a
// missing session is not an error.
type Store interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Put(ctx context.Context, id string, s *models.Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Put(_ context.Context, id string, s *models.Session) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}
	cp := *s
	cp.ID = id

	m.mu.Lock()
	m.sessions[id] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Cleanup removes expired sessions and returns how many were dropped.
func (m *MemoryStore) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, s := range m.sessions {
		if s.IsExpired() {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

// SQLStore keeps sessions in the application database.
type SQLStore struct {
	db store.Store
}

// NewSQLStore returns a session store backed by db's sessions table.
func NewSQLStore(db store.Store) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.db.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		_ = s.db.DeleteSession(ctx, id)
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *SQLStore) Put(ctx context.Context, id string, sess *models.Session) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	cp := *sess
	cp.ID = id
	return s.db.PutSession(ctx, &cp)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	return s.db.DeleteSession(ctx, id)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (s *SQLStore) Cleanup(ctx context.Context) (int, error) {
	n, err := s.db.DeleteExpiredSessions(ctx, time.Now())
	return int(n), err
}
