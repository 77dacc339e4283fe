package store

import (
	"context"
	"errors"
	"time"

	"github.com/joescharf/discissue/internal/models"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

// ErrAlreadyLinked is wrapped when a generated issue already carries a
// GitHub issue reference.
var ErrAlreadyLinked = errors.New("already linked")

// IssueListFilter specifies filters for listing generated issues.
type IssueListFilter struct {
	RepoHint string
	Unfiled  bool // only issues without a linked GitHub issue
	Limit    int
}

// Store defines the persistence interface for discissue.
type Store interface {
	// Generated issues
	CreateIssue(ctx context.Context, issue *models.GeneratedIssue) error
	GetIssue(ctx context.Context, id string) (*models.GeneratedIssue, error)
	ListIssues(ctx context.Context, filter IssueListFilter) ([]*models.GeneratedIssue, error)
	FindUnlinkedIssues(ctx context.Context, title string, repoHints []string) ([]*models.GeneratedIssue, error)
	// LinkExternalIssue records ref on an unlinked issue. An existing link
	// is never replaced.
	LinkExternalIssue(ctx context.Context, id string, ref models.ExternalIssueRef) error

	// Users
	UpsertUser(ctx context.Context, u *models.User) error
	GetUserByExternalID(ctx context.Context, externalID int64) (*models.User, error)

	// Sessions
	GetSession(ctx context.Context, id string) (*models.Session, error)
	PutSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
