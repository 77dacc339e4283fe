package issue

import (
	"context"
	"log/slog"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/github"
	"github.com/joescharf/discissue/internal/models"
)

// DefaultRepoPageSize caps the repository listing to one GitHub page.
const DefaultRepoPageSize = 100

// Repos lists repositories the session's user can file issues against.
type Repos struct {
	provider github.Provider
	pageSize int
	logger   *slog.Logger
}

// NewRepos creates a Repos lookup. pageSize <= 0 uses DefaultRepoPageSize.
func NewRepos(p github.Provider, pageSize int, logger *slog.Logger) *Repos {
	if pageSize <= 0 {
		pageSize = DefaultRepoPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repos{provider: p, pageSize: pageSize, logger: logger}
}

// List returns the most recently updated repositories, first page only.
func (r *Repos) List(ctx context.Context, sess *models.Session) ([]models.RepositoryRef, error) {
	if !sess.CanAct() {
		return nil, apperr.Unauthorized("not authenticated")
	}

	repos, err := r.provider.ListRepos(ctx, sess.AccessToken, r.pageSize)
	if err != nil {
		r.logger.Error("list repositories failed", "error", err)
		return nil, apperr.Upstream("failed to fetch repositories", err)
	}
	return repos, nil
}
