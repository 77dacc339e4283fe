// Package github talks to GitHub on behalf of a logged-in user: the OAuth
// authorization-code exchange and the REST calls the issue pipeline needs.
package github

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joescharf/discissue/internal/models"
)

// IssueRequest describes an issue to open in Owner/Repo.
type IssueRequest struct {
	Owner  string
	Repo   string
	Title  string
	Body   string
	Labels []string
}

// CreatedIssue is GitHub's record of a newly opened issue.
type CreatedIssue struct {
	ID     int64
	Number int
	URL    string
	Title  string
}

// Provider is the set of GitHub operations the application depends on.
// Every call after ExchangeCode authenticates with the user's token.
type Provider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	GetProfile(ctx context.Context, token string) (*models.Profile, error)
	CreateIssue(ctx context.Context, token string, req IssueRequest) (*CreatedIssue, error)
	ListRepos(ctx context.Context, token string, limit int) ([]models.RepositoryRef, error)
}

// APIError is a non-2xx response from the GitHub REST API.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Payload    json.RawMessage // raw error document, for diagnostics
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("github %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("github %s: status %d", e.Op, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }
