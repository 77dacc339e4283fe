package issue

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/github"
	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/store"
)

// SubmitRequest is an (optionally edited) issue to file on GitHub.
type SubmitRequest struct {
	IssueID string // GeneratedIssue to link; empty means match by title and repo
	Title   string
	Body    string
	Labels  []string
	Repo    string
}

// SubmitResult describes the issue GitHub created.
type SubmitResult struct {
	ID       int64  `json:"id"`
	Number   int    `json:"number"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	LinkedID string `json:"linkedId,omitempty"`
}

// Gateway files issues on GitHub with the session's delegated token.
type Gateway struct {
	provider github.Provider
	store    store.Store
	logger   *slog.Logger
}

// NewGateway creates a Gateway. A nil logger uses slog.Default().
func NewGateway(p github.Provider, s store.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{provider: p, store: s, logger: logger}
}

// Submit creates the issue and links it to the matching GeneratedIssue.
// All input checks run before GitHub is called.
func (g *Gateway) Submit(ctx context.Context, sess *models.Session, req SubmitRequest) (*SubmitResult, error) {
	if !sess.CanAct() {
		return nil, apperr.Unauthorized("not authenticated")
	}

	owner, name, err := github.ParseRepo(req.Repo)
	if err != nil {
		return nil, apperr.Validation("invalid repository %q: expected owner/name or a github.com URL", req.Repo)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, apperr.Validation("body is required")
	}

	created, err := g.provider.CreateIssue(ctx, sess.AccessToken, github.IssueRequest{
		Owner:  owner,
		Repo:   name,
		Title:  req.Title,
		Body:   req.Body,
		Labels: req.Labels,
	})
	if err != nil {
		return nil, g.submitError(owner, name, err)
	}

	g.logger.Info("issue created", "repo", owner+"/"+name, "number", created.Number)

	res := &SubmitResult{
		ID:     created.ID,
		Number: created.Number,
		URL:    created.URL,
		Title:  created.Title,
	}
	res.LinkedID = g.link(ctx, req, owner, name, models.ExternalIssueRef{Number: created.Number, URL: created.URL})
	return res, nil
}

// link records ref on the local issue and returns its id, or "" when
// nothing was linked. Failures are logged only.
func (g *Gateway) link(ctx context.Context, req SubmitRequest, owner, name string, ref models.ExternalIssueRef) string {
	if req.IssueID != "" {
		return g.linkExplicit(ctx, req.IssueID, owner, name, ref)
	}

	matches, err := g.store.FindUnlinkedIssues(ctx, req.Title, github.RepoHints(req.Repo, owner, name))
	if err != nil {
		g.logger.Warn("find generated issue to link", "title", req.Title, "error", err)
		return ""
	}
	if len(matches) == 0 {
		g.logger.Debug("no generated issue matches submission", "title", req.Title, "repo", owner+"/"+name)
		return ""
	}
	if len(matches) > 1 {
		g.logger.Warn("several generated issues match submission, linking newest",
			"title", req.Title, "repo", owner+"/"+name, "matches", len(matches))
	}

	id := matches[0].ID
	if err := g.store.LinkExternalIssue(ctx, id, ref); err != nil {
		g.logger.Warn("link generated issue", "id", id, "error", err)
		return ""
	}
	return id
}

// linkExplicit links the named issue only while it is unfiled and was
// generated for owner/name.
func (g *Gateway) linkExplicit(ctx context.Context, id, owner, name string, ref models.ExternalIssueRef) string {
	gen, err := g.store.GetIssue(ctx, id)
	if err != nil {
		g.logger.Warn("load generated issue to link", "id", id, "error", err)
		return ""
	}
	if gen.Filed() {
		g.logger.Warn("generated issue already filed, not relinking",
			"id", id, "number", gen.External.Number, "url", gen.External.URL)
		return ""
	}
	if !sameRepo(gen.RepoHint, owner, name) {
		g.logger.Warn("generated issue belongs to another repository, not linking",
			"id", id, "repo_hint", gen.RepoHint, "repo", owner+"/"+name)
		return ""
	}

	if err := g.store.LinkExternalIssue(ctx, id, ref); err != nil {
		g.logger.Warn("link generated issue", "id", id, "error", err)
		return ""
	}
	return id
}

// sameRepo reports whether hint names owner/name. GitHub compares owner
// and repository names case-insensitively.
func sameRepo(hint, owner, name string) bool {
	o, n, err := github.ParseRepo(hint)
	if err != nil {
		return false
	}
	return strings.EqualFold(o, owner) && strings.EqualFold(n, name)
}

func (g *Gateway) submitError(owner, name string, err error) error {
	var apiErr *github.APIError
	if !errors.As(err, &apiErr) {
		g.logger.Error("create issue failed", "repo", owner+"/"+name, "error", err)
		return apperr.Upstream("submission failed", err)
	}

	g.logger.Warn("github rejected issue", "repo", owner+"/"+name, "status", apiErr.StatusCode, "message", apiErr.Message)
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return apperr.NotFound("repository not found or inaccessible", err)
	case http.StatusForbidden:
		return apperr.Forbidden("insufficient permission to create issues", err)
	default:
		e := apperr.Upstream("submission failed", err)
		if len(apiErr.Payload) > 0 {
			e = e.WithDetails(apiErr.Payload)
		}
		return e
	}
}
