package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/joescharf/discissue/internal/models"
)

// DefaultScopes lets the app read the profile and open issues in public and
// private repositories.
var DefaultScopes = []string{"read:user", "user:email", "repo"}

// Config holds the OAuth app credentials and endpoint overrides.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Overrides for GitHub Enterprise or tests. Empty means github.com.
	AuthURL    string
	TokenURL   string
	APIBaseURL string

	HTTPClient *http.Client
}

// Client implements Provider with golang.org/x/oauth2 and go-github.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	baseURL    *url.URL
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("github client id and secret are required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	endpoint := endpoints.GitHub
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
	}

	if cfg.APIBaseURL != "" {
		base := cfg.APIBaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		c.baseURL = u
	}
	return c, nil
}

// AuthCodeURL returns the authorize URL the browser is redirected to.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code for token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("exchange code for token: empty access token")
	}
	return tok.AccessToken, nil
}

func (c *Client) api(token string) *gh.Client {
	client := gh.NewClient(c.httpClient).WithAuthToken(token)
	if c.baseURL != nil {
		client.BaseURL = c.baseURL
	}
	return client
}

// GetProfile fetches the authenticated user.
func (c *Client) GetProfile(ctx context.Context, token string) (*models.Profile, error) {
	u, resp, err := c.api(token).Users.Get(ctx, "")
	if err != nil {
		return nil, wrapError("get profile", resp, err)
	}
	return &models.Profile{
		ExternalID: u.GetID(),
		Login:      u.GetLogin(),
		Name:       u.GetName(),
		AvatarURL:  u.GetAvatarURL(),
		HTMLURL:    u.GetHTMLURL(),
	}, nil
}

// CreateIssue opens an issue in req.Owner/req.Repo.
func (c *Client) CreateIssue(ctx context.Context, token string, req IssueRequest) (*CreatedIssue, error) {
	ir := &gh.IssueRequest{
		Title: gh.Ptr(req.Title),
		Body:  gh.Ptr(req.Body),
	}
	if len(req.Labels) > 0 {
		labels := append([]string(nil), req.Labels...)
		ir.Labels = &labels
	}

	issue, resp, err := c.api(token).Issues.Create(ctx, req.Owner, req.Repo, ir)
	if err != nil {
		return nil, wrapError("create issue", resp, err)
	}
	return &CreatedIssue{
		ID:     issue.GetID(),
		Number: issue.GetNumber(),
		URL:    issue.GetHTMLURL(),
		Title:  issue.GetTitle(),
	}, nil
}

// ListRepos returns the first page of repositories visible to the user,
// most recently updated first.
func (c *Client) ListRepos(ctx context.Context, token string, limit int) ([]models.RepositoryRef, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: limit},
	}
	repos, resp, err := c.api(token).Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, wrapError("list repositories", resp, err)
	}

	out := make([]models.RepositoryRef, 0, len(repos))
	for _, r := range repos {
		out = append(out, models.RepositoryRef{
			ID:       r.GetID(),
			Name:     r.GetName(),
			FullName: r.GetFullName(),
			Private:  r.GetPrivate(),
		})
	}
	return out, nil
}

// wrapError converts a go-github failure into an *APIError when GitHub
// answered; transport failures are returned wrapped as-is.
func wrapError(op string, resp *gh.Response, err error) error {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		payload, _ := json.Marshal(errResp)
		return &APIError{
			Op:         op,
			StatusCode: errResp.Response.StatusCode,
			Message:    errResp.Message,
			Payload:    payload,
			Err:        err,
		}
	}
	if resp != nil && resp.Response != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return fmt.Errorf("github %s: %w", op, err)
}
