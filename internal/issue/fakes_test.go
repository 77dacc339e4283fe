package issue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joescharf/discissue/internal/github"
	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeCompleter struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

type fakeProvider struct {
	created   *github.CreatedIssue
	createErr error
	repos     []models.RepositoryRef
	listErr   error

	createCalls []github.IssueRequest
	tokens      []string
	listLimit   int
	listCalls   int
}

func (f *fakeProvider) AuthCodeURL(state string) string { return "https://github.test/authorize?state=" + state }

func (f *fakeProvider) ExchangeCode(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) GetProfile(context.Context, string) (*models.Profile, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) CreateIssue(_ context.Context, token string, req github.IssueRequest) (*github.CreatedIssue, error) {
	f.createCalls = append(f.createCalls, req)
	f.tokens = append(f.tokens, token)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeProvider) ListRepos(_ context.Context, _ string, limit int) ([]models.RepositoryRef, error) {
	f.listCalls++
	f.listLimit = limit
	return f.repos, f.listErr
}

// failingStore fails issue writes.
type failingStore struct {
	store.Store
}

func (failingStore) CreateIssue(context.Context, *models.GeneratedIssue) error {
	return errors.New("disk full")
}

func authedSession() *models.Session {
	return &models.Session{
		ID:            "s1",
		Authenticated: true,
		AccessToken:   "gho_token",
		Profile:       &models.Profile{ExternalID: 1, Login: "octocat"},
	}
}
