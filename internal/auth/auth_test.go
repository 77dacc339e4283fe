package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/github"
	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/session"
)

type fakeProvider struct {
	token       string
	exchangeErr error
	profile     *models.Profile
	profileErr  error
	codes       []string
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://github.com/login/oauth/authorize?state=" + state
}

func (f *fakeProvider) ExchangeCode(_ context.Context, code string) (string, error) {
	f.codes = append(f.codes, code)
	return f.token, f.exchangeErr
}

func (f *fakeProvider) GetProfile(context.Context, string) (*models.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeProvider) CreateIssue(context.Context, string, github.IssueRequest) (*github.CreatedIssue, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) ListRepos(context.Context, string, int) ([]models.RepositoryRef, error) {
	return nil, errors.New("not used")
}

type fakeUsers struct {
	users []*models.User
	err   error
}

func (f *fakeUsers) UpsertUser(_ context.Context, u *models.User) error {
	f.users = append(f.users, u)
	return f.err
}

func octocat() *models.Profile {
	return &models.Profile{
		ExternalID: 583231,
		Login:      "octocat",
		Name:       "The Octocat",
		AvatarURL:  "https://avatars/583231",
		HTMLURL:    "https://github.com/octocat",
	}
}

func newController(p *fakeProvider, users UserStore) (*Controller, *session.MemoryStore) {
	st := session.NewMemoryStore()
	return NewController(p, st, users, time.Hour, nil), st
}

func TestBeginLogin(t *testing.T) {
	c, _ := newController(&fakeProvider{}, nil)
	assert.Equal(t, "https://github.com/login/oauth/authorize?state=abc", c.BeginLogin("abc"))
}

func TestNewState(t *testing.T) {
	a, b := NewState(), NewState()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestLoginStatusLogout(t *testing.T) {
	p := &fakeProvider{token: "gho_x", profile: octocat()}
	users := &fakeUsers{}
	c, st := newController(p, users)
	ctx := context.Background()

	assert.Equal(t, Status{}, c.Status(ctx, "sess-1"))

	sess, err := c.CompleteLogin(ctx, "sess-1", "code-123")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, []string{"code-123"}, p.codes)

	stored, err := st.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "gho_x", stored.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.ExpiresAt, time.Minute)

	status := c.Status(ctx, sess.ID)
	assert.True(t, status.Authenticated)
	assert.Equal(t, octocat(), status.User)

	require.Len(t, users.users, 1)
	assert.Equal(t, int64(583231), users.users[0].ExternalID)
	assert.Equal(t, "octocat", users.users[0].Login)
	assert.Equal(t, "gho_x", users.users[0].AccessToken)

	require.NoError(t, c.Logout(ctx, sess.ID))
	assert.Equal(t, Status{}, c.Status(ctx, sess.ID))

	require.NoError(t, c.Logout(ctx, sess.ID), "logout is idempotent")
}

func TestCompleteLogin_RotatesSessionID(t *testing.T) {
	p := &fakeProvider{token: "gho_x", profile: octocat()}
	c, st := newController(p, nil)
	ctx := context.Background()

	planted := "11111111-1111-4111-8111-111111111111"
	require.NoError(t, st.Put(ctx, planted, &models.Session{ExpiresAt: time.Now().Add(time.Hour)}))

	sess, err := c.CompleteLogin(ctx, planted, "code")
	require.NoError(t, err)
	assert.NotEqual(t, planted, sess.ID)
	assert.NotEmpty(t, sess.ID)

	_, err = st.Get(ctx, planted)
	assert.ErrorIs(t, err, session.ErrNotFound, "pre-login session is dropped")
	assert.False(t, c.Status(ctx, planted).Authenticated)
	assert.True(t, c.Status(ctx, sess.ID).Authenticated)
}

func TestCompleteLogin_WithoutPreviousSession(t *testing.T) {
	p := &fakeProvider{token: "gho_x", profile: octocat()}
	c, _ := newController(p, nil)

	sess, err := c.CompleteLogin(context.Background(), "", "code")
	require.NoError(t, err)
	assert.True(t, c.Status(context.Background(), sess.ID).Authenticated)
}

func TestCompleteLogin_SessionsAreIndependent(t *testing.T) {
	p := &fakeProvider{token: "gho_x", profile: octocat()}
	c, _ := newController(p, nil)
	ctx := context.Background()

	first, err := c.CompleteLogin(ctx, "sess-1", "code")
	require.NoError(t, err)
	second, err := c.CompleteLogin(ctx, "sess-2", "code")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, c.Status(ctx, first.ID).Authenticated)
	require.NoError(t, c.Logout(ctx, first.ID))
	assert.False(t, c.Status(ctx, first.ID).Authenticated)
	assert.True(t, c.Status(ctx, second.ID).Authenticated)
}

func TestCompleteLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		code     string
		kind     apperr.Kind
	}{
		{"missing code", &fakeProvider{token: "gho_x", profile: octocat()}, "", apperr.KindValidation},
		{"exchange fails", &fakeProvider{exchangeErr: errors.New("bad_verification_code")}, "code", apperr.KindUpstream},
		{"profile fails", &fakeProvider{token: "gho_x", profileErr: errors.New("401")}, "code", apperr.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, st := newController(tt.provider, nil)
			ctx := context.Background()
			require.NoError(t, st.Put(ctx, "sess-1", &models.Session{ExpiresAt: time.Now().Add(time.Hour)}))

			_, err := c.CompleteLogin(ctx, "sess-1", tt.code)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tt.kind))

			prev, err := st.Get(ctx, "sess-1")
			require.NoError(t, err, "pre-login session survives a failed login")
			assert.False(t, prev.Authenticated)
		})
	}
}

func TestCompleteLogin_UserStoreFailureIsNotFatal(t *testing.T) {
	p := &fakeProvider{token: "gho_x", profile: octocat()}
	c, _ := newController(p, &fakeUsers{err: errors.New("db locked")})

	sess, err := c.CompleteLogin(context.Background(), "sess-1", "code")
	require.NoError(t, err)
	assert.True(t, c.Status(context.Background(), sess.ID).Authenticated)
}

func TestStatus_ExpiredSession(t *testing.T) {
	c, st := newController(&fakeProvider{}, nil)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "old", &models.Session{
		Authenticated: true,
		AccessToken:   "gho_x",
		Profile:       octocat(),
		ExpiresAt:     time.Now().Add(-time.Minute),
	}))
	assert.Equal(t, Status{}, c.Status(ctx, "old"))
}
