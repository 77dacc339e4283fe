package issue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/models"
)

func TestReposList(t *testing.T) {
	p := &fakeProvider{repos: []models.RepositoryRef{
		{ID: 1, Name: "widgets", FullName: "acme/widgets"},
		{ID: 2, Name: "secret", FullName: "acme/secret", Private: true},
	}}
	r := NewRepos(p, 0, nil)

	got, err := r.List(context.Background(), authedSession())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, DefaultRepoPageSize, p.listLimit)
}

func TestReposList_PageSize(t *testing.T) {
	p := &fakeProvider{}
	r := NewRepos(p, 25, nil)

	_, err := r.List(context.Background(), authedSession())
	require.NoError(t, err)
	assert.Equal(t, 25, p.listLimit)
}

func TestReposList_Unauthorized(t *testing.T) {
	p := &fakeProvider{}
	r := NewRepos(p, 0, nil)

	_, err := r.List(context.Background(), &models.Session{ID: "anon"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Zero(t, p.listCalls)
}

func TestReposList_ProviderError(t *testing.T) {
	r := NewRepos(&fakeProvider{listErr: errors.New("boom")}, 0, nil)

	_, err := r.List(context.Background(), authedSession())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "failed to fetch repositories", ae.Message)
}
