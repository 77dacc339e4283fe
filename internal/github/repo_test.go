package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		in    string
		owner string
		name  string
	}{
		{"acme/widgets", "acme", "widgets"},
		{"  acme/widgets  ", "acme", "widgets"},
		{"acme/widgets.git", "acme", "widgets"},
		{"https://github.com/acme/widgets", "acme", "widgets"},
		{"https://github.com/acme/widgets/", "acme", "widgets"},
		{"https://github.com/acme/widgets.git", "acme", "widgets"},
		{"https://github.com/acme/widgets/issues/42", "acme", "widgets"},
		{"https://github.com//acme//widgets", "acme", "widgets"},
		{"http://www.github.com/acme/widgets", "acme", "widgets"},
		{"github.com/acme/widgets", "acme", "widgets"},
		{"git@github.com:acme/widgets.git", "acme", "widgets"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, name, err := ParseRepo(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestParseRepo_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"widgets",
		"acme/",
		"/widgets",
		"acme/widgets/extra",
		"https://github.com/acme",
		"https://github.com/",
		"https://gitlab.com/acme/widgets",
		"git@gitlab.com:acme/widgets.git",
		"git@github.com:acme",
	} {
		t.Run(in, func(t *testing.T) {
			_, _, err := ParseRepo(in)
			assert.Error(t, err)
		})
	}
}

func TestParseRepo_ShortAndURLFormsAgree(t *testing.T) {
	o1, n1, err := ParseRepo("owner/name")
	require.NoError(t, err)
	o2, n2, err := ParseRepo("https://github.com/owner/name")
	require.NoError(t, err)
	assert.Equal(t, o1, o2)
	assert.Equal(t, n1, n2)
}

func TestRepoHints(t *testing.T) {
	hints := RepoHints("https://github.com/acme/widgets", "acme", "widgets")
	assert.Equal(t, "https://github.com/acme/widgets", hints[0], "raw input comes first")
	assert.Contains(t, hints, "acme/widgets")
	assert.Contains(t, hints, "github.com/acme/widgets")

	// No duplicates
	seen := map[string]bool{}
	for _, h := range hints {
		assert.False(t, seen[h], "duplicate hint %s", h)
		seen[h] = true
	}
}
