package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/discissue/internal/models"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestInfo(t *testing.T) {
	u, out, _ := newTestUI()
	u.Info("hello %s", "world")
	assert.Contains(t, out.String(), "hello world")
}

func TestSuccess(t *testing.T) {
	u, out, _ := newTestUI()
	u.Success("done %d", 42)
	assert.Contains(t, out.String(), "done 42")
}

func TestWarning(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Warning("careful %s", "now")
	assert.Contains(t, errOut.String(), "careful now")
}

func TestError(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Error("failed %s", "badly")
	assert.Contains(t, errOut.String(), "failed badly")
}

func TestVerboseLog(t *testing.T) {
	u, out, _ := newTestUI()
	u.VerboseLog("detail %d", 1)
	assert.Empty(t, out.String())

	u.Verbose = true
	u.VerboseLog("detail %d", 1)
	assert.Contains(t, out.String(), "detail 1")
}

func TestDryRunMsg(t *testing.T) {
	u, _, errOut := newTestUI()
	u.DryRunMsg("would stop %s", "server")
	assert.Empty(t, errOut.String())

	u.DryRun = true
	u.DryRunMsg("would stop %s", "server")
	assert.Contains(t, errOut.String(), "[DRY-RUN]")
	assert.Contains(t, errOut.String(), "would stop server")
}

func TestFiledLabel(t *testing.T) {
	draft := &models.GeneratedIssue{}
	assert.Contains(t, FiledLabel(draft), "draft")

	filed := &models.GeneratedIssue{External: &models.ExternalIssueRef{Number: 42, URL: "u"}}
	assert.Contains(t, FiledLabel(filed), "#42")
}

func TestIssueTable(t *testing.T) {
	u, out, _ := newTestUI()
	issues := []*models.GeneratedIssue{
		{ID: "01HZX4Y5Z6ABCDEFGHJKMNPQRS", RepoHint: "acme/widgets", Title: "Bug: crash on save", Labels: []string{"bug", "crash"}, CreatedAt: time.Now()},
		{ID: "01HZX4Y5Z6ABCDEFGHJKMNPQRT", RepoHint: "acme/gadgets", Title: strings.Repeat("long ", 30), External: &models.ExternalIssueRef{Number: 7}, CreatedAt: time.Now()},
	}
	require.NoError(t, u.IssueTable(issues))

	result := out.String()
	assert.Contains(t, result, "acme/widgets")
	assert.Contains(t, result, "bug,crash")
	assert.Contains(t, result, "01HZX4Y5Z6AB")
	assert.NotContains(t, result, "01HZX4Y5Z6ABCDEFGHJKMNPQRS")
	assert.Contains(t, result, "…")
}

func TestIssueDetail(t *testing.T) {
	u, out, _ := newTestUI()
	u.IssueDetail(&models.GeneratedIssue{
		ID:        "id-1",
		RepoHint:  "acme/widgets",
		Title:     "Bug: crash on save",
		Body:      "Steps to reproduce",
		Labels:    []string{"bug"},
		External:  &models.ExternalIssueRef{Number: 42, URL: "https://github.com/acme/widgets/issues/42"},
		CreatedAt: time.Now(),
	})

	result := out.String()
	assert.Contains(t, result, "Bug: crash on save")
	assert.Contains(t, result, "Steps to reproduce")
	assert.Contains(t, result, "https://github.com/acme/widgets/issues/42")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
