package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/discissue/internal/daemon"
	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/session"
	"github.com/joescharf/discissue/internal/store"
)

func TestPidFile_Path(t *testing.T) {
	dir := testEnv(t)

	pf := pidFile()
	expected := filepath.Join(dir, "discissue-serve.pid")
	assert.Equal(t, expected, pf.Path)
}

func TestServeLogPath(t *testing.T) {
	dir := testEnv(t)

	logPath := serveLogPath()
	expected := filepath.Join(dir, "discissue-serve.log")
	assert.Equal(t, expected, logPath)
}

func TestServeStatusRun_NotRunning(t *testing.T) {
	testEnv(t)

	// No PID file exists, so status should show "not running" without error.
	err := serveStatusRun()
	assert.NoError(t, err)
}

func TestServeStopRun_NotRunning(t *testing.T) {
	testEnv(t)

	// No PID file exists, so stop should return an error.
	err := serveStopRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestServeStartRun_AlreadyRunning(t *testing.T) {
	dir := testEnv(t)

	// Write a PID file for the current process (which is alive).
	pf := daemon.NewPIDFile(filepath.Join(dir, "discissue-serve.pid"))
	require.NoError(t, pf.Write())
	t.Cleanup(func() { _ = os.Remove(pf.Path) })

	err := serveStartRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServeStartRun_DryRun(t *testing.T) {
	testEnv(t)
	dryRun = true
	ui.DryRun = true
	defer func() { dryRun = false }()

	require.NoError(t, serveStartRun())
	_, err := os.Stat(pidFile().Path)
	assert.True(t, os.IsNotExist(err), "dry run must not spawn a server")
}

// countingStore counts sweeps over an in-memory session store.
type countingStore struct {
	*session.MemoryStore
	sweeps atomic.Int32
}

func (c *countingStore) Cleanup(ctx context.Context) (int, error) {
	c.sweeps.Add(1)
	return c.MemoryStore.Cleanup(ctx)
}

func TestSweepSessions(t *testing.T) {
	st := &countingStore{MemoryStore: session.NewMemoryStore()}
	ctx, cancel := context.WithCancel(context.Background())

	past := time.Now().Add(-time.Hour)
	require.NoError(t, st.Put(ctx, "stale", &models.Session{ID: "stale", CreatedAt: past, ExpiresAt: past.Add(time.Minute)}))

	done := make(chan struct{})
	go func() {
		sweepSessions(ctx, st, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	assert.Eventually(t, func() bool { return st.sweeps.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSweepSessions_DisabledInterval(t *testing.T) {
	st := &countingStore{MemoryStore: session.NewMemoryStore()}

	// Returns immediately without ticking.
	sweepSessions(context.Background(), st, 0, slog.Default())
	assert.Equal(t, int32(0), st.sweeps.Load())
}

func openTestStore(t *testing.T, dir string) store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "discissue.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewSessionStore(t *testing.T) {
	dir := testEnv(t)
	s := openTestStore(t, dir)

	st, err := newSessionStore(s)
	require.NoError(t, err)
	assert.IsType(t, &session.SQLStore{}, st)

	viper.Set("session.store", "memory")
	st, err = newSessionStore(s)
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, st)

	viper.Set("session.store", "redis")
	_, err = newSessionStore(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session.store")
}

func TestBuildAPI_RequiresGitHubConfig(t *testing.T) {
	dir := testEnv(t)
	viper.Set("anthropic.api_key", "sk-test")

	_, _, err := buildAPI(openTestStore(t, dir), slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github OAuth app not configured")
}

func TestBuildAPI_RequiresAnthropicKey(t *testing.T) {
	dir := testEnv(t)
	viper.Set("github.client_id", "cid")
	viper.Set("github.client_secret", "secret")

	_, _, err := buildAPI(openTestStore(t, dir), slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic API key not configured")
}

func TestBuildAPI_ServesPing(t *testing.T) {
	dir := testEnv(t)
	viper.Set("github.client_id", "cid")
	viper.Set("github.client_secret", "secret")
	viper.Set("anthropic.api_key", "sk-test")

	h, st, err := buildAPI(openTestStore(t, dir), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NotNil(t, st)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewLogger(t *testing.T) {
	testEnv(t)
	var buf bytes.Buffer

	viper.Set("log.format", "json")
	newLogger(&buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	viper.Set("log.format", "text")
	viper.Set("log.level", "warn")
	l := newLogger(&buf)
	l.Info("quiet")
	l.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "msg=loud")
}
