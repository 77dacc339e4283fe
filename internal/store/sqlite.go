package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/discissue/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all DB access and avoids "database is locked" errors
	// from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Generated issues ---

const issueColumns = `id, repo_hint, source_text, title, body, labels, github_issue_number, github_issue_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*models.GeneratedIssue, error) {
	issue := &models.GeneratedIssue{}
	var labels string
	var number sql.NullInt64
	var url sql.NullString

	if err := row.Scan(&issue.ID, &issue.RepoHint, &issue.SourceText, &issue.Title, &issue.Body, &labels,
		&number, &url, &issue.CreatedAt, &issue.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(labels), &issue.Labels); err != nil {
		return nil, fmt.Errorf("decode labels for issue %s: %w", issue.ID, err)
	}
	if issue.Labels == nil {
		issue.Labels = []string{}
	}
	if number.Valid {
		issue.External = &models.ExternalIssueRef{Number: int(number.Int64), URL: url.String}
	}
	return issue, nil
}

func (s *SQLiteStore) CreateIssue(ctx context.Context, issue *models.GeneratedIssue) error {
	if issue.ID == "" {
		issue.ID = newULID()
	}
	if issue.Labels == nil {
		issue.Labels = []string{}
	}
	now := time.Now().UTC()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	labels, err := json.Marshal(issue.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}

	var number sql.NullInt64
	var url sql.NullString
	if issue.External != nil {
		number = sql.NullInt64{Int64: int64(issue.External.Number), Valid: true}
		url = sql.NullString{String: issue.External.URL, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO issues (`+issueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.RepoHint, issue.SourceText, issue.Title, issue.Body, string(labels),
		number, url, issue.CreatedAt, issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetIssue(ctx context.Context, id string) (*models.GeneratedIssue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return issue, nil
}

func (s *SQLiteStore) ListIssues(ctx context.Context, filter IssueListFilter) ([]*models.GeneratedIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues`
	var conditions []string
	var args []any

	if filter.RepoHint != "" {
		conditions = append(conditions, "repo_hint = ?")
		args = append(args, filter.RepoHint)
	}
	if filter.Unfiled {
		conditions = append(conditions, "github_issue_number IS NULL")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryIssues(ctx, query, args...)
}

// FindUnlinkedIssues returns issues with the given title whose repo hint is one
// of repoHints and which are not yet linked to a GitHub issue, newest first.
func (s *SQLiteStore) FindUnlinkedIssues(ctx context.Context, title string, repoHints []string) ([]*models.GeneratedIssue, error) {
	if len(repoHints) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(repoHints))
	args := make([]any, 0, len(repoHints)+1)
	args = append(args, title)
	for i, h := range repoHints {
		placeholders[i] = "?"
		args = append(args, h)
	}

	query := fmt.Sprintf(
		`SELECT `+issueColumns+` FROM issues
		WHERE title = ? AND repo_hint IN (%s) AND github_issue_number IS NULL
		ORDER BY created_at DESC, id DESC`,
		strings.Join(placeholders, ","),
	)
	return s.queryIssues(ctx, query, args...)
}

func (s *SQLiteStore) queryIssues(ctx context.Context, query string, args ...any) ([]*models.GeneratedIssue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*models.GeneratedIssue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

func (s *SQLiteStore) LinkExternalIssue(ctx context.Context, id string, ref models.ExternalIssueRef) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE issues SET github_issue_number=?, github_issue_url=?, updated_at=?
		 WHERE id=? AND github_issue_number IS NULL`,
		ref.Number, ref.URL, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("link issue: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues WHERE id=?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("link issue: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("issue %s: %w", id, ErrAlreadyLinked)
}

// --- Users ---

// UpsertUser inserts the user or refreshes login, avatar and token for an
// existing GitHub account.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = newULID()
	}
	now := time.Now().UTC()
	u.UpdatedAt = now
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, github_id, username, avatar_url, access_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			username=excluded.username,
			avatar_url=excluded.avatar_url,
			access_token=excluded.access_token,
			updated_at=excluded.updated_at`,
		u.ID, u.ExternalID, u.Login, u.AvatarURL, u.AccessToken, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	// Pick up the stored id and created_at when the row already existed.
	return s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE github_id = ?`, u.ExternalID,
	).Scan(&u.ID, &u.CreatedAt)
}

func (s *SQLiteStore) GetUserByExternalID(ctx context.Context, externalID int64) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, github_id, username, avatar_url, access_token, created_at, updated_at
		FROM users WHERE github_id = ?`, externalID,
	).Scan(&u.ID, &u.ExternalID, &u.Login, &u.AvatarURL, &u.AccessToken, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", externalID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// --- Sessions ---

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sess := &models.Session{}
	var profile string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, authenticated, access_token, profile, created_at, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Authenticated, &sess.AccessToken, &profile, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if profile != "" {
		sess.Profile = &models.Profile{}
		if err := json.Unmarshal([]byte(profile), sess.Profile); err != nil {
			return nil, fmt.Errorf("decode session profile: %w", err)
		}
	}
	return sess, nil
}

func (s *SQLiteStore) PutSession(ctx context.Context, sess *models.Session) error {
	var profile []byte
	if sess.Profile != nil {
		var err error
		if profile, err = json.Marshal(sess.Profile); err != nil {
			return fmt.Errorf("encode session profile: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, authenticated, access_token, profile, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			authenticated=excluded.authenticated,
			access_token=excluded.access_token,
			profile=excluded.profile,
			expires_at=excluded.expires_at`,
		sess.ID, boolToInt(sess.Authenticated), sess.AccessToken, string(profile), sess.CreatedAt.UTC(), sess.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
