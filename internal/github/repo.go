package github

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRepo resolves a repository reference to its owner and name.
//
// Accepted forms:
//
//	owner/name
//	owner/name.git
//	https://github.com/owner/name[/...]
//	github.com/owner/name[/...]
//	git@github.com:owner/name.git
//
// URL forms must be on github.com; the first two non-empty path segments are
// used.
func ParseRepo(ref string) (owner, name string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("repository is required")
	}

	// SSH: git@github.com:owner/repo.git
	if strings.HasPrefix(ref, "git@") {
		host, path, ok := strings.Cut(strings.TrimPrefix(ref, "git@"), ":")
		if !ok || !isGitHubHost(host) {
			return "", "", fmt.Errorf("cannot parse SSH remote: %s", ref)
		}
		return ownerName(splitPath(path), ref)
	}

	if strings.Contains(ref, "://") || isGitHubHost(strings.SplitN(ref, "/", 2)[0]) {
		raw := ref
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("cannot parse repository URL %q: %w", ref, err)
		}
		if !isGitHubHost(u.Hostname()) {
			return "", "", fmt.Errorf("not a github.com repository: %s", ref)
		}
		return ownerName(splitPath(u.Path), ref)
	}

	// Bare owner/name: exactly two segments.
	segments := strings.Split(ref, "/")
	if len(segments) != 2 {
		return "", "", fmt.Errorf("invalid repository format %q, use owner/repo", ref)
	}
	return ownerName(segments, ref)
}

// RepoHints returns the spellings a client may have used for owner/name,
// starting with raw as given.
func RepoHints(raw, owner, name string) []string {
	full := owner + "/" + name
	candidates := []string{
		strings.TrimSpace(raw),
		full,
		"https://github.com/" + full,
		"https://github.com/" + full + ".git",
		"github.com/" + full,
	}

	seen := make(map[string]bool, len(candidates))
	hints := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		hints = append(hints, c)
	}
	return hints
}

func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || host == "www.github.com"
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func ownerName(segments []string, ref string) (string, string, error) {
	if len(segments) < 2 {
		return "", "", fmt.Errorf("cannot parse owner/repo from: %s", ref)
	}
	owner := segments[0]
	name := strings.TrimSuffix(segments[1], ".git")
	if owner == "" || name == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from: %s", ref)
	}
	return owner, name, nil
}
