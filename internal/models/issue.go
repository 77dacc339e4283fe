package models

import "time"

// ExternalIssueRef points at an issue created on GitHub.
type ExternalIssueRef struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// GeneratedIssue is an issue produced from free-form text by the LLM.
// Once persisted only External may change.
type GeneratedIssue struct {
	ID         string            `json:"id"`
	RepoHint   string            `json:"repoHint"`
	SourceText string            `json:"sourceText"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Labels     []string          `json:"labels"`
	External   *ExternalIssueRef `json:"external,omitempty"` // nil = not yet filed
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Filed reports whether the issue has been submitted to GitHub.
func (i *GeneratedIssue) Filed() bool {
	return i.External != nil && i.External.Number > 0
}
