// Package issue implements the issue pipeline: generating a structured issue
// from conversation text, filing it on GitHub and listing target repositories.
package issue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/llm"
	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/store"
)

// Generator turns raw conversation text into a persisted GeneratedIssue.
type Generator struct {
	llm    llm.Completer
	store  store.Store
	logger *slog.Logger
}

// NewGenerator creates a Generator. A nil logger uses slog.Default().
func NewGenerator(c llm.Completer, s store.Store, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: c, store: s, logger: logger}
}

// Generate asks the model for an issue describing text, targeted at
// repoHint, and persists the result. Output that cannot be parsed degrades
// to a placeholder issue carrying the raw response.
func (g *Generator) Generate(ctx context.Context, text, repoHint string) (*models.GeneratedIssue, error) {
	text = strings.TrimSpace(text)
	repoHint = strings.TrimSpace(repoHint)
	if repoHint == "" {
		return nil, apperr.Validation("repository is required")
	}
	if text == "" {
		return nil, apperr.Validation("conversation text is required")
	}

	response, err := g.llm.Complete(ctx, buildPrompt(text, repoHint))
	if err != nil {
		g.logger.Error("llm completion failed", "repo", repoHint, "error", err)
		return nil, apperr.Upstream("generation failed", err)
	}

	d, ok := extractDraft(response)
	if !ok {
		g.logger.Warn("model output not parseable, using fallback issue", "repo", repoHint, "response_len", len(response))
		d = fallbackDraft(response)
	}

	issue := &models.GeneratedIssue{
		RepoHint:   repoHint,
		SourceText: text,
		Title:      d.Title,
		Body:       d.Body,
		Labels:     d.Labels,
	}
	if err := g.store.CreateIssue(ctx, issue); err != nil {
		g.logger.Error("persist generated issue", "repo", repoHint, "error", err)
		return nil, apperr.Upstream("generation failed", err)
	}

	g.logger.Info("generated issue", "id", issue.ID, "repo", repoHint, "fallback", !ok)
	return issue, nil
}

func buildPrompt(text, repoHint string) string {
	var b strings.Builder
	b.WriteString("Convert the following Discord conversation into a GitHub issue.\n\n")
	fmt.Fprintf(&b, "GitHub Repository: %s\n\n", repoHint)
	b.WriteString("Discord Conversation:\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(`Respond with a single JSON object in a fenced json code block, with exactly these fields:
- "title": a concise, descriptive issue title
- "body": a Markdown description with context, steps to reproduce, expected and actual behavior where relevant
- "labels": an array of label strings (for example "bug", "enhancement", "documentation")

Do not include any other fields.`)
	return b.String()
}
