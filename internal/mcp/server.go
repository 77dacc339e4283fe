// Package mcp exposes issue generation and the generated-issue history as
// MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/issue"
	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/store"
)

// Server wraps the generator and store and exposes them as MCP tools.
type Server struct {
	store     store.Store
	generator *issue.Generator
	version   string
}

// NewServer creates the MCP server wrapper. generator may be nil when no
// Anthropic key is configured; the generate tool then reports an error.
func NewServer(s store.Store, gen *issue.Generator, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{store: s, generator: gen, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("discissue", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.generateIssueTool())
	srv.AddTool(s.listIssuesTool())
	srv.AddTool(s.getIssueTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

type issueOut struct {
	ID        string   `json:"id"`
	Repo      string   `json:"repo"`
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	Labels    []string `json:"labels"`
	Number    int      `json:"number,omitempty"`
	URL       string   `json:"url,omitempty"`
	CreatedAt string   `json:"created_at"`
}

func toIssueOut(i *models.GeneratedIssue, withBody bool) issueOut {
	out := issueOut{
		ID:        i.ID,
		Repo:      i.RepoHint,
		Title:     i.Title,
		Labels:    i.Labels,
		CreatedAt: i.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if withBody {
		out.Body = i.Body
	}
	if i.External != nil {
		out.Number = i.External.Number
		out.URL = i.External.URL
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// discissue_generate_issue
func (s *Server) generateIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("discissue_generate_issue",
		mcp.WithDescription("Turn a pasted conversation into a structured GitHub issue (title, body, labels) and save it. Does not file the issue on GitHub."),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Target repository, owner/name or a github.com URL")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Conversation text to summarize")),
	)
	return tool, s.handleGenerateIssue
}

func (s *Server) handleGenerateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.generator == nil {
		return mcp.NewToolResultError("issue generation unavailable: no Anthropic API key configured"), nil
	}
	repo, err := request.RequireString("repo")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen, err := s.generator.Generate(ctx, text, repo)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return mcp.NewToolResultError(ae.Message), nil
		}
		return mcp.NewToolResultError("generation failed"), nil
	}
	return jsonResult(toIssueOut(gen, true))
}

// discissue_list_issues
func (s *Server) listIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("discissue_list_issues",
		mcp.WithDescription("List previously generated issues, newest first. Returns a JSON array with id, repo, title, labels and the GitHub number/url once filed."),
		mcp.WithString("repo", mcp.Description("Only issues generated for this repository hint")),
		mcp.WithBoolean("unfiled", mcp.Description("Only issues not yet filed on GitHub")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of issues (default 50)")),
	)
	return tool, s.handleListIssues
}

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.IssueListFilter{
		RepoHint: request.GetString("repo", ""),
		Unfiled:  request.GetBool("unfiled", false),
		Limit:    request.GetInt("limit", 50),
	}

	issues, err := s.store.ListIssues(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list issues: %v", err)), nil
	}

	out := make([]issueOut, len(issues))
	for i, gen := range issues {
		out[i] = toIssueOut(gen, false)
	}
	return jsonResult(out)
}

// discissue_get_issue
func (s *Server) getIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("discissue_get_issue",
		mcp.WithDescription("Get one generated issue including its body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Generated issue ID")),
	)
	return tool, s.handleGetIssue
}

func (s *Server) handleGetIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen, err := s.store.GetIssue(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("issue not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get issue: %v", err)), nil
	}
	return jsonResult(toIssueOut(gen, true))
}
