package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/issue"
	"github.com/joescharf/discissue/internal/models"
	"github.com/joescharf/discissue/internal/store"
)

type generateRequest struct {
	RepoHint       string `json:"repoHint"`
	GithubRepo     string `json:"githubRepo"`
	Text           string `json:"text"`
	DiscordContent string `json:"discordContent"`
}

type generateResponse struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

func (s *Server) generateIssue(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	repo := firstNonEmpty(req.RepoHint, req.GithubRepo)
	text := firstNonEmpty(req.Text, req.DiscordContent)

	gen, err := s.Generator.Generate(r.Context(), text, repo)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		ID:     gen.ID,
		Title:  gen.Title,
		Body:   gen.Body,
		Labels: gen.Labels,
	})
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.IssueListFilter{
		RepoHint: q.Get("repo"),
		Unfiled:  q.Get("unfiled") == "true",
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	issues, err := s.Store.ListIssues(r.Context(), filter)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if issues == nil {
		issues = []*models.GeneratedIssue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	gen, err := s.Store.GetIssue(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "issue not found")
		return
	}
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gen)
}

type createIssueRequest struct {
	IssueID    string   `json:"issueId"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Labels     []string `json:"labels"`
	Repo       string   `json:"repo"`
	GithubRepo string   `json:"githubRepo"`
}

type createIssueResponse struct {
	ID       int64  `json:"id"`
	Number   int    `json:"number"`
	URL      string `json:"url"`
	HTMLURL  string `json:"html_url"`
	Title    string `json:"title"`
	LinkedID string `json:"linkedId,omitempty"`
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w, r)
	if !sess.CanAct() {
		s.writeAppError(w, r, apperr.Unauthorized("not authenticated"))
		return
	}

	var req createIssueRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	res, err := s.Gateway.Submit(r.Context(), sess, issue.SubmitRequest{
		IssueID: req.IssueID,
		Title:   req.Title,
		Body:    req.Body,
		Labels:  req.Labels,
		Repo:    firstNonEmpty(req.Repo, req.GithubRepo),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createIssueResponse{
		ID:       res.ID,
		Number:   res.Number,
		URL:      res.URL,
		HTMLURL:  res.URL,
		Title:    res.Title,
		LinkedID: res.LinkedID,
	})
}

type repoResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	FullNameSnake string `json:"full_name"`
	Private       bool   `json:"private"`
}

func (s *Server) listRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.Repos.List(r.Context(), s.currentSession(w, r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	out := make([]repoResponse, 0, len(repos))
	for _, repo := range repos {
		out = append(out, repoResponse{
			ID:            repo.ID,
			Name:          repo.Name,
			FullName:      repo.FullName,
			FullNameSnake: repo.FullName,
			Private:       repo.Private,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
