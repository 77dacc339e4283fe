package api

import (
	"errors"
	"net/http"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/auth"
	"github.com/joescharf/discissue/internal/models"
)

const stateCookie = "discissue_oauth_state"

func (s *Server) authStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Auth.Status(r.Context(), s.Sessions.ID(r)))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Ensure(w, r)

	state := auth.NewState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.Auth.BeginLogin(state), http.StatusFound)
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	expected := ""
	if c, err := r.Cookie(stateCookie); err == nil {
		expected = c.Value
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1, HttpOnly: true})

	if e := q.Get("error"); e != "" {
		msg := q.Get("error_description")
		if msg == "" {
			msg = e
		}
		s.loginFailed(w, r, msg)
		return
	}
	if expected == "" || q.Get("state") != expected {
		s.loginFailed(w, r, "invalid oauth state")
		return
	}

	sess, err := s.Auth.CompleteLogin(r.Context(), s.Sessions.ID(r), q.Get("code"))
	if err != nil {
		msg := "authentication failed"
		var ae *apperr.Error
		if errors.As(err, &ae) {
			msg = ae.Message
		}
		s.loginFailed(w, r, msg)
		return
	}
	s.Sessions.Issue(w, sess.ID)

	http.Redirect(w, r, s.cfg.SuccessURL, http.StatusFound)
}

func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, msg string) {
	s.logger.Warn("login failed", "reason", msg, "request_id", requestID(r.Context()))
	http.Redirect(w, r, withQuery(s.cfg.ErrorURL, "message", msg), http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.Logout(r.Context(), s.Sessions.ID(r)); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.Sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// currentSession loads the caller's session, extending its lifetime.
// Missing sessions and store errors both yield nil.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) *models.Session {
	sess, err := s.Sessions.Load(r.Context(), w, r)
	if err != nil {
		s.logger.Warn("load session failed", "error", err, "request_id", requestID(r.Context()))
		return nil
	}
	return sess
}
