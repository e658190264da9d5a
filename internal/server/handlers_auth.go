package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/teemow/calhighlight/internal/logging"
	"github.com/teemow/calhighlight/internal/session"
)

// Error codes passed to the frontend on a failed browser login.
const (
	loginErrorOAuth    = "oauth_failed"
	loginErrorNoCode   = "no_code"
	loginErrorCallback = "callback_failed"
)

func (s *Server) sessionsEnabled(w http.ResponseWriter) bool {
	if s.cfg.Sessions == nil {
		writeError(w, UnavailableError("Sessions are not configured"))
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled(w) {
		return
	}
	gw, apiErr := s.gateway(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	state := uuid.NewString()
	s.cfg.Sessions.SaveState(w, state)
	http.Redirect(w, r, gw.AuthURL(state), http.StatusFound)
}

func (s *Server) handleLoginCallback(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled(w) {
		return
	}
	logger := loggerFrom(r.Context(), s.logger)
	q := r.URL.Query()

	expected := s.cfg.Sessions.ConsumeState(w, r)
	if q.Get("error") != "" || expected == "" || q.Get("state") != expected {
		logger.Warn("login rejected", logging.Status(loginErrorOAuth))
		loginFailed(w, r, loginErrorOAuth)
		return
	}

	code := q.Get("code")
	if code == "" {
		loginFailed(w, r, loginErrorNoCode)
		return
	}

	gw, apiErr := s.gateway(r)
	if apiErr != nil {
		loginFailed(w, r, loginErrorCallback)
		return
	}
	tokens, err := gw.ExchangeCode(r.Context(), code)
	if err != nil {
		logger.Warn("login code exchange failed", logging.Provider(gw.Name()), logging.Err(err))
		loginFailed(w, r, loginErrorCallback)
		return
	}
	if err := s.cfg.Sessions.Save(w, session.FromTokens(tokens)); err != nil {
		logger.Error("failed to save session", logging.Err(err))
		loginFailed(w, r, loginErrorCallback)
		return
	}

	logger.Info("user logged in", logging.Provider(gw.Name()), logging.Session(tokens.AccessToken))
	http.Redirect(w, r, "/", http.StatusFound)
}

func loginFailed(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?error="+code, http.StatusFound)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled(w) {
		return
	}
	d := s.cfg.Sessions.Load(r)
	resp := map[string]any{"isLoggedIn": d.IsLoggedIn && d.AccessToken != ""}
	if d.ExpiryDate != 0 {
		resp["expiryDate"] = d.ExpiryDate
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled(w) {
		return
	}
	d := s.cfg.Sessions.Load(r)
	if d.AccessToken != "" {
		if gw, apiErr := s.gateway(r); apiErr == nil {
			gw.Forget(d.AccessToken)
		}
	}
	s.cfg.Sessions.Destroy(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

