package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/avellar/chat-service/internal/config"
	"github.com/avellar/chat-service/internal/observability"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

const stateTTL = 10 * time.Minute

// googleFlow drives the federated login redirect dance. States are held
// in memory; like guest sessions they do not survive a restart.
type googleFlow struct {
	oauth *oauth2.Config

	mu     sync.Mutex
	states map[string]time.Time
}

func newGoogleFlow(cfg *config.Config) *googleFlow {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil
	}

	return &googleFlow{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		states: make(map[string]time.Time),
	}
}

func (g *googleFlow) newState() string {
	state := uuid.NewString()

	g.mu.Lock()
	defer g.mu.Unlock()

	for s, issued := range g.states {
		if time.Since(issued) > stateTTL {
			delete(g.states, s)
		}
	}
	g.states[state] = time.Now()
	return state
}

func (g *googleFlow) consumeState(state string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	issued, ok := g.states[state]
	if !ok {
		return false
	}
	delete(g.states, state)
	return time.Since(issued) <= stateTTL
}

type googleProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		writeJSON(w, http.StatusNotFound, errorBody("Google login is not configured"))
		return
	}

	authURL := s.google.oauth.AuthCodeURL(s.google.newState())
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		writeJSON(w, http.StatusNotFound, errorBody("Google login is not configured"))
		return
	}

	log := observability.LoggerFromContext(r.Context())

	if !s.google.consumeState(r.URL.Query().Get("state")) {
		badRequest(w, "invalid OAuth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		badRequest(w, "missing OAuth code")
		return
	}

	token, err := s.google.oauth.Exchange(r.Context(), code)
	if err != nil {
		log.Error("oauth exchange failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Google login failed"))
		return
	}

	res, err := s.google.oauth.Client(r.Context(), token).Get(userInfoURL)
	if err != nil {
		log.Error("fetching google profile failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Google login failed"))
		return
	}
	defer res.Body.Close()

	var profile googleProfile
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		log.Error("decoding google profile failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Google login failed"))
		return
	}

	out, err := s.auth.LoginWithGoogle(r.Context(), profile.ID, profile.Email, profile.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	redirect := s.frontendURL + "?token=" + url.QueryEscape(out.Token)
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}
