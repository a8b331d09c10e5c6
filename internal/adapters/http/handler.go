package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/avellar/chat-service/internal/app/auth"
	"github.com/avellar/chat-service/internal/app/chat"
	"github.com/avellar/chat-service/internal/config"
	"github.com/avellar/chat-service/internal/domain"
	"github.com/avellar/chat-service/internal/observability"
)

type Server struct {
	auth  *auth.Service
	chat  *chat.Service
	store domain.ConversationStore

	google      *googleFlow
	frontendURL string
}

func NewServer(
	authSvc *auth.Service,
	chatSvc *chat.Service,
	store domain.ConversationStore,
	cfg *config.Config,
) http.Handler {
	s := &Server{
		auth:        authSvc,
		chat:        chatSvc,
		store:       store,
		google:      newGoogleFlow(cfg),
		frontendURL: cfg.FrontendURL,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("GET /api/auth/google", s.handleGoogleLogin)
	mux.HandleFunc("GET /api/auth/google/callback", s.handleGoogleCallback)

	mux.HandleFunc("POST /api/chat", s.optionalAuth(s.handleChat))

	mux.HandleFunc("GET /api/conversations", s.requireAuth(s.handleListConversations))
	mux.HandleFunc("GET /api/conversations/{id}", s.requireAuth(s.handleGetConversation))
	mux.HandleFunc("DELETE /api/conversations/{id}", s.requireAuth(s.handleDeleteConversation))

	return chainMiddlewares(mux,
		withRateLimit(newFixedWindow(cfg.RateLimitMax)),
		withCORS(cfg.AllowedOrigins),
		withLogging,
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversationId,omitempty"`
	Model          string `json:"model,omitempty"`
}

type chatResponse struct {
	Reply          string `json:"reply"`
	ConversationID *int64 `json:"conversationId,omitempty"`
	Model          string `json:"model"`
	IsGuest        bool   `json:"isGuest"`
	Message        string `json:"message,omitempty"`
}

type messageResponse struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type conversationResponse struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"userId"`
	Title     string            `json:"title"`
	Model     string            `json:"model"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Messages  []messageResponse `json:"messages"`
}

// ─────────────────────────────────────────────
// Probes
// ─────────────────────────────────────────────

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Server is running"))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Auth handlers
// ─────────────────────────────────────────────

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.auth.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: out.Token,
		User:  toUserResponse(out.User),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: out.Token,
		User:  toUserResponse(out.User),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	user, err := s.auth.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// ─────────────────────────────────────────────
// Chat handler
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	userID, authenticated := userIDFromContext(r.Context())

	in := chat.SendMessageInput{
		UserID:        userID,
		Authenticated: authenticated,
		Model:         req.Model,
		Text:          req.Message,
	}
	if req.ConversationID != nil {
		id := domain.ConversationID(*req.ConversationID)
		in.ConversationID = &id
	}

	out, err := s.chat.SendMessage(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := chatResponse{
		Reply:   out.Reply,
		Model:   string(out.Model),
		IsGuest: out.IsGuest,
	}
	if out.ConversationID != nil {
		id := int64(*out.ConversationID)
		resp.ConversationID = &id
	}
	if out.IsGuest {
		resp.Message = chat.GuestNotice
	}

	writeJSON(w, http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// Conversation handlers
// ─────────────────────────────────────────────

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	previews, err := s.store.ListConversationsByUser(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]conversationResponse, 0, len(previews))
	for _, p := range previews {
		resp := toConversationResponse(p.Conversation, nil)
		if p.First != nil {
			resp.Messages = append(resp.Messages, toMessageResponse(p.First))
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	conv, err := s.store.GetConversation(id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msgs, err := s.store.GetMessages(conv.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toConversationResponse(conv, msgs))
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteConversation(id, userID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func conversationID(w http.ResponseWriter, r *http.Request) (domain.ConversationID, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(w, "invalid conversation ID")
		return 0, false
	}
	return domain.ConversationID(id), true
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:       int64(u.ID),
		Email:    u.Email,
		Username: u.Username,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:             int64(m.ID),
		ConversationID: int64(m.ConversationID),
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func toConversationResponse(c *domain.Conversation, msgs []*domain.Message) conversationResponse {
	resp := conversationResponse{
		ID:        int64(c.ID),
		UserID:    int64(c.UserID),
		Title:     c.Title,
		Model:     string(c.Model),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  []messageResponse{},
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}
	return resp
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody(msg))
}

func isMisconfiguration(err error) bool {
	return errors.Is(err, auth.ErrNoSecret)
}

// writeError maps domain errors onto status codes. Anything unknown is a
// 500 whose body carries the error text, so provider failures surface
// the provider name and raw upstream error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.LoggerFromContext(r.Context())

	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrDuplicateEmail):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody(err.Error()))
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody(err.Error()))
	case isMisconfiguration(err):
		log.Error("server misconfiguration", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Server misconfiguration"))
	default:
		log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}
