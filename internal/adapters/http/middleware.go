package httpadapter

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avellar/chat-service/internal/domain"
	"github.com/avellar/chat-service/internal/observability"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// userIDFromContext returns the authenticated caller, if any.
func userIDFromContext(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(domain.UserID)
	return id, ok
}

// withLogging tags every request with a request id and logs it with its
// latency once served.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := observability.WithRequestID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))

		observability.LoggerFromContext(ctx).Info("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

// withCORS allows calls from the configured front-end origins only.
func withCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token segment of an Authorization header.
// The second return reports whether the header was present at all.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", true
	}
	return parts[1], true
}

// requireAuth rejects unauthenticated requests. Verification failures
// are reported precisely: missing header and malformed header are 401,
// a bad signature or expired token is 403, and a missing signing secret
// is the server's fault, not the caller's.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, present := bearerToken(r)
		if !present {
			writeJSON(w, http.StatusUnauthorized, errorBody("Missing Authorization header"))
			return
		}
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody("Malformed Authorization header"))
			return
		}

		userID, err := s.auth.Verify(token)
		if err != nil {
			if isMisconfiguration(err) {
				observability.LoggerFromContext(r.Context()).Error("signing secret missing")
				writeJSON(w, http.StatusInternalServerError, errorBody("Server misconfiguration"))
				return
			}
			writeJSON(w, http.StatusForbidden, errorBody("Invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		next(w, r.WithContext(ctx))
	}
}

// optionalAuth performs the same verification but downgrades every
// failure to guest instead of rejecting. Only a missing signing secret
// is fatal.
func (s *Server) optionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, present := bearerToken(r)
		if !present || token == "" {
			next(w, r)
			return
		}

		userID, err := s.auth.Verify(token)
		if err != nil {
			if isMisconfiguration(err) {
				observability.LoggerFromContext(r.Context()).Error("signing secret missing")
				writeJSON(w, http.StatusInternalServerError, errorBody("Server misconfiguration"))
				return
			}
			// Bad token on an optional route: treat as guest.
			next(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		next(w, r.WithContext(ctx))
	}
}

// chainMiddlewares applies multiple middlewares in order.
func chainMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
