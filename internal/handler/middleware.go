package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"wiki-annotator/internal/domain"

	"github.com/google/uuid"
)

// AuthMiddleware authenticates bearer tokens. With a default user configured,
// requests without an Authorization header act as that user.
type AuthMiddleware struct {
	authService   domain.AuthService
	logger        domain.Logger
	defaultUserID string
}

func NewAuthMiddleware(authService domain.AuthService, logger domain.Logger, defaultUserID string) *AuthMiddleware {
	return &AuthMiddleware{
		authService:   authService,
		logger:        logger,
		defaultUserID: defaultUserID,
	}
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.defaultUserID == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), &domain.SupabaseUser{ID: m.defaultUserID}, "")))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}
		token := parts[1]
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Token required")
			return
		}

		user, err := m.authService.ValidateToken(token)
		if err != nil {
			m.logger.Warn("Token validation failed", "error", err.Error())
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), user, token)))
	})
}

func withCaller(ctx context.Context, user *domain.SupabaseUser, token string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, tokenContextKey, token)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags every request with an X-Request-ID and logs its outcome.
func RequestLogger(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Info("HTTP request",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String())
		})
	}
}
