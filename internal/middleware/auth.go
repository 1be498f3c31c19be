package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/models"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"
)

// Authenticator resolves a bearer token to the user it was issued to
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware provides authentication functionality
type AuthMiddleware struct {
	auth     Authenticator
	sessions *SessionManager
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(auth Authenticator, sessions *SessionManager, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		auth:     auth,
		sessions: sessions,
		logger:   logger,
	}
}

// LoadUser resolves the caller from the Authorization header or, failing
// that, the session cookie, and adds them to the request context. Requests
// without credentials continue anonymously. An invalid bearer token is
// rejected; an invalid cookie is cleared.
func (m *AuthMiddleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			user, err := m.auth.Authenticate(r.Context(), token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, models.ErrInvalidToken.Message)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetUserContext(r.Context(), user)))
			return
		}

		if token := m.sessions.Token(r); token != "" {
			user, err := m.auth.Authenticate(r.Context(), token)
			if err != nil {
				m.logger.Debug("discarding invalid session", "error", err, "request_id", GetRequestID(r.Context()))
				if err := m.sessions.Clear(w, r); err != nil {
					m.logger.Warn("failed to clear session", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			r = r.WithContext(SetUserContext(r.Context(), user))
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects anonymous requests with 401
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, models.ErrUnauthenticated.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserFromContext retrieves the user from request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// SetUserContext adds user to ctx
func SetUserContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
