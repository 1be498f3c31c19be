package handlers

import (
	"log/slog"
	"net/http"

	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/services"

	"github.com/go-chi/chi/v5"
)

// AuthHandler handles registration, login and the caller's own account
type AuthHandler struct {
	auth     *services.AuthService
	sessions *middleware.SessionManager
	logger   *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(auth *services.AuthService, sessions *middleware.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		logger:   logger,
	}
}

// Routes mounts the /api/auth endpoints. loginLimiter wraps the login route.
func (h *AuthHandler) Routes(r chi.Router, loginLimiter func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)
	r.With(loginLimiter).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/password/forgot", h.ForgotPassword)
	r.Post("/password/reset", h.ResetPassword)
}

// Register creates an account and returns it with a token
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.saveSession(w, r, result.Token)
	writeJSON(w, http.StatusCreated, result)
}

// Login verifies credentials, sets the session cookie and returns a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.saveSession(w, r, result.Token)
	writeJSON(w, http.StatusOK, result)
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Warn("failed to clear session", "error", err, "request_id", middleware.GetRequestID(r.Context()))
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword starts a password reset. It always answers 202.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the email is registered, a reset link has been sent",
	})
}

// ResetPassword completes a password reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetCompleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), middleware.GetUserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe changes the current user's name, email or password
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), middleware.GetUserFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) saveSession(w http.ResponseWriter, r *http.Request, token string) {
	if err := h.sessions.Save(w, r, token); err != nil {
		h.logger.Warn("failed to save session", "error", err, "request_id", middleware.GetRequestID(r.Context()))
	}
}
