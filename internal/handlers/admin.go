package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/services"

	"github.com/go-chi/chi/v5"
)

// AdminHandler serves event moderation, user management and the audit log
type AdminHandler struct {
	moderation *services.EventModerationService
	users      *services.UserService
	audit      *services.AuditService
	logger     *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(moderation *services.EventModerationService, users *services.UserService, audit *services.AuditService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		users:      users,
		audit:      audit,
		logger:     logger,
	}
}

// Routes mounts the /api/admin endpoints
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/events/pending", h.PendingEvents)
	r.Post("/events/{id}/approve", h.ApproveEvent)
	r.Post("/events/{id}/decline", h.DeclineEvent)

	r.Get("/users", h.ListUsers)
	r.Get("/users/{id}", h.GetUser)
	r.Put("/users/{id}/role", h.UpdateUserRole)
	r.Delete("/users/{id}", h.DeleteUser)

	r.Get("/audit-logs", h.AuditLogs)
}

// PendingEvents lists events awaiting review
func (h *AdminHandler) PendingEvents(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	events, total, err := h.moderation.ListPending(r.Context(), middleware.GetUserFromContext(r.Context()), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	writeJSON(w, http.StatusOK, eventListResponse{
		Events:       events,
		listResponse: listResponse{Total: total, Page: page.Number, Limit: page.Limit},
	})
}

// ApproveEvent publishes an event
func (h *AdminHandler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.moderation.Approve(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type declineRequest struct {
	Reason string `json:"reason"`
}

// DeclineEvent rejects an event with an optional reason
func (h *AdminHandler) DeclineEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req declineRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.moderation.Decline(r.Context(), middleware.GetUserFromContext(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type userListResponse struct {
	Users []*models.User `json:"users"`
	listResponse
}

// ListUsers lists accounts, optionally filtered by ?role=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	role := models.UserRole(strings.TrimSpace(r.URL.Query().Get("role")))
	users, total, err := h.users.List(r.Context(), middleware.GetUserFromContext(r.Context()), role, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, userListResponse{
		Users:        users,
		listResponse: listResponse{Total: total, Page: page.Number, Limit: page.Limit},
	})
}

// GetUser returns one account
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Get(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUserRole changes an account's role
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req models.RoleUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateRole(r.Context(), middleware.GetUserFromContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account and cancels its bookings
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.users.Delete(r.Context(), middleware.GetUserFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type auditLogListResponse struct {
	Logs []*models.AuditLog `json:"logs"`
	listResponse
}

// AuditLogs lists audit entries, newest first. Supports ?action=,
// ?target_type=, ?target_id= and ?admin_user_id= filters.
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	filter := models.AuditLogFilter{
		Action:     q.Get("action"),
		TargetType: q.Get("target_type"),
	}
	if filter.TargetID, err = optionalInt(q.Get("target_id"), "target_id"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if filter.AdminUserID, err = optionalInt(q.Get("admin_user_id"), "admin_user_id"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	logs, total, err := h.audit.List(r.Context(), middleware.GetUserFromContext(r.Context()), filter, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}
	writeJSON(w, http.StatusOK, auditLogListResponse{
		Logs:         logs,
		listResponse: listResponse{Total: total, Page: page.Number, Limit: page.Limit},
	})
}
