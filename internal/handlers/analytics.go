package handlers

import (
	"log/slog"
	"net/http"

	"eventhub/internal/middleware"
	"eventhub/internal/services"
)

// AnalyticsHandler reports booking statistics
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	logger    *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *services.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// Report handles GET /api/analytics?scope=organizer|all
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Report(r.Context(), middleware.GetUserFromContext(r.Context()), r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
