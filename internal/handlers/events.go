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

// EventHandler serves the event catalogue and organizer event management
type EventHandler struct {
	events    *services.EventService
	bookings  *services.BookingService
	analytics *services.AnalyticsService
	images    *services.ImageService
	logger    *slog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService, bookings *services.BookingService, analytics *services.AnalyticsService, images *services.ImageService, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:    events,
		bookings:  bookings,
		analytics: analytics,
		images:    images,
		logger:    logger,
	}
}

// Routes mounts the /api/events endpoints
func (h *EventHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/mine", h.ListMine)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/analytics", h.Analytics)
		r.Get("/bookings", h.Bookings)
		r.Put("/image", h.UploadImage)
		r.Delete("/image", h.DeleteImage)
	})
}

type eventListResponse struct {
	Events []*models.Event `json:"events"`
	listResponse
}

// List returns a page of events matching the query filters
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	filter := models.EventFilter{
		Status:   models.EventStatus(q.Get("status")),
		Category: models.Category(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("q")),
	}
	if filter.From, err = optionalTime(q.Get("from"), "from"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if filter.To, err = optionalTime(q.Get("to"), "to"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	events, total, err := h.events.List(r.Context(), middleware.GetUserFromContext(r.Context()), filter, page)
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

// ListMine returns every event the caller organizes
func (h *EventHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListMine(r.Context(), middleware.GetUserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get returns one event
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Get(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Create submits an event for review
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EventCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Create(r.Context(), middleware.GetUserFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// Update applies a partial update to an event
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req models.EventUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Update(r.Context(), middleware.GetUserFromContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Delete removes an event and reports how many bookings were canceled
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	canceled, err := h.events.Delete(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"canceled_bookings": canceled})
}

// Analytics returns the booking statistics of one event
func (h *EventHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	stats, err := h.analytics.EventReport(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Bookings lists every booking of an event
func (h *EventHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	bookings, err := h.bookings.ListForEvent(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}
