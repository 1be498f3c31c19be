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

// BookingHandler handles ticket bookings
type BookingHandler struct {
	bookings *services.BookingService
	logger   *slog.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *services.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// Routes mounts the /api/bookings endpoints
func (h *BookingHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/user", h.ListMine)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/ticket", h.Ticket)
	r.Delete("/{id}", h.Cancel)
}

// Create books tickets. A repeated Idempotency-Key returns the original
// booking with 200 instead of 201.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.BookingCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	booking, created, err := h.bookings.Create(r.Context(), middleware.GetUserFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, booking)
}

// ListMine returns the caller's bookings
func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForUser(r.Context(), middleware.GetUserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Get returns one booking
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	booking, err := h.bookings.Get(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// Cancel cancels a booking and returns it
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	booking, err := h.bookings.Cancel(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// Ticket returns the booking's QR ticket as a PNG
func (h *BookingHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	png, err := h.bookings.TicketQR(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
