package models

import (
	"math"
	"strings"
	"time"
)

// EventStatus represents the moderation status of an event
type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
	StatusDeclined EventStatus = "declined"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined:
		return true
	}
	return false
}

// Event represents an event in the system
type Event struct {
	ID               int         `json:"id" db:"id"`
	Title            string      `json:"title" db:"title"`
	Description      string      `json:"description" db:"description"`
	Date             time.Time   `json:"date" db:"event_date"`
	Location         string      `json:"location" db:"location"`
	Category         Category    `json:"category" db:"category"`
	ImageURL         string      `json:"image,omitempty" db:"image_url"`
	TicketPrice      float64     `json:"ticket_price" db:"ticket_price"`
	TotalTickets     int         `json:"total_tickets" db:"total_tickets"`
	RemainingTickets int         `json:"remaining_tickets" db:"remaining_tickets"`
	OrganizerID      int         `json:"organizer_id" db:"organizer_id"`
	Status           EventStatus `json:"status" db:"status"`
	ReviewedBy       *int        `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt       *time.Time  `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// BookedTickets is the number of tickets held by active bookings.
func (e *Event) BookedTickets() int {
	return e.TotalTickets - e.RemainingTickets
}

// EventCreateRequest represents the data needed to create a new event
type EventCreateRequest struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"required"`
	Date         time.Time `json:"date" validate:"required"`
	Location     string    `json:"location" validate:"required,max=255"`
	Category     Category  `json:"category" validate:"required,oneof=Concert Sports Theater Conference Festival Other"`
	ImageURL     string    `json:"image" validate:"omitempty,url"`
	TicketPrice  float64   `json:"ticket_price" validate:"gte=0"`
	TotalTickets int       `json:"total_tickets" validate:"min=1"`
}

// Normalize trims text fields and rounds the price to cents
func (req *EventCreateRequest) Normalize() {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	req.TicketPrice = RoundCents(req.TicketPrice)
}

func (req *EventCreateRequest) Validate() error {
	return validateStruct(req)
}

// EventUpdateRequest is a partial update. Nil fields are left unchanged.
// Organizers may set content fields; admins may only set Status.
type EventUpdateRequest struct {
	Title        *string      `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string      `json:"description" validate:"omitempty,min=1"`
	Date         *time.Time   `json:"date"`
	Location     *string      `json:"location" validate:"omitempty,min=1,max=255"`
	Category     *Category    `json:"category" validate:"omitempty,oneof=Concert Sports Theater Conference Festival Other"`
	ImageURL     *string      `json:"image" validate:"omitempty,url"`
	TicketPrice  *float64     `json:"ticket_price" validate:"omitempty,gte=0"`
	TotalTickets *int         `json:"total_tickets" validate:"omitempty,min=1"`
	Status       *EventStatus `json:"status" validate:"omitempty,oneof=pending approved declined"`
}

// HasContentChanges reports whether any organizer-owned field is set.
func (req *EventUpdateRequest) HasContentChanges() bool {
	return req.Title != nil || req.Description != nil || req.Date != nil ||
		req.Location != nil || req.Category != nil || req.ImageURL != nil ||
		req.TicketPrice != nil || req.TotalTickets != nil
}

// Normalize trims the set text fields in place and rounds the price to cents
func (req *EventUpdateRequest) Normalize() {
	for _, field := range []*string{req.Title, req.Description, req.Location, req.ImageURL} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
	if req.TicketPrice != nil {
		*req.TicketPrice = RoundCents(*req.TicketPrice)
	}
}

func (req *EventUpdateRequest) Validate() error {
	if !req.HasContentChanges() && req.Status == nil {
		return NewValidationError("no fields to update")
	}
	required := []struct {
		name  string
		value *string
	}{
		{"title", req.Title},
		{"description", req.Description},
		{"location", req.Location},
	}
	for _, f := range required {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return NewValidationError("%s must not be blank", f.name)
		}
	}
	if req.Date != nil && req.Date.IsZero() {
		return NewValidationError("date is invalid")
	}
	if req.TicketPrice != nil && *req.TicketPrice < 0 {
		return NewValidationError("ticket_price must be greater than or equal to 0")
	}
	return validateStruct(req)
}

// ApplyTo copies the set content fields onto event. Status and the
// ticket counters are left to the repository.
func (req *EventUpdateRequest) ApplyTo(event *Event) {
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}
	if req.Date != nil {
		event.Date = req.Date.UTC()
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.ImageURL != nil {
		event.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.TicketPrice != nil {
		event.TicketPrice = RoundCents(*req.TicketPrice)
	}
	if req.TotalTickets != nil {
		event.TotalTickets = *req.TotalTickets
	}
}

// EventFilter narrows event listings. A zero Status means every status.
type EventFilter struct {
	Status      EventStatus
	Category    Category
	From        *time.Time
	To          *time.Time
	Search      string
	OrganizerID int
	Limit       int
	Offset      int
}

// RoundCents rounds an amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
