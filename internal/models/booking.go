package models

import "time"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
)

// Booking reserves Quantity tickets of one event for one user until canceled.
type Booking struct {
	ID             int           `json:"id" db:"id"`
	UserID         int           `json:"user_id" db:"user_id"`
	EventID        int           `json:"event_id" db:"event_id"`
	Quantity       int           `json:"quantity" db:"quantity"`
	TotalPrice     float64       `json:"total_price" db:"total_price"`
	Status         BookingStatus `json:"status" db:"status"`
	IdempotencyKey *string       `json:"-" db:"idempotency_key"`
	CanceledAt     *time.Time    `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`

	// Related data
	Event *EventSummary `json:"event,omitempty"`
	User  *UserSummary  `json:"user,omitempty"`
}

// IsActive returns true while the booking still holds tickets
func (b *Booking) IsActive() bool {
	return b.Status != BookingCanceled
}

// EventSummary is the slice of an event shown alongside a booking
type EventSummary struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Date        time.Time   `json:"date"`
	Location    string      `json:"location"`
	TicketPrice float64     `json:"ticket_price"`
	Status      EventStatus `json:"status"`
}

// UserSummary is the slice of a user shown alongside a booking
type UserSummary struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingCreateRequest is the payload for booking tickets
type BookingCreateRequest struct {
	EventID  int `json:"event_id" validate:"required,min=1"`
	Quantity int `json:"quantity" validate:"min=1"`

	// IdempotencyKey is taken from the Idempotency-Key header
	IdempotencyKey string `json:"-" validate:"max=255"`
}

func (req *BookingCreateRequest) Validate() error {
	if req.Quantity <= 0 {
		return NewValidationError("quantity must be at least 1")
	}
	return validateStruct(req)
}
