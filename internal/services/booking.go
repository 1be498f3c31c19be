package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventhub/internal/models"

	"github.com/skip2/go-qrcode"
)

// TicketQRSize is the edge length in pixels of a booking's QR ticket
const TicketQRSize = 256

// BookingService reserves and releases tickets on behalf of users
type BookingService struct {
	bookings BookingStore
	events   EventStore
	notifier Notifier
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(bookings BookingStore, events EventStore, notifier Notifier, retry RetryPolicy, logger *slog.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		events:   events,
		notifier: notifier,
		retry:    retry,
		logger:   logger,
	}
}

// Create books tickets for the caller. The boolean is false when an earlier
// booking with the same idempotency key was returned instead.
func (s *BookingService) Create(ctx context.Context, caller *models.User, req *models.BookingCreateRequest) (*models.Booking, bool, error) {
	if err := Authorize(caller, Policy{}).Err(); err != nil {
		return nil, false, err
	}
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, caller.ID, req.IdempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, models.ErrBookingNotFound) {
			return nil, false, err
		}
	}

	var (
		booking *models.Booking
		created bool
	)
	err := s.retry.Do(ctx, s.logger, "create_booking", func() error {
		var err error
		booking, created, err = s.bookings.Create(ctx, caller.ID, req)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		if full, err := s.bookings.GetByID(ctx, booking.ID); err == nil {
			booking = full
		}
		s.logger.Info("booking created",
			"booking_id", booking.ID,
			"event_id", booking.EventID,
			"user_id", caller.ID,
			"quantity", booking.Quantity,
		)
		if err := s.notifier.SendBookingConfirmation(caller.Email, caller.Name, booking); err != nil {
			s.logger.Warn("failed to send booking confirmation", "booking_id", booking.ID, "error", err)
		}
	}
	return booking, created, nil
}

// Cancel releases a booking's tickets. Canceling a canceled booking
// succeeds without changing anything.
func (s *BookingService) Cancel(ctx context.Context, caller *models.User, id int) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, OwnerOrAdmin(booking.UserID)).Err(); err != nil {
		return nil, err
	}
	if !booking.IsActive() {
		return booking, nil
	}

	var changed bool
	err = s.retry.Do(ctx, s.logger, "cancel_booking", func() error {
		var err error
		booking, changed, err = s.bookings.Cancel(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("booking canceled",
			"booking_id", booking.ID,
			"event_id", booking.EventID,
			"user_id", caller.ID,
			"quantity", booking.Quantity,
		)
	}
	return booking, nil
}

// Get returns a booking with its event and user summaries
func (s *BookingService) Get(ctx context.Context, caller *models.User, id int) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, OwnerOrAdmin(booking.UserID)).Err(); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListForUser returns the caller's booking history, newest first
func (s *BookingService) ListForUser(ctx context.Context, caller *models.User) ([]*models.Booking, error) {
	if err := Authorize(caller, Policy{}).Err(); err != nil {
		return nil, err
	}
	return s.bookings.ListByUser(ctx, caller.ID)
}

// ListForEvent returns every booking of an event to its organizer or an admin
func (s *BookingService) ListForEvent(ctx context.Context, caller *models.User, eventID int) ([]*models.Booking, error) {
	if caller == nil {
		return nil, models.ErrUnauthenticated
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, OwnerOrAdmin(event.OrganizerID)).Err(); err != nil {
		return nil, err
	}
	return s.bookings.ListByEvent(ctx, eventID)
}

// TicketQR renders an active booking as a PNG QR code for entry scanning
func (s *BookingService) TicketQR(ctx context.Context, caller *models.User, id int) ([]byte, error) {
	booking, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsActive() {
		return nil, models.NewStateError("booking %d is canceled", booking.ID)
	}

	png, err := qrcode.Encode(TicketPayload(booking), qrcode.Medium, TicketQRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}
	return png, nil
}

// TicketPayload is the text encoded in a booking's QR ticket
func TicketPayload(booking *models.Booking) string {
	return fmt.Sprintf("eventhub:booking:%d:event:%d:user:%d:qty:%d",
		booking.ID, booking.EventID, booking.UserID, booking.Quantity)
}
