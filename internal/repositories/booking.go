package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/database"
	"eventhub/internal/models"
)

const bookingSelect = `
	SELECT b.id, b.user_id, b.event_id, b.quantity, b.total_price, b.status, b.idempotency_key,
	       b.canceled_at, b.created_at,
	       e.id, e.title, e.event_date, e.location, e.ticket_price, e.status,
	       u.id, u.name, u.email
	FROM bookings b
	LEFT JOIN events e ON e.id = b.event_id
	LEFT JOIN users u ON u.id = b.user_id`

// BookingRepository handles booking data operations. Every write that touches
// inventory runs in a single transaction together with the events row update.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	booking := &models.Booking{}

	var (
		idempotencyKey sql.NullString
		eventID        sql.NullInt64
		eventTitle     sql.NullString
		eventDate      sql.NullTime
		eventLocation  sql.NullString
		eventPrice     sql.NullFloat64
		eventStatus    sql.NullString
		userID         sql.NullInt64
		userName       sql.NullString
		userEmail      sql.NullString
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.EventID,
		&booking.Quantity,
		&booking.TotalPrice,
		&booking.Status,
		&idempotencyKey,
		&booking.CanceledAt,
		&booking.CreatedAt,
		&eventID,
		&eventTitle,
		&eventDate,
		&eventLocation,
		&eventPrice,
		&eventStatus,
		&userID,
		&userName,
		&userEmail,
	)
	if err != nil {
		return nil, err
	}

	if idempotencyKey.Valid {
		booking.IdempotencyKey = &idempotencyKey.String
	}

	// The event may have been deleted since the booking was made
	if eventID.Valid {
		booking.Event = &models.EventSummary{
			ID:          int(eventID.Int64),
			Title:       eventTitle.String,
			Date:        eventDate.Time,
			Location:    eventLocation.String,
			TicketPrice: eventPrice.Float64,
			Status:      models.EventStatus(eventStatus.String),
		}
	}

	if userID.Valid {
		booking.User = &models.UserSummary{
			ID:    int(userID.Int64),
			Name:  userName.String,
			Email: userEmail.String,
		}
	}

	return booking, nil
}

// Create books req.Quantity tickets for userID. The inventory decrement is a
// conditional update so concurrent bookings can never oversell. The returned
// bool is false when an earlier booking with the same idempotency key is
// returned instead of a new one.
func (r *BookingRepository) Create(ctx context.Context, userID int, req *models.BookingCreateRequest) (*models.Booking, bool, error) {
	if req.IdempotencyKey != "" {
		existing, err := r.GetByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, models.ErrBookingNotFound) {
			return nil, false, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	reserveQuery := `
		UPDATE events
		SET remaining_tickets = remaining_tickets - $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND remaining_tickets >= $1
		RETURNING ticket_price`

	var ticketPrice float64
	err = tx.QueryRowContext(ctx, reserveQuery, req.Quantity, now, req.EventID, models.StatusApproved).Scan(&ticketPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, classifyReservationFailure(ctx, tx, req.EventID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve tickets: %w", err)
	}

	booking := &models.Booking{
		UserID:     userID,
		EventID:    req.EventID,
		Quantity:   req.Quantity,
		TotalPrice: models.RoundCents(ticketPrice * float64(req.Quantity)),
		Status:     models.BookingConfirmed,
		CreatedAt:  now,
	}
	key := sql.NullString{String: req.IdempotencyKey, Valid: req.IdempotencyKey != ""}
	if key.Valid {
		booking.IdempotencyKey = &key.String
	}

	insertQuery := `
		INSERT INTO bookings (user_id, event_id, quantity, total_price, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err = tx.QueryRowContext(ctx, insertQuery,
		booking.UserID,
		booking.EventID,
		booking.Quantity,
		booking.TotalPrice,
		booking.Status,
		key,
		now,
	).Scan(&booking.ID)
	if err != nil {
		if database.IsUniqueViolation(err) && key.Valid {
			// A concurrent request with the same key won the race
			tx.Rollback()
			existing, getErr := r.GetByIdempotencyKey(ctx, userID, req.IdempotencyKey)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit booking: %w", err)
	}

	return booking, true, nil
}

// classifyReservationFailure explains why the conditional decrement matched no row
func classifyReservationFailure(ctx context.Context, tx *sql.Tx, eventID int) error {
	var status models.EventStatus
	var remaining int
	err := tx.QueryRowContext(ctx, `SELECT status, remaining_tickets FROM events WHERE id = $1`, eventID).
		Scan(&status, &remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}

	if status != models.StatusApproved {
		return models.NewStateError("event is %s and not open for booking", status)
	}
	return models.NewCapacityError(remaining)
}

// GetByID retrieves a booking with its event and user summaries
func (r *BookingRepository) GetByID(ctx context.Context, id int) (*models.Booking, error) {
	booking, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetByIdempotencyKey retrieves the booking a user created with key
func (r *BookingRepository) GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.user_id = $1 AND b.idempotency_key = $2`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, userID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by idempotency key: %w", err)
	}
	return booking, nil
}

// ListByUser returns every booking of a user, canceled ones included, newest first
func (r *BookingRepository) ListByUser(ctx context.Context, userID int) ([]*models.Booking, error) {
	return r.list(ctx, bookingSelect+` WHERE b.user_id = $1 ORDER BY b.created_at DESC, b.id DESC`, userID)
}

// ListByEvent returns every booking made against an event
func (r *BookingRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Booking, error) {
	return r.list(ctx, bookingSelect+` WHERE b.event_id = $1 ORDER BY b.created_at DESC, b.id DESC`, eventID)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

// Cancel marks a booking canceled and returns its tickets to the event, both
// in one transaction. The returned bool is false when the booking was already
// canceled, in which case nothing is credited.
func (r *BookingRepository) Cancel(ctx context.Context, id int) (*models.Booking, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var eventID, quantity int
	err = tx.QueryRowContext(ctx, `
		UPDATE bookings SET status = $1, canceled_at = $2
		WHERE id = $3 AND status <> $1
		RETURNING event_id, quantity`,
		models.BookingCanceled, now, id,
	).Scan(&eventID, &quantity)
	if errors.Is(err, sql.ErrNoRows) {
		// Missing, or a concurrent cancel already returned the tickets
		tx.Rollback()
		booking, err := r.GetByID(ctx, id)
		return booking, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE events
		SET remaining_tickets = CASE
				WHEN remaining_tickets + $1 > total_tickets THEN total_tickets
				ELSE remaining_tickets + $1
			END,
			updated_at = $2
		WHERE id = $3`,
		quantity, now, eventID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to release tickets: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, false, models.ErrEventNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	booking, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return booking, true, nil
}

// ActiveQuantity sums the tickets held by non-canceled bookings of an event
func (r *BookingRepository) ActiveQuantity(ctx context.Context, eventID int) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM bookings WHERE event_id = $1 AND status <> $2`,
		eventID, models.BookingCanceled,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum active bookings: %w", err)
	}
	return total, nil
}
