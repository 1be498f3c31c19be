package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/models"
)

const eventColumns = `id, title, description, event_date, location, category, image_url, ticket_price,
	total_tickets, remaining_tickets, organizer_id, status, reviewed_by, reviewed_at, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// EventRepository handles event data operations
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.Location,
		&event.Category,
		&event.ImageURL,
		&event.TicketPrice,
		&event.TotalTickets,
		&event.RemainingTickets,
		&event.OrganizerID,
		&event.Status,
		&event.ReviewedBy,
		&event.ReviewedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func getEvent(ctx context.Context, q queryer, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// Create inserts a new pending event with all of its tickets available
func (r *EventRepository) Create(ctx context.Context, req *models.EventCreateRequest, organizerID int) (*models.Event, error) {
	query := `
		INSERT INTO events (title, description, event_date, location, category, image_url, ticket_price,
			total_tickets, remaining_tickets, organizer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9, $10, $11, $11)
		RETURNING id`

	now := time.Now().UTC()
	event := &models.Event{
		Title:            req.Title,
		Description:      req.Description,
		Date:             req.Date.UTC(),
		Location:         req.Location,
		Category:         req.Category,
		ImageURL:         req.ImageURL,
		TicketPrice:      req.TicketPrice,
		TotalTickets:     req.TotalTickets,
		RemainingTickets: req.TotalTickets,
		OrganizerID:      organizerID,
		Status:           models.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.Date,
		event.Location,
		event.Category,
		event.ImageURL,
		event.TicketPrice,
		event.TotalTickets,
		event.OrganizerID,
		event.Status,
		now,
	).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	return getEvent(ctx, r.db, id)
}

// List returns a page of events matching filter and the total match count
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]*models.Event, int, error) {
	var conditions []string
	var args []interface{}
	addCondition := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		addCondition("status = $%d", filter.Status)
	}
	if filter.Category != "" {
		addCondition("category = $%d", filter.Category)
	}
	if filter.OrganizerID > 0 {
		addCondition("organizer_id = $%d", filter.OrganizerID)
	}
	if filter.From != nil {
		addCondition("event_date >= $%d", filter.From.UTC())
	}
	if filter.To != nil {
		addCondition("event_date <= $%d", filter.To.UTC())
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		addCondition("(LOWER(title) LIKE $%[1]d OR LOWER(description) LIKE $%[1]d OR LOWER(location) LIKE $%[1]d)",
			"%"+strings.ToLower(search)+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := `SELECT ` + eventColumns + ` FROM events` + whereClause + ` ORDER BY event_date ASC, id ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating events: %w", err)
	}

	return events, total, nil
}

// Update writes the content fields of event. A total_tickets change shifts
// remaining_tickets by the same delta in the same statement; the update is
// refused when the new total is below the tickets already booked.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE events
		SET title = $1, description = $2, event_date = $3, location = $4, category = $5, image_url = $6,
			ticket_price = $7, total_tickets = $8,
			remaining_tickets = CASE
				WHEN remaining_tickets + ($8 - total_tickets) < 0 THEN 0
				ELSE remaining_tickets + ($8 - total_tickets)
			END,
			updated_at = $9
		WHERE id = $10 AND total_tickets - remaining_tickets <= $8`

	result, err := tx.ExecContext(ctx, query,
		event.Title,
		event.Description,
		event.Date.UTC(),
		event.Location,
		event.Category,
		event.ImageURL,
		event.TicketPrice,
		event.TotalTickets,
		time.Now().UTC(),
		event.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		current, err := getEvent(ctx, tx, event.ID)
		if err != nil {
			return nil, err
		}
		return nil, models.NewValidationError("total_tickets cannot be lower than the %d tickets already booked",
			current.BookedTickets())
	}

	updated, err := getEvent(ctx, tx, event.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit event update: %w", err)
	}

	return updated, nil
}

// SetImage replaces the image URL of an event. An empty URL clears it.
func (r *EventRepository) SetImage(ctx context.Context, id int, imageURL string) (*models.Event, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET image_url = $1, updated_at = $2 WHERE id = $3`,
		imageURL, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to set event image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, models.ErrEventNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdateStatus sets the moderation status and stamps the reviewer
func (r *EventRepository) UpdateStatus(ctx context.Context, id int, status models.EventStatus, reviewerID int) (*models.Event, error) {
	query := `
		UPDATE events
		SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, status, reviewerID, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, models.ErrEventNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes an event and cancels its active bookings in one transaction.
// It returns the number of bookings canceled.
func (r *EventRepository) Delete(ctx context.Context, id int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Deleting the row first makes any booking that races with us fail its
	// conditional decrement instead of landing after the cascade.
	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, models.ErrEventNotFound
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, canceled_at = $2 WHERE event_id = $3 AND status <> $1`,
		models.BookingCanceled, time.Now().UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel event bookings: %w", err)
	}

	canceled, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit event deletion: %w", err)
	}

	return int(canceled), nil
}
