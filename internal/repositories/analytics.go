package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventhub/internal/models"
)

// AnalyticsFilter scopes an analytics query. Zero values mean "any".
type AnalyticsFilter struct {
	OrganizerID int
	EventID     int
}

// AnalyticsRepository derives booking statistics from the events and bookings tables
type AnalyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// EventAnalytics returns per-event booking totals. Canceled bookings are excluded.
func (r *AnalyticsRepository) EventAnalytics(ctx context.Context, filter AnalyticsFilter) ([]*models.EventAnalytics, error) {
	args := []interface{}{models.BookingCanceled}
	var conditions []string
	if filter.OrganizerID > 0 {
		args = append(args, filter.OrganizerID)
		conditions = append(conditions, fmt.Sprintf("e.organizer_id = $%d", len(args)))
	}
	if filter.EventID > 0 {
		args = append(args, filter.EventID)
		conditions = append(conditions, fmt.Sprintf("e.id = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := `
		SELECT e.id, e.title, e.event_date, e.status, e.organizer_id, e.ticket_price,
		       e.total_tickets, e.remaining_tickets,
		       COALESCE(SUM(CASE WHEN b.status <> $1 THEN b.quantity ELSE 0 END), 0) AS booked_quantity,
		       COALESCE(SUM(CASE WHEN b.status <> $1 THEN 1 ELSE 0 END), 0) AS active_bookings
		FROM events e
		LEFT JOIN bookings b ON b.event_id = e.id
		` + whereClause + `
		GROUP BY e.id, e.title, e.event_date, e.status, e.organizer_id, e.ticket_price, e.total_tickets, e.remaining_tickets
		ORDER BY e.event_date ASC, e.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event analytics: %w", err)
	}
	defer rows.Close()

	results := []*models.EventAnalytics{}
	for rows.Next() {
		a := &models.EventAnalytics{}
		err := rows.Scan(
			&a.EventID,
			&a.Title,
			&a.Date,
			&a.Status,
			&a.OrganizerID,
			&a.TicketPrice,
			&a.TotalTickets,
			&a.RemainingTickets,
			&a.BookedQuantity,
			&a.ActiveBookings,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event analytics: %w", err)
		}
		a.Compute()
		results = append(results, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event analytics: %w", err)
	}

	return results, nil
}
