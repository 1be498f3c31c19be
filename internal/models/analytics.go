package models

import "time"

// EventAnalytics is the derived booking summary of one event
type EventAnalytics struct {
	EventID          int         `json:"event_id"`
	Title            string      `json:"title"`
	Date             time.Time   `json:"date"`
	Status           EventStatus `json:"status"`
	OrganizerID      int         `json:"organizer_id"`
	TicketPrice      float64     `json:"ticket_price"`
	TotalTickets     int         `json:"total_tickets"`
	RemainingTickets int         `json:"remaining_tickets"`
	BookedQuantity   int         `json:"booked_quantity"`
	ActiveBookings   int         `json:"active_bookings"`
	PercentageBooked float64     `json:"percentage_booked"`
	Revenue          float64     `json:"revenue"`
}

// Compute fills the derived fields from the raw counters.
func (a *EventAnalytics) Compute() {
	if a.TotalTickets > 0 {
		a.PercentageBooked = RoundCents(float64(a.BookedQuantity) / float64(a.TotalTickets) * 100)
	} else {
		a.PercentageBooked = 0
	}
	a.Revenue = RoundCents(float64(a.BookedQuantity) * a.TicketPrice)
}

// AnalyticsSummary rolls up a set of event analytics
type AnalyticsSummary struct {
	TotalEvents      int     `json:"total_events"`
	TotalTickets     int     `json:"total_tickets"`
	BookedQuantity   int     `json:"booked_quantity"`
	PercentageBooked float64 `json:"percentage_booked"`
	Revenue          float64 `json:"revenue"`
}

// AnalyticsReport is the response of an analytics query
type AnalyticsReport struct {
	Events  []*EventAnalytics `json:"events"`
	Summary AnalyticsSummary  `json:"summary"`
}

// Summarize builds the roll-up over events
func Summarize(events []*EventAnalytics) AnalyticsSummary {
	summary := AnalyticsSummary{TotalEvents: len(events)}
	var revenue float64
	for _, e := range events {
		summary.TotalTickets += e.TotalTickets
		summary.BookedQuantity += e.BookedQuantity
		revenue += e.Revenue
	}
	summary.Revenue = RoundCents(revenue)
	if summary.TotalTickets > 0 {
		summary.PercentageBooked = RoundCents(float64(summary.BookedQuantity) / float64(summary.TotalTickets) * 100)
	}
	return summary
}
