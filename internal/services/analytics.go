package services

import (
	"context"
	"fmt"

	"eventhub/internal/models"
	"eventhub/internal/repositories"
)

// Analytics scopes
const (
	ScopeOrganizer = "organizer"
	ScopeAll       = "all"
)

// AnalyticsService reports booking statistics
type AnalyticsService struct {
	analytics AnalyticsStore
	events    EventStore
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(analytics AnalyticsStore, events EventStore) *AnalyticsService {
	return &AnalyticsService{
		analytics: analytics,
		events:    events,
	}
}

// Report returns per-event analytics and their roll-up. The organizer scope
// covers the caller's own events; the all scope is for administrators.
func (s *AnalyticsService) Report(ctx context.Context, caller *models.User, scope string) (*models.AnalyticsReport, error) {
	var filter repositories.AnalyticsFilter

	switch scope {
	case "", ScopeOrganizer:
		policy := Policy{Roles: []models.UserRole{models.RoleOrganizer, models.RoleAdmin}}
		if err := Authorize(caller, policy).Err(); err != nil {
			return nil, err
		}
		filter.OrganizerID = caller.ID
	case ScopeAll:
		if err := Authorize(caller, AdminOnly()).Err(); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("scope must be one of: %s, %s", ScopeOrganizer, ScopeAll)
	}

	events, err := s.analytics.EventAnalytics(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}

	return &models.AnalyticsReport{
		Events:  events,
		Summary: models.Summarize(events),
	}, nil
}

// EventReport returns the analytics of one event to its organizer or an admin
func (s *AnalyticsService) EventReport(ctx context.Context, caller *models.User, eventID int) (*models.EventAnalytics, error) {
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

	results, err := s.analytics.EventAnalytics(ctx, repositories.AnalyticsFilter{EventID: eventID})
	if err != nil {
		return nil, fmt.Errorf("failed to compute event analytics: %w", err)
	}
	if len(results) == 0 {
		return nil, models.ErrEventNotFound
	}
	return results[0], nil
}
