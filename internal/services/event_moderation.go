package services

import (
	"context"
	"log/slog"
	"strings"

	"eventhub/internal/models"
)

// EventModerationService handles event moderation operations
type EventModerationService struct {
	events EventStore
	audit  *AuditService
	logger *slog.Logger
}

// NewEventModerationService creates a new event moderation service
func NewEventModerationService(events EventStore, audit *AuditService, logger *slog.Logger) *EventModerationService {
	return &EventModerationService{
		events: events,
		audit:  audit,
		logger: logger,
	}
}

// ListPending returns events awaiting review, soonest first
func (s *EventModerationService) ListPending(ctx context.Context, caller *models.User, page models.Page) ([]*models.Event, int, error) {
	if err := Authorize(caller, AdminOnly()).Err(); err != nil {
		return nil, 0, err
	}
	return s.events.List(ctx, models.EventFilter{
		Status: models.StatusPending,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
}

// Approve publishes an event for booking
func (s *EventModerationService) Approve(ctx context.Context, caller *models.User, id int) (*models.Event, error) {
	return s.SetStatus(ctx, caller, id, models.StatusApproved, "")
}

// Decline rejects an event. The reason is kept in the audit log.
func (s *EventModerationService) Decline(ctx context.Context, caller *models.User, id int, reason string) (*models.Event, error) {
	return s.SetStatus(ctx, caller, id, models.StatusDeclined, reason)
}

// SetStatus moves an event to any status and records the reviewer
func (s *EventModerationService) SetStatus(ctx context.Context, caller *models.User, id int, status models.EventStatus, reason string) (*models.Event, error) {
	if err := Authorize(caller, AdminOnly()).Err(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, models.NewValidationError("status must be one of: pending, approved, declined")
	}

	before, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := s.events.UpdateStatus(ctx, id, status, caller.ID)
	if err != nil {
		return nil, err
	}

	action := models.AuditActionEventStatusChange
	switch status {
	case models.StatusApproved:
		action = models.AuditActionEventApprove
	case models.StatusDeclined:
		action = models.AuditActionEventDecline
	}

	details := map[string]interface{}{
		"event_title":     event.Title,
		"organizer_id":    event.OrganizerID,
		"previous_status": before.Status,
		"status":          status,
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		details["reason"] = reason
	}
	s.audit.LogAction(ctx, caller.ID, action, models.AuditTargetEvent, id, details)

	s.logger.Info("event status changed", "event_id", id, "from", before.Status, "to", status, "admin_id", caller.ID)
	return event, nil
}
