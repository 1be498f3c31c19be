package services

import (
	"context"
	"log/slog"

	"eventhub/internal/models"
)

// EventService handles event business logic
type EventService struct {
	events     EventStore
	moderation *EventModerationService
	audit      *AuditService
	images     ImageCleaner
	logger     *slog.Logger
}

// ImageCleaner deletes stored event images that are no longer referenced
type ImageCleaner interface {
	DiscardStored(ctx context.Context, imageURL string)
}

// NewEventService creates a new event service
func NewEventService(events EventStore, moderation *EventModerationService, audit *AuditService, logger *slog.Logger) *EventService {
	return &EventService{
		events:     events,
		moderation: moderation,
		audit:      audit,
		logger:     logger,
	}
}

// SetImageCleaner makes updates and deletes remove replaced image files
func (s *EventService) SetImageCleaner(images ImageCleaner) {
	s.images = images
}

func (s *EventService) discardImage(ctx context.Context, imageURL string) {
	if s.images != nil {
		s.images.DiscardStored(ctx, imageURL)
	}
}

// Create submits a new event for review
func (s *EventService) Create(ctx context.Context, caller *models.User, req *models.EventCreateRequest) (*models.Event, error) {
	policy := Policy{Roles: []models.UserRole{models.RoleOrganizer, models.RoleAdmin}}
	if err := Authorize(caller, policy).Err(); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.events.Create(ctx, req, caller.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("event created", "event_id", event.ID, "organizer_id", caller.ID)
	return event, nil
}

// Get returns an event. Events that are not approved are only visible to
// their organizer and administrators; everyone else gets not found.
func (s *EventService) Get(ctx context.Context, caller *models.User, id int) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.Status != models.StatusApproved && !Authorize(caller, OwnerOrAdmin(event.OrganizerID)).Allowed {
		return nil, models.ErrEventNotFound
	}
	return event, nil
}

// List returns a page of events. Only administrators see events that are
// not approved; for everyone else the status filter is forced.
func (s *EventService) List(ctx context.Context, caller *models.User, filter models.EventFilter, page models.Page) ([]*models.Event, int, error) {
	if caller == nil || !caller.IsAdmin() {
		filter.Status = models.StatusApproved
	} else if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, models.NewValidationError("status must be one of: pending, approved, declined")
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, 0, models.NewValidationError("unknown category %q", filter.Category)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, models.NewValidationError("to must not be before from")
	}

	filter.OrganizerID = 0
	filter.Limit = page.Limit
	filter.Offset = page.Offset()
	return s.events.List(ctx, filter)
}

// ListMine returns every event the caller organizes, in any status
func (s *EventService) ListMine(ctx context.Context, caller *models.User) ([]*models.Event, error) {
	policy := Policy{Roles: []models.UserRole{models.RoleOrganizer, models.RoleAdmin}}
	if err := Authorize(caller, policy).Err(); err != nil {
		return nil, err
	}

	events, _, err := s.events.List(ctx, models.EventFilter{OrganizerID: caller.ID})
	return events, err
}

// Update applies a partial update. The organizer may change content but not
// the status; an administrator who does not own the event may change only
// the status.
func (s *EventService) Update(ctx context.Context, caller *models.User, id int, req *models.EventUpdateRequest) (*models.Event, error) {
	if caller == nil {
		return nil, models.ErrUnauthenticated
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, OwnerOrAdmin(event.OrganizerID)).Err(); err != nil {
		return nil, err
	}

	isOwner := event.OrganizerID == caller.ID
	if req.Status != nil && !caller.IsAdmin() {
		return nil, models.NewAuthorizationError("organizers cannot change an event's status")
	}
	if req.HasContentChanges() && !isOwner {
		return nil, models.NewAuthorizationError("administrators may only change an event's status")
	}

	if req.HasContentChanges() {
		previousImage := event.ImageURL
		req.ApplyTo(event)
		event, err = s.events.Update(ctx, event)
		if err != nil {
			return nil, err
		}
		s.logger.Info("event updated", "event_id", event.ID, "user_id", caller.ID)
		if event.ImageURL != previousImage {
			s.discardImage(ctx, previousImage)
		}
	}

	if req.Status != nil {
		return s.moderation.SetStatus(ctx, caller, id, *req.Status, "")
	}
	return event, nil
}

// Delete removes an event and cancels its bookings. It returns how many
// bookings were canceled.
func (s *EventService) Delete(ctx context.Context, caller *models.User, id int) (int, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := Authorize(caller, OwnerOrAdmin(event.OrganizerID)).Err(); err != nil {
		return 0, err
	}

	canceled, err := s.events.Delete(ctx, id)
	if err != nil {
		return 0, err
	}

	s.logger.Info("event deleted", "event_id", id, "user_id", caller.ID, "canceled_bookings", canceled)
	s.discardImage(ctx, event.ImageURL)

	if caller.IsAdmin() {
		s.audit.LogAction(ctx, caller.ID, models.AuditActionEventDelete, models.AuditTargetEvent, id, map[string]interface{}{
			"event_title":       event.Title,
			"organizer_id":      event.OrganizerID,
			"canceled_bookings": canceled,
		})
	}
	return canceled, nil
}
