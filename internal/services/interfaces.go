package services

import (
	"context"
	"time"

	"eventhub/internal/models"
	"eventhub/internal/repositories"
)

// UserStore is the persistence the account and user administration services need
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPasswordResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id int, role models.UserRole) (*models.User, error)
	SetPasswordResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error
	ResetPassword(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, id int) (int, error)
}

// EventStore is the persistence for events and their status
type EventStore interface {
	Create(ctx context.Context, req *models.EventCreateRequest, organizerID int) (*models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]*models.Event, int, error)
	Update(ctx context.Context, event *models.Event) (*models.Event, error)
	UpdateStatus(ctx context.Context, id int, status models.EventStatus, reviewerID int) (*models.Event, error)
	SetImage(ctx context.Context, id int, imageURL string) (*models.Event, error)
	Delete(ctx context.Context, id int) (int, error)
}

// BookingStore reserves and releases tickets atomically
type BookingStore interface {
	Create(ctx context.Context, userID int, req *models.BookingCreateRequest) (*models.Booking, bool, error)
	GetByID(ctx context.Context, id int) (*models.Booking, error)
	GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Booking, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Booking, error)
	Cancel(ctx context.Context, id int) (*models.Booking, bool, error)
}

// AnalyticsStore computes per-event booking statistics
type AnalyticsStore interface {
	EventAnalytics(ctx context.Context, filter repositories.AnalyticsFilter) ([]*models.EventAnalytics, error)
}

// AuditStore persists admin audit entries
type AuditStore interface {
	Create(ctx context.Context, req *models.AuditLogCreateRequest) (*models.AuditLog, error)
	List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, int, error)
}

// Notifier delivers account and booking emails
type Notifier interface {
	SendWelcomeEmail(to, name string) error
	SendPasswordResetEmail(to, name, token string) error
	SendBookingConfirmation(to, name string, booking *models.Booking) error
}

var (
	_ UserStore      = (*repositories.UserRepository)(nil)
	_ EventStore     = (*repositories.EventRepository)(nil)
	_ BookingStore   = (*repositories.BookingRepository)(nil)
	_ AnalyticsStore = (*repositories.AnalyticsRepository)(nil)
	_ AuditStore     = (*repositories.AuditLogRepository)(nil)
)
