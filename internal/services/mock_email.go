package services

import (
	"log/slog"

	"eventhub/internal/models"
)

// LogEmailService writes emails to the log instead of sending them. It is
// used when no SMTP host is configured.
type LogEmailService struct {
	logger *slog.Logger
}

// NewLogEmailService creates a logging notifier
func NewLogEmailService(logger *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) SendWelcomeEmail(to, name string) error {
	s.logger.Info("email not sent: welcome", "to", to, "name", name)
	return nil
}

// SendPasswordResetEmail logs the reset token so it can be used in development
func (s *LogEmailService) SendPasswordResetEmail(to, name, token string) error {
	s.logger.Info("email not sent: password reset", "to", to, "name", name, "token", token)
	return nil
}

func (s *LogEmailService) SendBookingConfirmation(to, name string, booking *models.Booking) error {
	s.logger.Info("email not sent: booking confirmation",
		"to", to,
		"booking_id", booking.ID,
		"event_id", booking.EventID,
		"quantity", booking.Quantity,
	)
	return nil
}
