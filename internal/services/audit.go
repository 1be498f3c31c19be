package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"eventhub/internal/models"
)

type requestMetaKey struct{}

// WithRequestMeta attaches the caller's IP and user agent to ctx for audit entries
func WithRequestMeta(ctx context.Context, meta models.RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMetaFrom(ctx context.Context) models.RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(models.RequestMeta)
	return meta
}

// AuditService handles audit logging operations
type AuditService struct {
	auditRepo AuditStore
	logger    *slog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo AuditStore, logger *slog.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogAction records an administrative action. A failed write is logged and
// does not undo the action it describes.
func (s *AuditService) LogAction(ctx context.Context, adminUserID int, action, targetType string, targetID int, details interface{}) {
	var detailsJSON json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			s.logger.Error("failed to encode audit details", "action", action, "error", err)
		} else {
			detailsJSON = b
		}
	}

	meta := requestMetaFrom(ctx)
	req := &models.AuditLogCreateRequest{
		AdminUserID: adminUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Details:     detailsJSON,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
	}

	if _, err := s.auditRepo.Create(ctx, req); err != nil {
		s.logger.Error("failed to write audit log",
			"action", action,
			"target_type", targetType,
			"target_id", targetID,
			"admin_user_id", adminUserID,
			"error", err,
		)
	}
}

// List returns audit entries for administrators
func (s *AuditService) List(ctx context.Context, caller *models.User, filter models.AuditLogFilter, page models.Page) ([]*models.AuditLog, int, error) {
	if err := Authorize(caller, AdminOnly()).Err(); err != nil {
		return nil, 0, err
	}

	filter.Limit = page.Limit
	filter.Offset = page.Offset()

	logs, total, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
