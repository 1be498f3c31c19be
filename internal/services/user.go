package services

import (
	"context"
	"log/slog"

	"eventhub/internal/models"
)

// UserService handles administrator account management
type UserService struct {
	users  UserStore
	audit  *AuditService
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, audit *AuditService, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		audit:  audit,
		logger: logger,
	}
}

// List returns a page of users, optionally filtered by role
func (s *UserService) List(ctx context.Context, caller *models.User, role models.UserRole, page models.Page) ([]*models.User, int, error) {
	if err := Authorize(caller, AdminOnly()).Err(); err != nil {
		return nil, 0, err
	}
	if role != "" && !role.Valid() {
		return nil, 0, models.NewValidationError("role must be one of: user, organizer, admin")
	}

	return s.users.List(ctx, models.UserFilter{
		Role:   role,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, caller *models.User, id int) (*models.User, error) {
	if err := Authorize(caller, AdminOnly()).Err(); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// UpdateRole changes a user's role. Administrators cannot demote themselves.
func (s *UserService) UpdateRole(ctx context.Context, caller *models.User, id int, req *models.RoleUpdateRequest) (*models.User, error) {
	if err := Authorize(caller, AdminOnly()).Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if id == caller.ID && req.Role != models.RoleAdmin {
		return nil, models.NewStateError("administrators cannot demote themselves")
	}

	before, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateRole(ctx, id, req.Role)
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, caller.ID, models.AuditActionUserRoleChange, models.AuditTargetUser, id, map[string]interface{}{
		"email":         user.Email,
		"previous_role": before.Role,
		"role":          user.Role,
	})
	s.logger.Info("user role changed", "user_id", id, "from", before.Role, "to", user.Role, "admin_id", caller.ID)
	return user, nil
}

// Delete removes a user and cancels their bookings. Administrators cannot
// delete themselves.
func (s *UserService) Delete(ctx context.Context, caller *models.User, id int) error {
	if err := Authorize(caller, AdminOnly()).Err(); err != nil {
		return err
	}
	if id == caller.ID {
		return models.NewStateError("administrators cannot delete themselves")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	canceled, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.audit.LogAction(ctx, caller.ID, models.AuditActionUserDelete, models.AuditTargetUser, id, map[string]interface{}{
		"email":             user.Email,
		"role":              user.Role,
		"canceled_bookings": canceled,
	})
	s.logger.Info("user deleted", "user_id", id, "canceled_bookings", canceled, "admin_id", caller.ID)
	return nil
}
