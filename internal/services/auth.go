package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/models"
	"eventhub/internal/utils"
)

const resetTokenBytes = 32

// AuthResult is returned by registration and login
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// AuthService handles registration, login, tokens and password resets
type AuthService struct {
	users    UserStore
	tokens   *TokenService
	hasher   *utils.PasswordHasher
	notifier Notifier
	resetTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(users UserStore, tokens *TokenService, hasher *utils.PasswordHasher, notifier Notifier, resetTTL time.Duration, logger *slog.Logger) *AuthService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		resetTTL: resetTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a user account and signs them in
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)

	if err := s.notifier.SendWelcomeEmail(user.Email, user.Name); err != nil {
		s.logger.Warn("failed to send welcome email", "user_id", user.ID, "error", err)
	}

	return s.issue(user)
}

// Login checks credentials and issues a token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", "user_id", user.ID, "error", err)
		return nil, models.ErrInvalidCredentials
	}
	if !ok {
		return nil, models.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}
	return s.issue(user)
}

// rehash upgrades a stored hash to the current cost settings. Failures are
// logged and the login still succeeds.
func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("failed to rehash password", "user_id", user.ID, "error", err)
		return
	}
	previous := user.PasswordHash
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		user.PasswordHash = previous
		s.logger.Warn("failed to store rehashed password", "user_id", user.ID, "error", err)
		return
	}
	s.logger.Info("password hash upgraded", "user_id", user.ID)
}

// Authenticate resolves a token to the current user record. Tokens of
// deleted users are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Me returns the caller's own account
func (s *AuthService) Me(ctx context.Context, caller *models.User) (*models.User, error) {
	if err := Authorize(caller, Policy{}).Err(); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, caller.ID)
}

// UpdateProfile changes the caller's name, email or password
func (s *AuthService) UpdateProfile(ctx context.Context, caller *models.User, req *models.ProfileUpdateRequest) (*models.User, error) {
	if err := Authorize(caller, Policy{}).Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = models.NormalizeEmail(*req.Email)
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset emails a reset token when the address belongs to an
// account. It reports success either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error {
	req.Email = models.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, models.ErrUserNotFound) {
		s.logger.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := utils.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return err
	}

	expires := s.now().Add(s.resetTTL)
	if err := s.users.SetPasswordResetToken(ctx, user.ID, utils.HashToken(token), expires); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordResetEmail(user.Email, user.Name, token); err != nil {
		s.logger.Error("failed to send password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token
func (s *AuthService) ResetPassword(ctx context.Context, req *models.PasswordResetCompleteRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.users.GetByPasswordResetToken(ctx, utils.HashToken(req.Token))
	if errors.Is(err, models.ErrUserNotFound) {
		return models.ErrInvalidToken
	}
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password reset completed", "user_id", user.ID)
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
