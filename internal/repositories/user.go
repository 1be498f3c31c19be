package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/database"
	"eventhub/internal/models"
)

const userColumns = `id, name, email, password_hash, role, password_reset_token, password_reset_expires, created_at, updated_at`

// UserRepository handles user data operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var resetToken sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&resetToken,
		&user.PasswordResetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resetToken.Valid {
		user.PasswordResetToken = &resetToken.String
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Create inserts a user whose password has already been hashed
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id`

	now := time.Now().UTC()
	user.Email = models.NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	err := r.db.QueryRowContext(ctx, query, user.Name, user.Email, user.PasswordHash, user.Role, now).Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `email = $1`, models.NormalizeEmail(email))
}

// GetByPasswordResetToken finds the user holding an unexpired reset token digest
func (r *UserRepository) GetByPasswordResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	return r.getOne(ctx, `password_reset_token = $1 AND password_reset_expires > $2`, tokenHash, time.Now().UTC())
}

// List returns users ordered by creation, optionally filtered by role
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	whereClause := ""
	var args []interface{}
	if filter.Role != "" {
		whereClause = ` WHERE role = $1`
		args = append(args, filter.Role)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + whereClause + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

// Update writes the profile fields of user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, updated_at = $4
		WHERE id = $5`

	now := time.Now().UTC()
	user.Email = models.NormalizeEmail(user.Email)

	result, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash, now, user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := expectOneRow(result, models.ErrUserNotFound); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, id int, role models.UserRole) (*models.User, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
		role, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	if err := expectOneRow(result, models.ErrUserNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetPasswordResetToken stores the digest of a reset token and its expiry
func (r *UserRepository) SetPasswordResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_reset_token = $1, password_reset_expires = $2, updated_at = $3 WHERE id = $4`,
		tokenHash, expires.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set password reset token: %w", err)
	}
	return expectOneRow(result, models.ErrUserNotFound)
}

// ResetPassword sets a new password hash and clears any reset token
func (r *UserRepository) ResetPassword(ctx context.Context, id int, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, password_reset_token = NULL, password_reset_expires = NULL, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return expectOneRow(result, models.ErrUserNotFound)
}

// Delete removes a user. Their active bookings are canceled and the tickets
// returned to each event in the same transaction. Users who still organize
// events cannot be deleted.
func (r *UserRepository) Delete(ctx context.Context, id int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var organized int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE organizer_id = $1`, id).Scan(&organized); err != nil {
		return 0, fmt.Errorf("failed to count organizer events: %w", err)
	}
	if organized > 0 {
		return 0, models.NewStateError("user still organizes %d events; delete them first", organized)
	}

	now := time.Now().UTC()
	creditQuery := `
		UPDATE events
		SET remaining_tickets = CASE
				WHEN remaining_tickets + (SELECT COALESCE(SUM(b.quantity), 0) FROM bookings b
					WHERE b.event_id = events.id AND b.user_id = $1 AND b.status <> $2) > total_tickets
				THEN total_tickets
				ELSE remaining_tickets + (SELECT COALESCE(SUM(b.quantity), 0) FROM bookings b
					WHERE b.event_id = events.id AND b.user_id = $1 AND b.status <> $2)
			END,
			updated_at = $3
		WHERE id IN (SELECT event_id FROM bookings WHERE user_id = $1 AND status <> $2)`

	if _, err := tx.ExecContext(ctx, creditQuery, id, models.BookingCanceled, now); err != nil {
		return 0, fmt.Errorf("failed to release user tickets: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, canceled_at = $2 WHERE user_id = $3 AND status <> $1`,
		models.BookingCanceled, now, id)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel user bookings: %w", err)
	}
	canceled, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	result, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	if err := expectOneRow(result, models.ErrUserNotFound); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit user deletion: %w", err)
	}

	return int(canceled), nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
