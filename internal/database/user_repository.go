package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/studytrack/pkg/models"
)

const userColumns = `id, username, first_name, last_name, is_admin, notification_enabled, notification_hour, created_at, updated_at`

// DefaultNotificationHour is used for users created without an explicit reminder hour
const DefaultNotificationHour = 9

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Upsert inserts a new user or refreshes the profile fields of an existing one.
// Notification settings of existing users are left untouched.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := DB.Rebind(`
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			is_admin = excluded.is_admin,
			updated_at = excluded.updated_at
	`)
	_, err := DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsAdmin,
		user.NotificationEnabled,
		user.NotificationHour,
		user.CreatedAt.UTC(),
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create/update user: %w", err)
	}
	return nil
}

// EnsureExists creates a bare user record for id if there is none
func (r *UserRepository) EnsureExists(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	query := DB.Rebind(`
		INSERT INTO users (id, notification_enabled, notification_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	if _, err := DB.ExecContext(ctx, query, id, true, DefaultNotificationHour, now, now); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, DB.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// UpdateNotificationSettings changes when and whether a user is reminded
func (r *UserRepository) UpdateNotificationSettings(ctx context.Context, id int64, enabled bool, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("notification hour must be between 0 and 23, got %d", hour)
	}

	query := DB.Rebind(`
		UPDATE users
		SET notification_enabled = ?,
			notification_hour = ?,
			updated_at = ?
		WHERE id = ?
	`)
	result, err := DB.ExecContext(ctx, query, enabled, hour, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAdminUsers returns all admin users
func (r *UserRepository) GetAdminUsers(ctx context.Context) ([]models.User, error) {
	return r.getUsersWithCondition(ctx, "is_admin = ?", true)
}

// GetUsersForNotification returns users with reminders enabled at the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	return r.getUsersWithCondition(ctx, "notification_enabled = ? AND notification_hour = ?", true, hour)
}

// getUsersWithCondition is a helper function to get users with a specific condition
func (r *UserRepository) getUsersWithCondition(ctx context.Context, condition string, args ...interface{}) ([]models.User, error) {
	users := []models.User{}
	query := DB.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + condition + ` ORDER BY id`)
	if err := DB.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get users with condition: %w", err)
	}
	return users, nil
}
