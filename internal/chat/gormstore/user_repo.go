// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/holomush/chatroom/internal/chat"
)

// UserRepository implements chat.UserRepository with GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and returns the stored row.
func (r *UserRepository) Create(ctx context.Context, user *chat.User) (*chat.User, error) {
	m := fromUser(user)
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(m).Error; err != nil {
		return nil, oops.With("operation", "insert user").
			With("username", user.Username).
			Wrap(classify(err))
	}
	return m.toUser(), nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*chat.User, error) {
	return r.take(ctx, "id", id.String(), "id = ?", id)
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*chat.User, error) {
	return r.take(ctx, "username", username, "username = ?", username)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*chat.User, error) {
	return r.take(ctx, "email", email, "email = ?", email)
}

func (r *UserRepository) take(ctx context.Context, key, value, query string, arg any) (*chat.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where(query, arg).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, oops.With(key, value).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user by "+key).
			With(key, value).
			Wrap(err)
	}
	return m.toUser(), nil
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*chat.User, error) {
	var models []userModel
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}

	users := make([]*chat.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].toUser())
	}
	return users, nil
}

// Update writes the profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *chat.User) error {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"email":       user.Email,
			"first_name":  optional(user.FirstName),
			"last_name":   optional(user.LastName),
			"modified_at": user.ModifiedAt,
		})
	if res.Error != nil {
		return oops.With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(classify(res.Error))
	}
	if res.RowsAffected == 0 {
		return oops.With("id", user.ID.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// IncrementFailedLogins adds one to the failed login counter.
func (r *UserRepository) IncrementFailedLogins(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", id).
		UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1"))
	if res.Error != nil {
		return oops.With("operation", "increment failed logins").
			With("id", id.String()).
			Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return oops.With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// RecordLogin sets last_login and resets the failed login counter.
func (r *UserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"last_login":            at,
			"failed_login_attempts": 0,
		})
	if res.Error != nil {
		return oops.With("operation", "record login").
			With("id", id.String()).
			Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return oops.With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// Compile-time interface check.
var _ chat.UserRepository = (*UserRepository)(nil)
