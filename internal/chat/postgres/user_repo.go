// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/chatroom/internal/chat"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, password_salt,
	role, is_active, failed_login_attempts, last_login, created_at, modified_at`

// UserRepository implements chat.UserRepository using PostgreSQL.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a user and returns the stored row.
func (r *UserRepository) Create(ctx context.Context, user *chat.User) (*chat.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (
			id, username, email, first_name, last_name, password_hash, password_salt,
			role, is_active, created_at, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+userColumns,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.PasswordSalt,
		user.Role,
		user.IsActive,
		user.CreatedAt,
		user.ModifiedAt,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, oops.With("operation", "insert user").
			With("username", user.Username).
			Wrap(ClassifyError(err))
	}
	return created, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*chat.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.get(row, "id", id.String())
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*chat.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return r.get(row, "username", username)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*chat.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return r.get(row, "email", email)
}

func (r *UserRepository) get(row pgx.Row, key, value string) (*chat.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With(key, value).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user by "+key).
			With(key, value).
			Wrap(err)
	}
	return user, nil
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*chat.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	var users []*chat.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.With("operation", "scan user row").Wrap(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

// Update writes the profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *chat.User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			email = $2,
			first_name = $3,
			last_name = $4,
			modified_at = $5
		WHERE id = $1
	`,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.ModifiedAt,
	)
	if err != nil {
		return oops.With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(ClassifyError(err))
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", user.ID.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// IncrementFailedLogins adds one to the failed login counter.
func (r *UserRepository) IncrementFailedLogins(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET failed_login_attempts = failed_login_attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return oops.With("operation", "increment failed logins").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// RecordLogin sets last_login and resets the failed login counter.
func (r *UserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login = $2, failed_login_attempts = 0 WHERE id = $1`, id, at)
	if err != nil {
		return oops.With("operation", "record login").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*chat.User, error) {
	var (
		u         chat.User
		firstName *string
		lastName  *string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&firstName,
		&lastName,
		&u.PasswordHash,
		&u.PasswordSalt,
		&u.Role,
		&u.IsActive,
		&u.FailedLoginAttempts,
		&u.LastLogin,
		&u.CreatedAt,
		&u.ModifiedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	if firstName != nil {
		u.FirstName = *firstName
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	return &u, nil
}

// Compile-time interface check.
var _ chat.UserRepository = (*UserRepository)(nil)
