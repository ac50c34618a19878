// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultRole is assigned to users created without an explicit role.
const DefaultRole = "user"

// User is a registered account. Users are never hard-deleted.
type User struct {
	ID                  uuid.UUID
	Username            string
	Email               string
	FirstName           string
	LastName            string
	PasswordHash        []byte
	PasswordSalt        []byte
	Role                string
	IsActive            bool
	FailedLoginAttempts int
	CreatedAt           time.Time
	ModifiedAt          time.Time
	LastLogin           *time.Time
}

// UserRepository persists users.
type UserRepository interface {
	// Create inserts a user and returns the stored row.
	// Returns ErrDuplicateKey when the username or email is taken.
	Create(ctx context.Context, user *User) (*User, error)

	// GetByID returns ErrNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByUsername matches the username exactly. Returns ErrNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail returns ErrNotFound if no user has the email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*User, error)

	// Update writes the profile fields (email, names, modified_at).
	// Credentials and counters are not touched.
	Update(ctx context.Context, user *User) error

	// IncrementFailedLogins adds one to the failed login counter in a single statement.
	IncrementFailedLogins(ctx context.Context, id uuid.UUID) error

	// RecordLogin sets last_login and resets the failed login counter.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
