// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chat

import "strings"

// CreateUserRequest carries the fields needed to register a user.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Validate checks field lengths and required fields.
func (r CreateUserRequest) Validate() error {
	if err := requireLength("username", r.Username); err != nil {
		return err
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return validationError("password", "password is required")
	}
	if err := optionalLength("first_name", r.FirstName); err != nil {
		return err
	}
	if err := optionalLength("last_name", r.LastName); err != nil {
		return err
	}
	return optionalLength("role", r.Role)
}

// CreateRoomRequest carries the fields needed to create a room.
type CreateRoomRequest struct {
	Title    string `json:"title"`
	Password string `json:"password"`
	Capacity int    `json:"capacity"`
}

// Validate checks field lengths and the capacity bound.
func (r CreateRoomRequest) Validate() error {
	if err := requireLength("title", r.Title); err != nil {
		return err
	}
	if r.Password == "" {
		return validationError("password", "password is required")
	}
	if r.Capacity < 0 {
		return validationError("capacity", "capacity cannot be negative")
	}
	return nil
}

// CreateMessageRequest carries the body of a chat message.
type CreateMessageRequest struct {
	Message string `json:"message"`
}

// Validate checks the message length.
func (r CreateMessageRequest) Validate() error {
	return requireLength("message", r.Message)
}

// UpdateProfileRequest changes a user's profile. Nil fields are left as they are.
type UpdateProfileRequest struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// Validate checks every field that is being changed.
func (r UpdateProfileRequest) Validate() error {
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.FirstName != nil {
		if err := optionalLength("first_name", *r.FirstName); err != nil {
			return err
		}
	}
	if r.LastName != nil {
		if err := optionalLength("last_name", *r.LastName); err != nil {
			return err
		}
	}
	return nil
}

func validateEmail(email string) error {
	if err := requireLength("email", email); err != nil {
		return err
	}
	if !strings.Contains(email, "@") {
		return validationError("email", "email must contain '@'")
	}
	return nil
}
