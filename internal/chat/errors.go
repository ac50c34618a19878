// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chat

import (
	"errors"

	"github.com/samber/oops"
)

// Error codes carried by errors returned from Service.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeDuplicateKey       = "DUPLICATE_KEY"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeValidationFailure  = "VALIDATION_FAILURE"
	CodeNotFound           = "NOT_FOUND"
	CodeRoomFull           = "ROOM_FULL"
	CodeNotMember          = "NOT_MEMBER"
)

// Repository sentinels. Implementations wrap them with context; callers match
// them with errors.Is.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert or update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidReference is returned when a row references a user or room that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrRoomFull is returned when a room has no remaining capacity.
	ErrRoomFull = errors.New("room is full")

	// ErrNotMember is returned when a user leaves a room they have not joined.
	ErrNotMember = errors.New("not a member of the room")
)

// unauthenticatedMessage is the only message ever attached to CodeUnauthenticated.
const unauthenticatedMessage = "invalid credentials"

// errUnauthenticated builds the uniform credential failure. Every caller gets an
// identical error so unknown principals and wrong passwords are indistinguishable.
func errUnauthenticated() error {
	return oops.Code(CodeUnauthenticated).Errorf(unauthenticatedMessage)
}

// Code returns the oops code attached to err, or "" when there is none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// IsUnauthenticated reports whether err is a credential failure.
func IsUnauthenticated(err error) bool {
	return Code(err) == CodeUnauthenticated
}
