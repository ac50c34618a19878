// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Room is a password-protected chatroom.
// A Capacity of 0 means the room is unbounded.
type Room struct {
	ID           uuid.UUID
	Title        string
	Capacity     int
	TotalUsers   int
	PasswordHash []byte
	PasswordSalt []byte
	CreatedBy    *uuid.UUID
	CreatedAt    time.Time
}

// HasCapacity reports whether one more user may join.
func (r *Room) HasCapacity() bool {
	return r.Capacity == 0 || r.TotalUsers < r.Capacity
}

// RoomRepository persists rooms.
type RoomRepository interface {
	// Create inserts a room and returns the stored row.
	// Returns ErrDuplicateKey when the title is taken and ErrInvalidReference
	// when CreatedBy names an unknown user.
	Create(ctx context.Context, room *Room) (*Room, error)

	// GetByID returns ErrNotFound if the room does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)

	// GetByTitle returns ErrNotFound if no room has the title.
	GetByTitle(ctx context.Context, title string) (*Room, error)

	// List returns all rooms ordered by title.
	List(ctx context.Context) ([]*Room, error)

	// AddMember records userID as a member of the room and takes one seat for it,
	// returning the new total. Joining a room twice is not an error: the second
	// call reports joined=false and leaves the total unchanged.
	// Returns ErrRoomFull when a new member would exceed capacity and
	// ErrNotFound when the room does not exist.
	AddMember(ctx context.Context, roomID, userID uuid.UUID, at time.Time) (total int, joined bool, err error)

	// RemoveMember deletes the membership of userID and releases its seat,
	// returning the new total. Returns ErrNotMember when userID has not joined.
	RemoveMember(ctx context.Context, roomID, userID uuid.UUID) (int, error)
}
