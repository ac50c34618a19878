// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Message is one entry of a room's chat history.
// IDs are ULIDs so lexical order is creation order.
type Message struct {
	ID        ulid.ULID
	Message   string
	UserID    uuid.UUID
	RoomID    uuid.UUID
	CreatedAt time.Time
}

// MessageRepository persists chat history.
type MessageRepository interface {
	// Create inserts a message and returns the stored row.
	// Returns ErrInvalidReference when the user or room does not exist.
	Create(ctx context.Context, msg *Message) (*Message, error)

	// ListByRoom returns a room's messages in creation order.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*Message, error)
}
