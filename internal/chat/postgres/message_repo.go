// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/chatroom/internal/chat"
)

// MessageRepository implements chat.MessageRepository using PostgreSQL.
type MessageRepository struct {
	pool poolIface
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool poolIface) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create inserts a message and returns the stored row.
func (r *MessageRepository) Create(ctx context.Context, msg *chat.Message) (*chat.Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO chat_history (id, message, user_id, room_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, message, user_id, room_id, created_at
	`,
		msg.ID.String(),
		msg.Message,
		msg.UserID,
		msg.RoomID,
		msg.CreatedAt,
	)

	created, err := scanMessage(row)
	if err != nil {
		return nil, oops.With("operation", "insert message").
			With("room_id", msg.RoomID.String()).
			Wrap(ClassifyError(err))
	}
	return created, nil
}

// ListByRoom returns a room's messages in ULID order.
func (r *MessageRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*chat.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message, user_id, room_id, created_at
		FROM chat_history
		WHERE room_id = $1
		ORDER BY id
	`, roomID)
	if err != nil {
		return nil, oops.With("operation", "list messages").
			With("room_id", roomID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var msgs []*chat.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, oops.With("operation", "scan message row").
				With("room_id", roomID.String()).
				Wrap(err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate messages").
			With("room_id", roomID.String()).
			Wrap(err)
	}
	return msgs, nil
}

func scanMessage(row pgx.Row) (*chat.Message, error) {
	var (
		msg   chat.Message
		idStr string
	)
	if err := row.Scan(&idStr, &msg.Message, &msg.UserID, &msg.RoomID, &msg.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("id", idStr).Wrapf(err, "parse message id")
	}
	msg.ID = id
	return &msg, nil
}

// Compile-time interface check.
var _ chat.MessageRepository = (*MessageRepository)(nil)
