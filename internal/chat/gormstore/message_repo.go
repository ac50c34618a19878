// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gormstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/holomush/chatroom/internal/chat"
)

// MessageRepository implements chat.MessageRepository with GORM.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message and returns the stored row.
func (r *MessageRepository) Create(ctx context.Context, msg *chat.Message) (*chat.Message, error) {
	m := fromMessage(msg)
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(m).Error; err != nil {
		return nil, oops.With("operation", "insert message").
			With("room_id", msg.RoomID.String()).
			Wrap(classify(err))
	}

	created, err := m.toMessage()
	if err != nil {
		return nil, oops.With("operation", "parse message id").With("id", m.ID).Wrap(err)
	}
	return created, nil
}

// ListByRoom returns a room's messages in ULID order.
func (r *MessageRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*chat.Message, error) {
	var models []messageModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, oops.With("operation", "list messages").
			With("room_id", roomID.String()).
			Wrap(err)
	}

	msgs := make([]*chat.Message, 0, len(models))
	for i := range models {
		msg, err := models[i].toMessage()
		if err != nil {
			return nil, oops.With("operation", "parse message id").With("id", models[i].ID).Wrap(err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Compile-time interface check.
var _ chat.MessageRepository = (*MessageRepository)(nil)
