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

// RoomRepository implements chat.RoomRepository with GORM.
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new RoomRepository.
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a room and returns the stored row.
func (r *RoomRepository) Create(ctx context.Context, room *chat.Room) (*chat.Room, error) {
	m := fromRoom(room)
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(m).Error; err != nil {
		return nil, oops.With("operation", "insert room").
			With("title", room.Title).
			Wrap(classify(err))
	}
	return m.toRoom(), nil
}

// GetByID retrieves a room by ID.
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*chat.Room, error) {
	return r.take(ctx, "id", id.String(), "id = ?", id)
}

// GetByTitle retrieves a room by title.
func (r *RoomRepository) GetByTitle(ctx context.Context, title string) (*chat.Room, error) {
	return r.take(ctx, "title", title, "title = ?", title)
}

func (r *RoomRepository) take(ctx context.Context, key, value, query string, arg any) (*chat.Room, error) {
	var m roomModel
	err := r.db.WithContext(ctx).Where(query, arg).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, oops.With(key, value).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get room by "+key).
			With(key, value).
			Wrap(err)
	}
	return m.toRoom(), nil
}

// List returns all rooms ordered by title.
func (r *RoomRepository) List(ctx context.Context) ([]*chat.Room, error) {
	var models []roomModel
	if err := r.db.WithContext(ctx).Order("title").Find(&models).Error; err != nil {
		return nil, oops.With("operation", "list rooms").Wrap(err)
	}

	rooms := make([]*chat.Room, 0, len(models))
	for i := range models {
		rooms = append(rooms, models[i].toRoom())
	}
	return rooms, nil
}

// AddMember inserts the membership and takes a seat in one transaction.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID uuid.UUID, at time.Time) (int, bool, error) {
	var (
		total  int
		joined bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member := &memberModel{RoomID: roomID, UserID: userID, JoinedAt: at}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(member)
		if res.Error != nil {
			return oops.With("operation", "insert room member").
				With("room_id", roomID.String()).
				With("user_id", userID.String()).
				Wrap(classify(res.Error))
		}

		var m roomModel
		if res.RowsAffected == 0 {
			if err := tx.Select("total_users").Where("id = ?", roomID).Take(&m).Error; err != nil {
				return oops.With("operation", "read total users").
					With("room_id", roomID.String()).
					Wrap(err)
			}
			total = m.TotalUsers
			return nil
		}

		seat := tx.Model(&m).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "total_users"}}}).
			Where("id = ? AND (capacity = 0 OR total_users < capacity)", roomID).
			UpdateColumn("total_users", gorm.Expr("total_users + 1"))
		if seat.Error != nil {
			return oops.With("operation", "increment total users").
				With("room_id", roomID.String()).
				Wrap(seat.Error)
		}
		if seat.RowsAffected == 0 {
			return oops.With("room_id", roomID.String()).Wrap(chat.ErrRoomFull)
		}
		total, joined = m.TotalUsers, true
		return nil
	})
	if err != nil {
		if errors.Is(err, chat.ErrInvalidReference) && referencesRoom(err) {
			return 0, false, oops.With("room_id", roomID.String()).Wrap(chat.ErrNotFound)
		}
		return 0, false, err //nolint:wrapcheck // wrapped inside the transaction
	}
	return total, joined, nil
}

// RemoveMember deletes the membership and releases its seat in one transaction.
func (r *RoomRepository) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&memberModel{})
		if res.Error != nil {
			return oops.With("operation", "delete room member").
				With("room_id", roomID.String()).
				With("user_id", userID.String()).
				Wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return oops.With("room_id", roomID.String()).
				With("user_id", userID.String()).
				Wrap(chat.ErrNotMember)
		}

		var m roomModel
		seat := tx.Model(&m).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "total_users"}}}).
			Where("id = ?", roomID).
			UpdateColumn("total_users", gorm.Expr("GREATEST(total_users - 1, 0)"))
		if seat.Error != nil {
			return oops.With("operation", "decrement total users").
				With("room_id", roomID.String()).
				Wrap(seat.Error)
		}
		if seat.RowsAffected == 0 {
			return oops.With("room_id", roomID.String()).Wrap(chat.ErrNotFound)
		}
		total = m.TotalUsers
		return nil
	})
	if err != nil {
		return 0, err //nolint:wrapcheck // wrapped inside the transaction
	}
	return total, nil
}

func referencesRoom(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	field, _ := oopsErr.Context()["field"].(string)
	return field == "room_id"
}

// Compile-time interface check.
var _ chat.RoomRepository = (*RoomRepository)(nil)
