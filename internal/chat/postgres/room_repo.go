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

const roomColumns = `id, title, capacity, total_users, password_hash, password_salt, created_by, created_at`

// RoomRepository implements chat.RoomRepository using PostgreSQL.
type RoomRepository struct {
	pool poolIface
}

// NewRoomRepository creates a new RoomRepository.
func NewRoomRepository(pool poolIface) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// Create inserts a room and returns the stored row.
func (r *RoomRepository) Create(ctx context.Context, room *chat.Room) (*chat.Room, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO chatrooms (id, title, capacity, total_users, password_hash, password_salt, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+roomColumns,
		room.ID,
		room.Title,
		room.Capacity,
		room.TotalUsers,
		room.PasswordHash,
		room.PasswordSalt,
		room.CreatedBy,
		room.CreatedAt,
	)

	created, err := scanRoom(row)
	if err != nil {
		return nil, oops.With("operation", "insert room").
			With("title", room.Title).
			Wrap(ClassifyError(err))
	}
	return created, nil
}

// GetByID retrieves a room by ID.
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*chat.Room, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM chatrooms WHERE id = $1`, id)
	return r.get(row, "id", id.String())
}

// GetByTitle retrieves a room by title.
func (r *RoomRepository) GetByTitle(ctx context.Context, title string) (*chat.Room, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM chatrooms WHERE title = $1`, title)
	return r.get(row, "title", title)
}

func (r *RoomRepository) get(row pgx.Row, key, value string) (*chat.Room, error) {
	room, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With(key, value).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get room by "+key).
			With(key, value).
			Wrap(err)
	}
	return room, nil
}

// List returns all rooms ordered by title.
func (r *RoomRepository) List(ctx context.Context) ([]*chat.Room, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roomColumns+` FROM chatrooms ORDER BY title`)
	if err != nil {
		return nil, oops.With("operation", "list rooms").Wrap(err)
	}
	defer rows.Close()

	var rooms []*chat.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, oops.With("operation", "scan room row").Wrap(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate rooms").Wrap(err)
	}
	return rooms, nil
}

// AddMember inserts the membership and takes a seat in one transaction. The
// seat update is conditional on capacity, so concurrent joins never overfill
// the room.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID uuid.UUID, at time.Time) (int, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, false, oops.With("operation", "begin transaction").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id, user_id) DO NOTHING
	`, roomID, userID, at)
	if err != nil {
		classified := ClassifyError(err)
		if errors.Is(classified, chat.ErrInvalidReference) && isRoomReference(classified) {
			return 0, false, oops.With("room_id", roomID.String()).Wrap(chat.ErrNotFound)
		}
		return 0, false, oops.With("operation", "insert room member").
			With("room_id", roomID.String()).
			With("user_id", userID.String()).
			Wrap(classified)
	}

	var total int
	if tag.RowsAffected() == 0 {
		if err := tx.QueryRow(ctx, `SELECT total_users FROM chatrooms WHERE id = $1`, roomID).Scan(&total); err != nil {
			return 0, false, oops.With("operation", "read total users").
				With("room_id", roomID.String()).
				Wrap(err)
		}
		return total, false, nil
	}

	err = tx.QueryRow(ctx, `
		UPDATE chatrooms SET total_users = total_users + 1
		WHERE id = $1 AND (capacity = 0 OR total_users < capacity)
		RETURNING total_users
	`, roomID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		// The member insert passed its foreign key, so the room exists.
		return 0, false, oops.With("room_id", roomID.String()).Wrap(chat.ErrRoomFull)
	}
	if err != nil {
		return 0, false, oops.With("operation", "increment total users").
			With("room_id", roomID.String()).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, oops.With("operation", "commit transaction").Wrap(err)
	}
	return total, true, nil
}

// RemoveMember deletes the membership and releases its seat in one transaction.
func (r *RoomRepository) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, oops.With("operation", "begin transaction").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx,
		`DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return 0, oops.With("operation", "delete room member").
			With("room_id", roomID.String()).
			With("user_id", userID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return 0, oops.With("room_id", roomID.String()).
			With("user_id", userID.String()).
			Wrap(chat.ErrNotMember)
	}

	var total int
	err = tx.QueryRow(ctx, `
		UPDATE chatrooms SET total_users = GREATEST(total_users - 1, 0)
		WHERE id = $1
		RETURNING total_users
	`, roomID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.With("room_id", roomID.String()).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return 0, oops.With("operation", "decrement total users").
			With("room_id", roomID.String()).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, oops.With("operation", "commit transaction").Wrap(err)
	}
	return total, nil
}

func isRoomReference(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	field, _ := oopsErr.Context()["field"].(string)
	return field == "room_id"
}

func scanRoom(row pgx.Row) (*chat.Room, error) {
	var room chat.Room
	err := row.Scan(
		&room.ID,
		&room.Title,
		&room.Capacity,
		&room.TotalUsers,
		&room.PasswordHash,
		&room.PasswordSalt,
		&room.CreatedBy,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	return &room, nil
}

// Compile-time interface check.
var _ chat.RoomRepository = (*RoomRepository)(nil)
