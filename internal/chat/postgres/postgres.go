// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements the chat repositories on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/chatroom/internal/chat"
)

// poolIface is the subset of pgxpool.Pool used by the repositories.
// pgxmock.PgxPoolIface satisfies it in unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// constraintFields maps schema constraint names to the request field they guard.
var constraintFields = map[string]string{
	"users_username_key":        "username",
	"users_email_key":           "email",
	"chatrooms_title_key":       "title",
	"chatrooms_created_by_fkey": "created_by",
	"chat_history_user_id_fkey": "user_id",
	"chat_history_room_id_fkey": "room_id",
	"room_members_room_id_fkey": "room_id",
	"room_members_user_id_fkey": "user_id",
}

// ClassifyError translates constraint violations into chat sentinels. Other errors
// are returned unchanged.
func ClassifyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var sentinel error
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		sentinel = chat.ErrDuplicateKey
	case pgerrcode.ForeignKeyViolation:
		sentinel = chat.ErrInvalidReference
	default:
		return err
	}

	builder := oops.With("constraint", pgErr.ConstraintName)
	if field, ok := constraintFields[pgErr.ConstraintName]; ok {
		builder = builder.With("field", field)
	}
	return builder.Wrap(sentinel)
}
