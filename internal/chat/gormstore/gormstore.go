// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package gormstore implements the chat repositories on GORM. It shares the
// schema owned by the store migrations and never runs AutoMigrate.
package gormstore

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/holomush/chatroom/internal/chat"
	chatpg "github.com/holomush/chatroom/internal/chat/postgres"
)

// Options configures the GORM connection pool.
type Options struct {
	MaxIdleConns  int
	MaxOpenConns  int
	SlowThreshold time.Duration
	Logger        *slog.Logger
}

// DefaultOptions returns the pool settings used by the server.
func DefaultOptions() Options {
	return Options{
		MaxIdleConns:  10,
		MaxOpenConns:  100,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// Open connects to PostgreSQL through GORM.
func Open(dsn string, opts Options) (*gorm.DB, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      newLogger(log, opts.SlowThreshold),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", "gorm").Wrap(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", "gorm").Wrap(err)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	log.Info("gorm connection established",
		"max_idle", opts.MaxIdleConns,
		"max_open", opts.MaxOpenConns)
	return db, nil
}

// slogWriter adapts slog to the GORM logger writer.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Debug(fmt.Sprintf(format, args...), "component", "gorm")
}

func newLogger(log *slog.Logger, slow time.Duration) logger.Interface {
	if slow <= 0 {
		slow = DefaultOptions().SlowThreshold
	}
	return logger.New(slogWriter{log: log}, logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// classify maps driver errors onto chat sentinels. GORM hands back the raw
// pgx error, so the constraint mapping is shared with the pgx repositories.
func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return oops.Wrap(chat.ErrDuplicateKey)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return oops.Wrap(chat.ErrInvalidReference)
	default:
		return chatpg.ClassifyError(err)
	}
}
