// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/holomush/chatroom/internal/chat/gormstore"
	chatpg "github.com/holomush/chatroom/internal/chat/postgres"
	"github.com/holomush/chatroom/internal/config"
	"github.com/holomush/chatroom/internal/store"
)

// openStore connects the storage driver named by cfg, retrying until the
// database answers or the connect timeout elapses.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}

	retryOpts := store.DefaultConnectOptions()
	retryOpts.Attempts = cfg.Database.ConnectAttempts
	retryOpts.Logger = logger

	switch cfg.Database.Driver {
	case config.DriverGorm:
		return openGormStore(ctx, cfg.Database.URL, retryOpts, logger)
	case config.DriverPgx:
		pool, err := store.Connect(ctx, cfg.Database.URL, retryOpts)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to database", "driver", config.DriverPgx)
		return &Store{
			Users:    chatpg.NewUserRepository(pool),
			Rooms:    chatpg.NewRoomRepository(pool),
			Messages: chatpg.NewMessageRepository(pool),
			Ping:     pool.Ping,
			Close:    pool.Close,
		}, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("driver", cfg.Database.Driver).
			Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func openGormStore(ctx context.Context, dsn string, retryOpts store.ConnectOptions, logger *slog.Logger) (*Store, error) {
	gormOpts := gormstore.DefaultOptions()
	gormOpts.Logger = logger

	// gorm pings while opening, so each retry is a fresh open.
	var db *gorm.DB
	err := store.WaitForDatabase(ctx, store.PingFunc(func(context.Context) error {
		opened, err := gormstore.Open(dsn, gormOpts)
		if err != nil {
			return err
		}
		db = opened
		return nil
	}), retryOpts)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", config.DriverGorm).Wrap(err)
	}
	logger.Info("connected to database", "driver", config.DriverGorm)

	return &Store{
		Users:    gormstore.NewUserRepository(db),
		Rooms:    gormstore.NewRoomRepository(db),
		Messages: gormstore.NewMessageRepository(db),
		Ping:     sqlDB.PingContext,
		Close: func() {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("error closing database", "error", err)
			}
		},
	}, nil
}
