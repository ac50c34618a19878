// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/chatroom/internal/auth"
	"github.com/holomush/chatroom/internal/chat"
	"github.com/holomush/chatroom/internal/seed"
)

// Default timeout for the seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd(opts *rootOptions) *cobra.Command {
	return newSeedCmd(opts, nil)
}

func newSeedCmd(opts *rootOptions, deps *ServeDeps) *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create initial users and rooms from a YAML file",
		Long: `Creates the users and rooms listed in a seed file. The file is validated
against the seed schema first. This command is idempotent: users and rooms that
already exist are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts, cfg, deps.withDefaults())
		},
	}

	cmd.Flags().StringVarP(&cfg.file, "file", "f", "seed.yaml", "seed file path")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *rootOptions, sc *seedConfig, deps *ServeDeps) error {
	f, err := seed.Load(sc.file)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}

	// cmd.Context() carries SIGINT/SIGTERM cancellation.
	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	st, err := deps.StoreFactory(ctx, cfg, logger)
	if err != nil {
		return oops.With("operation", "open store").Wrap(err)
	}
	defer st.Close()

	svc, err := chat.NewService(chat.Deps{
		Users:    st.Users,
		Rooms:    st.Rooms,
		Messages: st.Messages,
		Hasher:   auth.NewArgon2idHasherWithParams(cfg.Auth.Argon2.Params()),
		Tokens:   noTokens{},
		Logger:   logger,
	})
	if err != nil {
		return oops.With("operation", "create chat service").Wrap(err)
	}

	res, err := seed.Apply(ctx, svc, f, logger)
	if err != nil {
		return oops.Code("SEED_FAILED").With("file", sc.file).Wrap(err)
	}

	cmd.Printf("Seed complete: %d user(s) created, %d skipped; %d room(s) created, %d skipped\n",
		res.UsersCreated, res.UsersSkipped, res.RoomsCreated, res.RoomsSkipped)
	return nil
}

// noTokens is the issuer for commands that never log users in.
type noTokens struct{}

func (noTokens) Issue(context.Context, auth.TokenSubject) (string, error) {
	return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Errorf("token issuing is disabled")
}
