// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/chatroom/internal/config"
	"github.com/holomush/chatroom/internal/logging"
	"github.com/holomush/chatroom/internal/xdg"
)

// serviceName tags every log record.
const serviceName = "chatroom"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configFile string
	envFiles   []string
}

// NewRootCmd creates the root command for the chatroom CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "chatroom",
		Short: "Chatroom - password-protected rooms and chat history",
		Long: `Chatroom serves a JSON API for user accounts, password-protected
rooms and persisted chat messages, backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/chatroom/config.yaml)")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load (missing files are ignored)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(opts, nil))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewSeedCmd(opts))
	cmd.AddCommand(NewConfigCmd(opts))

	return cmd
}

// loadConfig reads configuration from every source for cmd. Without
// --config, the XDG config file is used when present.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file := o.configFile
	if file == "" {
		found, err := xdg.DefaultConfigFile()
		if err != nil {
			return nil, err
		}
		file = found
	}
	return config.Load(config.LoadOptions{
		File:     file,
		EnvFiles: o.envFiles,
		Flags:    cmd.Flags(),
	})
}

// setupLogging installs the default logger described by cfg.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	return logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
}
