// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/chatroom/internal/config"
	"github.com/holomush/chatroom/internal/schema"
	"github.com/holomush/chatroom/internal/seed"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	var kind string
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config or seed file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var generate func() ([]byte, error)
			switch kind {
			case "config":
				generate = config.Schema
			case "seed":
				generate = seed.Schema
			default:
				return oops.Code("INVALID_ARGUMENT").With("kind", kind).Errorf("--kind must be config or seed")
			}
			data, err := generate()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
	schemaCmd.Flags().StringVar(&kind, "kind", "config", "schema to print: config or seed")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				cmd.PrintErrln(schema.FormatError(err))
				return err
			}
			redacted := *cfg
			if redacted.Auth.JWTSecret != "" {
				redacted.Auth.JWTSecret = "<redacted>"
			}
			if redacted.Database.URL != "" {
				redacted.Database.URL = "<redacted>"
			}
			data, err := json.MarshalIndent(redacted, "", "  ")
			if err != nil {
				return oops.Wrap(err)
			}
			cmd.Println(string(data))
			return nil
		},
	}

	cmd.AddCommand(schemaCmd, showCmd)
	return cmd
}
