// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema generates the config and seed JSON Schema files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/holomush/chatroom/internal/config"
	"github.com/holomush/chatroom/internal/seed"
)

var targets = []struct {
	file     string
	generate func() ([]byte, error)
}{
	{file: "config.schema.json", generate: config.Schema},
	{file: "seed.schema.json", generate: seed.Schema},
}

func main() {
	outDir := "schemas"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := run(outDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	for _, t := range targets {
		schema, err := t.generate()
		if err != nil {
			return fmt.Errorf("generating %s: %w", t.file, err)
		}
		outPath := filepath.Join(outDir, t.file)
		if err := os.WriteFile(outPath, schema, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Printf("Generated %s\n", outPath)
	}
	return nil
}
