// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/chatroom/internal/auth"
	"github.com/holomush/chatroom/internal/config"
	"github.com/holomush/chatroom/internal/seed"
)

func authSubject() auth.TokenSubject {
	return auth.TokenSubject{UserID: "u", Username: "alice"}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := testRoot(nil)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, config.SchemaID, doc["$id"])

	out, err = execute(t, "config", "schema", "--kind", "seed")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, seed.SchemaID, doc["$id"])

	_, err = execute(t, "config", "schema", "--kind", "nope")
	require.Error(t, err)
}

func TestConfigShow_RedactsSecrets(t *testing.T) {
	t.Setenv(config.EnvJWTSecret, testSecret)
	t.Setenv(config.EnvDatabaseURL, "postgres://user:hunter2@db/chat")

	out, err := execute(t, "config", "show", "--http-addr", ":9999")
	require.NoError(t, err)
	assert.NotContains(t, out, testSecret)
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, `":9999"`)
}
