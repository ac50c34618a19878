// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package chat implements users, password-protected rooms and chat history.
//
// Service is the entry point. It depends only on the repository interfaces in
// this package and on the hasher and token issuer from internal/auth, so the
// same flows run against Postgres (internal/chat/postgres), the gorm store
// (internal/chat/gormstore) or the in-memory store (internal/chat/chattest).
//
// Every error returned by Service carries one of the Code* constants. All
// credential failures share CodeUnauthenticated and the message
// "invalid credentials".
package chat
