// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the credential primitives used by the chat service.
//
// # Passwords
//
// PasswordHasher derives a hash from a plaintext password under a random salt
// and later verifies a candidate against the stored (hash, salt) pair:
//   - Argon2idHasher - argon2id with constant-time comparison
//
// The hash and salt are persisted as separate columns and are only meaningful
// together. Verification never returns an error; a mismatch is simply false.
//
// # Tokens
//
// TokenIssuer mints session tokens for authenticated users:
//   - JWTIssuer - HS256 JWT whose subject is the user ID
//
// JWTIssuer.Parse is used by the HTTP layer to authenticate bearer tokens.
package auth
