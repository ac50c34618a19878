// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2Params configures the argon2id key derivation.
type Argon2Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params are the OWASP-recommended argon2id parameters.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// hashPrefix marks a hash that carries its own argon2id parameters.
const hashPrefix = "$argon2id$"

// PasswordHasher produces and verifies salted password hashes.
// The hash and its salt are stored side by side and are only meaningful together.
type PasswordHasher interface {
	// Hash derives a hash of password under a freshly generated random salt.
	Hash(password string) (hash, salt []byte, err error)

	// Verify reports whether password matches the stored hash/salt pair.
	// A mismatch is a normal false result, never an error.
	Verify(password string, hash, salt []byte) bool
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates a hasher using DefaultArgon2Params.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params}
}

// NewArgon2idHasherWithParams creates a hasher with explicit parameters.
// The parameters apply to new hashes; Verify uses the ones recorded in each hash.
func NewArgon2idHasherWithParams(params Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: params}
}

// Hash derives an argon2id key of the password under a random salt. The
// returned hash is encoded as $argon2id$v=19$m=<KiB>,t=<time>,p=<threads>$<key>
// so it stays verifiable after the configured parameters change. The salt is
// returned separately and is not part of the encoding.
func (h *Argon2idHasher) Hash(password string) (hash, salt []byte, err error) {
	if password == "" {
		return nil, nil, ErrEmptyPassword
	}

	salt = make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	return encodeHash(h.params, key), salt, nil
}

// Verify recomputes the key of password with the stored salt and the
// parameters recorded in the hash, and compares it in constant time. A bare
// key without the parameter prefix is checked with the hasher's own parameters.
func (h *Argon2idHasher) Verify(password string, hash, salt []byte) bool {
	if len(hash) == 0 || len(salt) == 0 {
		return false
	}

	params, key := h.params, hash
	if bytes.HasPrefix(hash, []byte(hashPrefix)) {
		var err error
		params, key, err = decodeHash(hash)
		if err != nil {
			return false
		}
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads,
		uint32(len(key))) //nolint:gosec // key length is bounded by decodeHash and the column type
	return subtle.ConstantTimeCompare(computed, key) == 1
}

func encodeHash(params Argon2Params, key []byte) []byte {
	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version,
		params.Memory,
		params.Time,
		params.Threads,
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// decodeHash parses an encoded hash into its parameters and derived key.
func decodeHash(encoded []byte) (Argon2Params, []byte, error) {
	parts := strings.Split(string(encoded), "$")
	if len(parts) != 5 || parts[1] != "argon2id" {
		return Argon2Params{}, nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Argon2Params{}, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return Argon2Params{}, nil, oops.Code("AUTH_INVALID_HASH").
			With("version", version).
			Errorf("unsupported argon2 version")
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return Argon2Params{}, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if memory == 0 || time == 0 || threads == 0 || threads > 255 {
		return Argon2Params{}, nil, oops.Code("AUTH_INVALID_HASH").
			With("memory", memory).
			With("time", time).
			With("threads", threads).
			Errorf("invalid argon2 parameters")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1024 {
		return Argon2Params{}, nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid key length: %d", len(key))
	}

	return Argon2Params{
		Time:    time,
		Memory:  memory,
		Threads: uint8(threads),
		KeyLen:  uint32(len(key)),
	}, key, nil
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
