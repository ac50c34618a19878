// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/chatroom/pkg/errutil"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewJWTIssuer(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		issuer, err := NewJWTIssuer(nil, time.Hour)
		require.Error(t, err)
		assert.Nil(t, issuer)
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_CONFIG")
	})

	t.Run("non-positive ttl uses default", func(t *testing.T) {
		issuer, err := NewJWTIssuer(testSecret, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultTokenTTL, issuer.ttl)
	})
}

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	issuer, err := NewJWTIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	subject := TokenSubject{
		UserID:   "0b5e7d2c-5a5f-4b1e-9d7e-3f3c1f8f4a11",
		Username: "alice",
		Role:     "user",
	}

	token, err := issuer.Issue(context.Background(), subject)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, subject.UserID, claims.UserID())
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTIssuer_Issue_RequiresSubject(t *testing.T) {
	issuer, err := NewJWTIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Issue(context.Background(), TokenSubject{Username: "alice"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_TOKEN_ISSUE_FAILED")
}

func TestJWTIssuer_Parse(t *testing.T) {
	issuer, err := NewJWTIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	valid, err := issuer.Issue(context.Background(), TokenSubject{UserID: "user-1", Username: "alice"})
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := issuer.Parse("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_INVALID")
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := issuer.Parse("not.a.jwt")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_INVALID")
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTIssuer([]byte("another-secret-another-secret-xx"), time.Hour)
		require.NoError(t, err)
		_, err = other.Parse(valid)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_INVALID")
	})

	t.Run("expired token", func(t *testing.T) {
		past, err := NewJWTIssuer(testSecret, time.Minute)
		require.NoError(t, err)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, err := past.Issue(context.Background(), TokenSubject{UserID: "user-1"})
		require.NoError(t, err)

		_, err = issuer.Parse(expired)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_EXPIRED")
	})

	t.Run("rejects non-HS256 algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString(testSecret)
		require.NoError(t, err)

		_, err = issuer.Parse(signed)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_INVALID")
	})

	t.Run("rejects foreign issuer", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString(testSecret)
		require.NoError(t, err)

		_, err = issuer.Parse(signed)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_INVALID")
	})
}
