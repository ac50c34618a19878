// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the session token lifetime used when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// tokenIssuer is the "iss" claim of every token minted by JWTIssuer.
const tokenIssuer = "chatroom"

// TokenSubject identifies the authenticated principal a token is minted for.
type TokenSubject struct {
	UserID   string
	Username string
	Role     string
}

// TokenIssuer mints opaque session tokens for authenticated users.
type TokenIssuer interface {
	Issue(ctx context.Context, subject TokenSubject) (string, error)
}

// Claims are the JWT claims carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTIssuer issues and parses HS256-signed session tokens.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates a JWTIssuer. A non-positive ttl falls back to DefaultTokenTTL.
func NewJWTIssuer(secret []byte, ttl time.Duration) (*JWTIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_TOKEN_CONFIG").Errorf("token signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTIssuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for subject that expires after the configured TTL.
func (i *JWTIssuer) Issue(_ context.Context, subject TokenSubject) (string, error) {
	if subject.UserID == "" {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Errorf("token subject is required")
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username: subject.Username,
		Role:     subject.Role,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("user_id", subject.UserID).
			Wrap(err)
	}
	return signed, nil
}

// Parse validates a token's signature, algorithm, issuer and expiry and returns its claims.
func (i *JWTIssuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Errorf("token cannot be empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code("AUTH_TOKEN_EXPIRED").Wrap(err)
		}
		return nil, oops.Code("AUTH_TOKEN_INVALID").Wrap(err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Errorf("token is not valid")
	}

	return claims, nil
}

// Compile-time interface check.
var _ TokenIssuer = (*JWTIssuer)(nil)
