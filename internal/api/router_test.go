// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/chatroom/internal/auth"
	"github.com/holomush/chatroom/internal/chat"
	"github.com/holomush/chatroom/internal/chat/chattest"
	"github.com/holomush/chatroom/internal/logging"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type requestLog struct {
	routes   []string
	statuses []int
}

func (r *requestLog) RecordRequest(_, route string, status int, _ time.Duration) {
	r.routes = append(r.routes, route)
	r.statuses = append(r.statuses, status)
}

type harness struct {
	t       *testing.T
	router  http.Handler
	tokens  *auth.JWTIssuer
	metrics *requestLog
	logs    *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := chattest.NewStore()
	tokens, err := auth.NewJWTIssuer([]byte("api-test-secret-api-test-secret!"), time.Hour)
	require.NoError(t, err)

	svc, err := chat.NewService(chat.Deps{
		Users:    store.Users(),
		Rooms:    store.Rooms(),
		Messages: store.Messages(),
		Hasher: auth.NewArgon2idHasherWithParams(auth.Argon2Params{
			Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
		}),
		Tokens: tokens,
	})
	require.NoError(t, err)

	return newHarnessWith(t, svc, tokens)
}

func newHarnessWith(t *testing.T, svc ChatService, tokens *auth.JWTIssuer) *harness {
	t.Helper()
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Service: "chatroom", Output: &logs})
	require.NoError(t, err)
	metrics := &requestLog{}
	router, err := NewRouter(Config{
		Service: svc,
		Tokens:  tokens,
		Logger:  logger,
		Metrics: metrics,
	})
	require.NoError(t, err)
	return &harness{t: t, router: router, tokens: tokens, metrics: metrics, logs: &logs}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// signup registers a user and returns their ID and a session token.
func (h *harness) signup(username, password string) (string, string) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/users", "", chat.CreateUserRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeInto[chat.CreateUserResponse](h.t, rec)

	rec = h.do(http.MethodPost, "/api/v1/users/authenticate", "", credentialsRequest{
		Username: username, Password: password,
	})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return created.ID, decodeInto[chat.AuthenticateResponse](h.t, rec).Token
}

func TestNewRouter_RequiresDependencies(t *testing.T) {
	_, err := NewRouter(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUserFlow(t *testing.T) {
	h := newHarness(t)
	aliceID, token := h.signup("alice", "Secret123!")

	t.Run("login response carries no secrets", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/v1/users/authenticate", "", credentialsRequest{
			Username: "alice", Password: "Secret123!",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "salt")
	})

	t.Run("wrong password and unknown user look identical", func(t *testing.T) {
		wrong := h.do(http.MethodPost, "/api/v1/users/authenticate", "", credentialsRequest{
			Username: "alice", Password: "nope",
		})
		unknown := h.do(http.MethodPost, "/api/v1/users/authenticate", "", credentialsRequest{
			Username: "bob", Password: "x",
		})
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
		assert.JSONEq(t, `{"error":"invalid credentials","code":"UNAUTHENTICATED"}`, wrong.Body.String())
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/v1/users", "", chat.CreateUserRequest{
			Username: "alice", Email: "other@example.com", Password: "pw",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decodeInto[errorBody](t, rec)
		assert.Equal(t, chat.CodeDuplicateKey, body.Code)
		assert.Equal(t, "username", body.Field)
	})

	t.Run("validation failure is a bad request", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/v1/users", "", chat.CreateUserRequest{
			Username: "carol", Email: "no-at-sign", Password: "pw",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeInto[errorBody](t, rec)
		assert.Equal(t, chat.CodeValidationFailure, body.Code)
		assert.Equal(t, "email", body.Field)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list and get need a token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/v1/users", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/v1/users", "garbage", nil).Code)

		rec := h.do(http.MethodGet, "/api/v1/users", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":1`)

		rec = h.do(http.MethodGet, "/api/v1/users/"+aliceID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", decodeInto[chat.UserProfile](t, rec).Username)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/v1/users/00000000-0000-0000-0000-000000000001", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update own profile", func(t *testing.T) {
		first := "Alice"
		rec := h.do(http.MethodPatch, "/api/v1/users/me", token, chat.UpdateProfileRequest{FirstName: &first})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Alice", decodeInto[chat.UserProfile](t, rec).FirstName)
	})
}

func TestRoomFlow(t *testing.T) {
	h := newHarness(t)
	aliceID, token := h.signup("alice", "Secret123!")

	rec := h.do(http.MethodPost, "/api/v1/rooms", token, chat.CreateRoomRequest{
		Title: "General", Password: "pw", Capacity: 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	room := decodeInto[chat.CreateRoomResponse](t, rec)
	assert.Equal(t, aliceID, room.CreatedBy)

	base := "/api/v1/rooms/" + room.ID

	t.Run("room password", func(t *testing.T) {
		ok := h.do(http.MethodPost, base+"/authenticate", token, roomPasswordRequest{Password: "pw"})
		assert.Equal(t, http.StatusOK, ok.Code)

		bad := h.do(http.MethodPost, base+"/authenticate", token, roomPasswordRequest{Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, bad.Code)
	})

	t.Run("join respects capacity and membership", func(t *testing.T) {
		_, bobToken := h.signup("bob", "Secret456!")

		first := h.do(http.MethodPost, base+"/join", token, roomPasswordRequest{Password: "pw"})
		require.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, 1, decodeInto[chat.RoomProfile](t, first).TotalUsers)

		again := h.do(http.MethodPost, base+"/join", token, roomPasswordRequest{Password: "pw"})
		require.Equal(t, http.StatusOK, again.Code)
		assert.Equal(t, 1, decodeInto[chat.RoomProfile](t, again).TotalUsers)

		full := h.do(http.MethodPost, base+"/join", bobToken, roomPasswordRequest{Password: "pw"})
		assert.Equal(t, http.StatusConflict, full.Code)
		assert.Equal(t, chat.CodeRoomFull, decodeInto[errorBody](t, full).Code)

		stranger := h.do(http.MethodPost, base+"/leave", bobToken, nil)
		assert.Equal(t, http.StatusConflict, stranger.Code)
		assert.Equal(t, chat.CodeNotMember, decodeInto[errorBody](t, stranger).Code)

		left := h.do(http.MethodPost, base+"/leave", token, nil)
		require.Equal(t, http.StatusOK, left.Code)
		assert.Zero(t, decodeInto[chat.RoomProfile](t, left).TotalUsers)
	})

	t.Run("messages are authored by the caller", func(t *testing.T) {
		rec := h.do(http.MethodPost, base+"/messages", token, chat.CreateMessageRequest{Message: "hello"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, aliceID, decodeInto[chat.MessageProfile](t, rec).UserID)

		rec = h.do(http.MethodGet, base+"/messages", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"message":"hello"`)
	})

	t.Run("duplicate title", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/v1/rooms", token, chat.CreateRoomRequest{Title: "General", Password: "x"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("list rooms", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/v1/rooms", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"title":"General"`)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

// failingService fails every list call with the configured error.
type failingService struct {
	ChatService
	err error
}

func (f failingService) ListRooms(context.Context) ([]chat.RoomProfile, error) {
	return nil, f.err
}

func TestServerErrorsAreLoggedAndHidden(t *testing.T) {
	tokens, err := auth.NewJWTIssuer([]byte("api-test-secret-api-test-secret!"), time.Hour)
	require.NoError(t, err)
	token, err := tokens.Issue(context.Background(), auth.TokenSubject{UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "persistence failure",
			err:      oops.Code(chat.CodePersistenceFailure).With("operation", "list rooms").Errorf("db down: secret dsn"),
			wantCode: chat.CodePersistenceFailure,
		},
		{
			name:     "uncoded error",
			err:      errors.New("unexpected: secret dsn"),
			wantCode: chat.CodePersistenceFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarnessWith(t, failingService{err: tt.err}, tokens)

			rec := h.do(http.MethodGet, "/api/v1/rooms", token, nil)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeInto[errorBody](t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotContains(t, rec.Body.String(), "secret dsn")
			assert.Contains(t, h.logs.String(), "request failed")
			assert.Contains(t, h.logs.String(), "secret dsn")
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		chat.CodeUnauthenticated:    http.StatusUnauthorized,
		chat.CodeDuplicateKey:       http.StatusConflict,
		chat.CodePersistenceFailure: http.StatusInternalServerError,
		chat.CodeValidationFailure:  http.StatusBadRequest,
		chat.CodeNotFound:           http.StatusNotFound,
		chat.CodeRoomFull:           http.StatusConflict,
		chat.CodeNotMember:          http.StatusConflict,
		"":                          http.StatusInternalServerError,
		"SOMETHING_ELSE":            http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusFor(code), code)
	}
}

func TestMiddleware(t *testing.T) {
	h := newHarness(t)

	t.Run("request id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	})

	t.Run("request id is generated", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/health", "", nil)
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	})

	t.Run("metrics use the route pattern", func(t *testing.T) {
		h.do(http.MethodGet, "/api/v1/users/some-id", "", nil)
		h.do(http.MethodGet, "/nowhere", "", nil)

		require.GreaterOrEqual(t, len(h.metrics.routes), 2)
		n := len(h.metrics.routes)
		assert.Equal(t, "/api/v1/users/:id", h.metrics.routes[n-2])
		assert.Equal(t, http.StatusUnauthorized, h.metrics.statuses[n-2])
		assert.Equal(t, "unmatched", h.metrics.routes[n-1])
	})

	t.Run("access log carries the request id", func(t *testing.T) {
		h.logs.Reset()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(requestIDHeader, "log-me")
		h.router.ServeHTTP(httptest.NewRecorder(), req)
		assert.Contains(t, h.logs.String(), `"msg":"http request"`)
		assert.Contains(t, h.logs.String(), `"route":"/health"`)
		assert.Contains(t, h.logs.String(), `"request_id":"log-me"`)
	})
}
