// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package api exposes the chat service over HTTP with gin.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/holomush/chatroom/internal/auth"
	"github.com/holomush/chatroom/internal/chat"
)

// ChatService is the subset of chat.Service served over HTTP.
type ChatService interface {
	Authenticate(ctx context.Context, username, password string) (*chat.AuthenticateResponse, error)
	AuthenticateRoom(ctx context.Context, password, roomID string) (*chat.RoomProfile, error)
	CreateUser(ctx context.Context, req chat.CreateUserRequest) (*chat.CreateUserResponse, error)
	CreateRoom(ctx context.Context, req chat.CreateRoomRequest, creatorID string) (*chat.CreateRoomResponse, error)
	CreateMessage(ctx context.Context, req chat.CreateMessageRequest, userID, roomID string) (*chat.MessageProfile, error)
	GetUser(ctx context.Context, userID string) (*chat.UserProfile, error)
	ListUsers(ctx context.Context) ([]chat.UserProfile, error)
	ListRooms(ctx context.Context) ([]chat.RoomProfile, error)
	ListMessages(ctx context.Context, roomID string) ([]chat.MessageProfile, error)
	JoinRoom(ctx context.Context, userID, password, roomID string) (*chat.RoomProfile, error)
	LeaveRoom(ctx context.Context, userID, roomID string) (*chat.RoomProfile, error)
	UpdateProfile(ctx context.Context, userID string, req chat.UpdateProfileRequest) (*chat.UserProfile, error)
}

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RequestRecorder observes completed HTTP requests.
type RequestRecorder interface {
	RecordRequest(method, route string, status int, elapsed time.Duration)
}

// Config holds the router dependencies.
type Config struct {
	Service ChatService
	Tokens  TokenParser
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics is optional.
	Metrics RequestRecorder
}

// NewRouter builds the gin engine serving /api/v1 and /health.
func NewRouter(cfg Config) (*gin.Engine, error) {
	if cfg.Service == nil {
		return nil, oops.Errorf("chat service is required")
	}
	if cfg.Tokens == nil {
		return nil, oops.Errorf("token parser is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{svc: cfg.Service, logger: logger}

	r := gin.New()
	r.Use(
		requestID(),
		accessLog(logger),
		recordMetrics(cfg.Metrics),
		gin.CustomRecovery(recoverPanic(logger)),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/users", h.createUser)
		v1.POST("/users/authenticate", h.authenticate)
	}

	authed := v1.Group("", bearerAuth(cfg.Tokens))
	{
		users := authed.Group("/users")
		users.GET("", h.listUsers)
		users.PATCH("/me", h.updateProfile)
		users.GET("/:id", h.getUser)

		rooms := authed.Group("/rooms")
		rooms.POST("", h.createRoom)
		rooms.GET("", h.listRooms)
		rooms.POST("/:id/authenticate", h.authenticateRoom)
		rooms.POST("/:id/join", h.joinRoom)
		rooms.POST("/:id/leave", h.leaveRoom)
		rooms.POST("/:id/messages", h.createMessage)
		rooms.GET("/:id/messages", h.listMessages)
	}

	return r, nil
}
