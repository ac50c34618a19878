// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/holomush/chatroom/internal/chat"
)

type handlers struct {
	svc    ChatService
	logger *slog.Logger
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type roomPasswordRequest struct {
	Password string `json:"password"`
}

// createUser handles POST /api/v1/users.
func (h *handlers) createUser(c *gin.Context) {
	var req chat.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resp, err := h.svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// authenticate handles POST /api/v1/users/authenticate.
func (h *handlers) authenticate(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resp, err := h.svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listUsers handles GET /api/v1/users.
func (h *handlers) listUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "count": len(users)})
}

// getUser handles GET /api/v1/users/:id.
func (h *handlers) getUser(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateProfile handles PATCH /api/v1/users/me.
func (h *handlers) updateProfile(c *gin.Context) {
	var req chat.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), subject(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// createRoom handles POST /api/v1/rooms. The caller becomes the creator.
func (h *handlers) createRoom(c *gin.Context) {
	var req chat.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resp, err := h.svc.CreateRoom(c.Request.Context(), req, subject(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// listRooms handles GET /api/v1/rooms.
func (h *handlers) listRooms(c *gin.Context) {
	rooms, err := h.svc.ListRooms(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms, "count": len(rooms)})
}

// authenticateRoom handles POST /api/v1/rooms/:id/authenticate.
func (h *handlers) authenticateRoom(c *gin.Context) {
	var req roomPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	room, err := h.svc.AuthenticateRoom(c.Request.Context(), req.Password, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// joinRoom handles POST /api/v1/rooms/:id/join. The caller becomes a member.
func (h *handlers) joinRoom(c *gin.Context) {
	var req roomPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	room, err := h.svc.JoinRoom(c.Request.Context(), subject(c), req.Password, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// leaveRoom handles POST /api/v1/rooms/:id/leave. Only members may leave.
func (h *handlers) leaveRoom(c *gin.Context) {
	room, err := h.svc.LeaveRoom(c.Request.Context(), subject(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// createMessage handles POST /api/v1/rooms/:id/messages. The caller is the author.
func (h *handlers) createMessage(c *gin.Context) {
	var req chat.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	msg, err := h.svc.CreateMessage(c.Request.Context(), req, subject(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// listMessages handles GET /api/v1/rooms/:id/messages.
func (h *handlers) listMessages(c *gin.Context) {
	msgs, err := h.svc.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs, "count": len(msgs)})
}
