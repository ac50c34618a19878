// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/chatroom/internal/auth"
)

// Authentication metric labels.
const (
	AuthKindUser = "user"
	AuthKindRoom = "room"

	AuthOutcomeSuccess  = "success"
	AuthOutcomeRejected = "rejected"
	AuthOutcomeError    = "error"
)

// AuthRecorder observes authentication attempts.
type AuthRecorder interface {
	RecordAuth(kind, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, string) {}

// dummyHash and dummySalt stand in for the credentials of principals that do
// not exist so verification work is still performed. No password derives an
// all-zero key.
var (
	dummyHash = make([]byte, 32)
	dummySalt = make([]byte, 16)
)

// Deps are the collaborators of a Service.
type Deps struct {
	Users    UserRepository
	Rooms    RoomRepository
	Messages MessageRepository
	Hasher   auth.PasswordHasher
	Tokens   auth.TokenIssuer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics is optional.
	Metrics AuthRecorder
}

// Service implements account, room and message operations.
type Service struct {
	users    UserRepository
	rooms    RoomRepository
	messages MessageRepository
	hasher   auth.PasswordHasher
	tokens   auth.TokenIssuer
	logger   *slog.Logger
	metrics  AuthRecorder
	now      func() time.Time
}

// NewService creates a Service. All repositories, the hasher and the token issuer are required.
func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Users == nil:
		return nil, oops.Errorf("user repository is required")
	case deps.Rooms == nil:
		return nil, oops.Errorf("room repository is required")
	case deps.Messages == nil:
		return nil, oops.Errorf("message repository is required")
	case deps.Hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case deps.Tokens == nil:
		return nil, oops.Errorf("token issuer is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var metrics AuthRecorder = nopRecorder{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}

	return &Service{
		users:    deps.Users,
		rooms:    deps.Rooms,
		messages: deps.Messages,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}, nil
}

// Authenticate verifies a username and password and issues a session token.
//
// Unknown usernames, wrong passwords and inactive accounts all fail with the
// same UNAUTHENTICATED error. Lookup failures other than not-found are
// reported as PERSISTENCE_FAILURE.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*AuthenticateResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.Verify(password, dummyHash, dummySalt)
			s.metrics.RecordAuth(AuthKindUser, AuthOutcomeRejected)
			return nil, errUnauthenticated()
		}
		s.metrics.RecordAuth(AuthKindUser, AuthOutcomeError)
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "get user by username").
			Wrap(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash, user.PasswordSalt) {
		if user.IsActive {
			if err := s.users.IncrementFailedLogins(ctx, user.ID); err != nil {
				s.logger.WarnContext(ctx, "failed to record login failure",
					"event", "login_failure_record_failed",
					"operation", "increment failed logins",
					"user_id", user.ID.String(),
					"error", err.Error())
			}
		}
		s.metrics.RecordAuth(AuthKindUser, AuthOutcomeRejected)
		return nil, errUnauthenticated()
	}

	if !user.IsActive {
		s.metrics.RecordAuth(AuthKindUser, AuthOutcomeRejected)
		return nil, errUnauthenticated()
	}

	now := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record successful login",
			"event", "login_success_record_failed",
			"operation", "record login",
			"user_id", user.ID.String(),
			"error", err.Error())
	} else {
		user.LastLogin = &now
		user.FailedLoginAttempts = 0
	}

	token, err := s.tokens.Issue(ctx, auth.TokenSubject{
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		s.metrics.RecordAuth(AuthKindUser, AuthOutcomeError)
		return nil, oops.With("operation", "issue token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.metrics.RecordAuth(AuthKindUser, AuthOutcomeSuccess)
	s.logger.InfoContext(ctx, "user authenticated", "user_id", user.ID.String())
	resp := ToAuthenticateResponse(user, token)
	return &resp, nil
}

// AuthenticateRoom verifies a room password. The room is named by its ID or,
// when roomKey is not a UUID, by its title. Unknown rooms fail exactly like a
// wrong password.
func (s *Service) AuthenticateRoom(ctx context.Context, password, roomKey string) (*RoomProfile, error) {
	room, err := s.authenticateRoom(ctx, password, roomKey)
	if err != nil {
		return nil, err
	}
	profile := ToRoomProfile(room)
	return &profile, nil
}

func (s *Service) authenticateRoom(ctx context.Context, password, roomKey string) (*Room, error) {
	var (
		room *Room
		err  error
		by   = "id"
	)
	if id, parseErr := uuid.Parse(roomKey); parseErr == nil {
		room, err = s.rooms.GetByID(ctx, id)
	} else {
		by = "title"
		room, err = s.rooms.GetByTitle(ctx, roomKey)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.Verify(password, dummyHash, dummySalt)
			s.metrics.RecordAuth(AuthKindRoom, AuthOutcomeRejected)
			return nil, errUnauthenticated()
		}
		s.metrics.RecordAuth(AuthKindRoom, AuthOutcomeError)
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "get room by "+by).
			With("room", roomKey).
			Wrap(err)
	}

	if !s.hasher.Verify(password, room.PasswordHash, room.PasswordSalt) {
		s.metrics.RecordAuth(AuthKindRoom, AuthOutcomeRejected)
		return nil, errUnauthenticated()
	}

	s.metrics.RecordAuth(AuthKindRoom, AuthOutcomeSuccess)
	return room, nil
}

// CreateUser registers a new active user.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, salt, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, oops.With("operation", "hash password").Wrap(err)
	}

	role := req.Role
	if role == "" {
		role = DefaultRole
	}
	now := s.now()
	user := &User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, oops.Code(CodeDuplicateKey).Wrap(err)
		}
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "create user").
			Wrap(err)
	}
	if created == nil {
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "create user").
			Errorf("store returned no user")
	}

	s.logger.InfoContext(ctx, "user created", "user_id", created.ID.String())
	resp := ToCreateUserResponse(created)
	return &resp, nil
}

// CreateRoom creates a password-protected room. An empty creatorID leaves the
// room without a creator.
func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest, creatorID string) (*CreateRoomResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var createdBy *uuid.UUID
	if creatorID != "" {
		id, err := uuid.Parse(creatorID)
		if err != nil {
			return nil, oops.Code(CodeValidationFailure).
				With("field", "created_by").
				Wrap(err)
		}
		createdBy = &id
	}

	hash, salt, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, oops.With("operation", "hash password").Wrap(err)
	}

	room := &Room{
		ID:           uuid.New(),
		Title:        req.Title,
		Capacity:     req.Capacity,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedBy:    createdBy,
		CreatedAt:    s.now(),
	}

	created, err := s.rooms.Create(ctx, room)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateKey):
			return nil, oops.Code(CodeDuplicateKey).
				With("title", req.Title).
				Wrap(err)
		case errors.Is(err, ErrInvalidReference):
			return nil, oops.Code(CodeValidationFailure).
				With("field", "created_by").
				Wrap(err)
		}
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "create room").
			Wrap(err)
	}
	if created == nil {
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "create room").
			Errorf("store returned no room")
	}

	s.logger.InfoContext(ctx, "room created", "room_id", created.ID.String())
	resp := ToCreateRoomResponse(created)
	return &resp, nil
}

// CreateMessage appends a message to a room's history.
func (s *Service) CreateMessage(ctx context.Context, req CreateMessageRequest, userID, roomID string) (*MessageProfile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, oops.Code(CodeValidationFailure).With("field", "user_id").Wrap(err)
	}
	rid, err := uuid.Parse(roomID)
	if err != nil {
		return nil, oops.Code(CodeValidationFailure).With("field", "room_id").Wrap(err)
	}

	now := s.now()
	msg := &Message{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Message:   req.Message,
		UserID:    uid,
		RoomID:    rid,
		CreatedAt: now,
	}

	created, err := s.messages.Create(ctx, msg)
	if err != nil {
		if errors.Is(err, ErrInvalidReference) {
			return nil, oops.Code(CodeValidationFailure).
				With("user_id", userID).
				With("room_id", roomID).
				Wrap(err)
		}
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "create message").
			Wrap(err)
	}
	if created == nil {
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "create message").
			Errorf("store returned no message")
	}

	profile := ToMessageProfile(created)
	return &profile, nil
}

// GetUser returns a user's public profile.
func (s *Service) GetUser(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := ToUserProfile(user)
	return &profile, nil
}

// ListUsers returns every user's public profile in creation order.
func (s *Service) ListUsers(ctx context.Context) ([]UserProfile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, oops.Code(CodePersistenceFailure).With("operation", "list users").Wrap(err)
	}
	return ToUserProfiles(users), nil
}

// ListRooms returns every room's public profile ordered by title.
func (s *Service) ListRooms(ctx context.Context) ([]RoomProfile, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, oops.Code(CodePersistenceFailure).With("operation", "list rooms").Wrap(err)
	}
	return ToRoomProfiles(rooms), nil
}

// ListMessages returns a room's history in creation order.
func (s *Service) ListMessages(ctx context.Context, roomID string) ([]MessageProfile, error) {
	room, err := s.lookupRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "list messages").
			With("room_id", roomID).
			Wrap(err)
	}
	return ToMessageProfiles(msgs), nil
}

// JoinRoom authenticates against the room and makes userID a member, taking
// one seat. Joining a room the user is already in changes nothing.
func (s *Service) JoinRoom(ctx context.Context, userID, password, roomKey string) (*RoomProfile, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errUnauthenticated()
	}

	room, err := s.authenticateRoom(ctx, password, roomKey)
	if err != nil {
		return nil, err
	}

	total, joined, err := s.rooms.AddMember(ctx, room.ID, uid, s.now())
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomFull):
			return nil, oops.Code(CodeRoomFull).
				With("room_id", room.ID.String()).
				With("capacity", room.Capacity).
				Wrap(err)
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidReference):
			return nil, oops.Code(CodeNotFound).
				With("room_id", room.ID.String()).
				With("user_id", userID).
				Wrap(err)
		}
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "join room").
			With("room_id", room.ID.String()).
			Wrap(err)
	}

	if joined {
		s.logger.InfoContext(ctx, "user joined room",
			"user_id", userID,
			"room_id", room.ID.String(),
			"total_users", total)
	}
	room.TotalUsers = total
	profile := ToRoomProfile(room)
	return &profile, nil
}

// LeaveRoom ends userID's membership of a room and releases its seat.
// Users who have not joined the room get NOT_MEMBER.
func (s *Service) LeaveRoom(ctx context.Context, userID, roomID string) (*RoomProfile, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errUnauthenticated()
	}

	room, err := s.lookupRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	total, err := s.rooms.RemoveMember(ctx, room.ID, uid)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotMember):
			return nil, oops.Code(CodeNotMember).
				With("room_id", roomID).
				With("user_id", userID).
				Wrap(err)
		case errors.Is(err, ErrNotFound):
			return nil, oops.Code(CodeNotFound).With("room_id", roomID).Wrap(err)
		}
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "leave room").
			With("room_id", roomID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user left room",
		"user_id", userID,
		"room_id", roomID,
		"total_users", total)
	room.TotalUsers = total
	profile := ToRoomProfile(room)
	return &profile, nil
}

// UpdateProfile changes a user's email and names.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*UserProfile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	user.ModifiedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateKey):
			return nil, oops.Code(CodeDuplicateKey).With("user_id", userID).Wrap(err)
		case errors.Is(err, ErrNotFound):
			return nil, oops.Code(CodeNotFound).With("user_id", userID).Wrap(err)
		}
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "update user").
			With("user_id", userID).
			Wrap(err)
	}

	profile := ToUserProfile(user)
	return &profile, nil
}

func (s *Service) lookupUser(ctx context.Context, userID string) (*User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, oops.Code(CodeNotFound).With("user_id", userID).Errorf("user not found")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeNotFound).With("user_id", userID).Wrap(err)
		}
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "get user by id").
			With("user_id", userID).
			Wrap(err)
	}
	return user, nil
}

func (s *Service) lookupRoom(ctx context.Context, roomID string) (*Room, error) {
	id, err := uuid.Parse(roomID)
	if err != nil {
		return nil, oops.Code(CodeNotFound).With("room_id", roomID).Errorf("room not found")
	}
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeNotFound).With("room_id", roomID).Wrap(err)
		}
		return nil, oops.Code(CodePersistenceFailure).
			With("operation", "get room by id").
			With("room_id", roomID).
			Wrap(err)
	}
	return room, nil
}
