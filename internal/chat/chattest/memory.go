// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package chattest provides an in-memory chat store for tests.
package chattest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/holomush/chatroom/internal/chat"
)

// Store holds users, rooms and messages in memory and enforces the same
// uniqueness and reference rules as the SQL schema.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]chat.User
	rooms    map[uuid.UUID]chat.Room
	members  map[uuid.UUID]map[uuid.UUID]time.Time
	messages []chat.Message
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:   make(map[uuid.UUID]chat.User),
		rooms:   make(map[uuid.UUID]chat.Room),
		members: make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

// Users returns the store's UserRepository.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Rooms returns the store's RoomRepository.
func (s *Store) Rooms() *RoomRepo { return &RoomRepo{s: s} }

// Messages returns the store's MessageRepository.
func (s *Store) Messages() *MessageRepo { return &MessageRepo{s: s} }

// User returns a copy of the stored user, for assertions.
func (s *Store) User(id uuid.UUID) (chat.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// IsMember reports whether userID has joined the room, for assertions.
func (s *Store) IsMember(roomID, userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[roomID][userID]
	return ok
}

// UserRepo implements chat.UserRepository.
type UserRepo struct{ s *Store }

// Create inserts a user.
func (r *UserRepo) Create(_ context.Context, user *chat.User) (*chat.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, oops.With("field", "username").Wrap(chat.ErrDuplicateKey)
		}
		if u.Email == user.Email {
			return nil, oops.With("field", "email").Wrap(chat.ErrDuplicateKey)
		}
	}
	stored := cloneUser(*user)
	r.s.users[user.ID] = stored
	out := cloneUser(stored)
	return &out, nil
}

// GetByID returns a user by ID.
func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*chat.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, oops.With("user_id", id.String()).Wrap(chat.ErrNotFound)
	}
	out := cloneUser(u)
	return &out, nil
}

// GetByUsername returns a user by exact username.
func (r *UserRepo) GetByUsername(_ context.Context, username string) (*chat.User, error) {
	return r.find(func(u chat.User) bool { return u.Username == username })
}

// GetByEmail returns a user by email.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*chat.User, error) {
	return r.find(func(u chat.User) bool { return u.Email == email })
}

func (r *UserRepo) find(match func(chat.User) bool) (*chat.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, chat.ErrNotFound
}

// List returns users ordered by creation time.
func (r *UserRepo) List(_ context.Context) ([]*chat.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*chat.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		c := cloneUser(u)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update writes profile fields.
func (r *UserRepo) Update(_ context.Context, user *chat.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[user.ID]
	if !ok {
		return chat.ErrNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && u.Email == user.Email {
			return oops.With("field", "email").Wrap(chat.ErrDuplicateKey)
		}
	}
	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.ModifiedAt = user.ModifiedAt
	r.s.users[user.ID] = stored
	return nil
}

// IncrementFailedLogins adds one to the failure counter.
func (r *UserRepo) IncrementFailedLogins(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return chat.ErrNotFound
	}
	u.FailedLoginAttempts++
	r.s.users[id] = u
	return nil
}

// RecordLogin sets last_login and clears the failure counter.
func (r *UserRepo) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return chat.ErrNotFound
	}
	u.LastLogin = &at
	u.FailedLoginAttempts = 0
	r.s.users[id] = u
	return nil
}

// RoomRepo implements chat.RoomRepository.
type RoomRepo struct{ s *Store }

// Create inserts a room.
func (r *RoomRepo) Create(_ context.Context, room *chat.Room) (*chat.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.rooms {
		if existing.Title == room.Title {
			return nil, oops.With("field", "title").Wrap(chat.ErrDuplicateKey)
		}
	}
	if room.CreatedBy != nil {
		if _, ok := r.s.users[*room.CreatedBy]; !ok {
			return nil, oops.With("field", "created_by").Wrap(chat.ErrInvalidReference)
		}
	}
	stored := *room
	r.s.rooms[room.ID] = stored
	out := stored
	return &out, nil
}

// GetByID returns a room by ID.
func (r *RoomRepo) GetByID(_ context.Context, id uuid.UUID) (*chat.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, oops.With("room_id", id.String()).Wrap(chat.ErrNotFound)
	}
	return &room, nil
}

// GetByTitle returns a room by title.
func (r *RoomRepo) GetByTitle(_ context.Context, title string) (*chat.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, room := range r.s.rooms {
		if room.Title == title {
			out := room
			return &out, nil
		}
	}
	return nil, chat.ErrNotFound
}

// List returns rooms ordered by title.
func (r *RoomRepo) List(_ context.Context) ([]*chat.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*chat.Room, 0, len(r.s.rooms))
	for _, room := range r.s.rooms {
		c := room
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// AddMember records a membership and takes a seat for it.
func (r *RoomRepo) AddMember(_ context.Context, roomID, userID uuid.UUID, at time.Time) (int, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[roomID]
	if !ok {
		return 0, false, chat.ErrNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return 0, false, oops.With("field", "user_id").Wrap(chat.ErrInvalidReference)
	}
	if _, ok := r.s.members[roomID][userID]; ok {
		return room.TotalUsers, false, nil
	}
	if !room.HasCapacity() {
		return room.TotalUsers, false, chat.ErrRoomFull
	}
	if r.s.members[roomID] == nil {
		r.s.members[roomID] = make(map[uuid.UUID]time.Time)
	}
	r.s.members[roomID][userID] = at
	room.TotalUsers++
	r.s.rooms[roomID] = room
	return room.TotalUsers, true, nil
}

// RemoveMember deletes a membership and releases its seat.
func (r *RoomRepo) RemoveMember(_ context.Context, roomID, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[roomID]
	if !ok {
		return 0, chat.ErrNotFound
	}
	if _, ok := r.s.members[roomID][userID]; !ok {
		return room.TotalUsers, chat.ErrNotMember
	}
	delete(r.s.members[roomID], userID)
	if room.TotalUsers > 0 {
		room.TotalUsers--
	}
	r.s.rooms[roomID] = room
	return room.TotalUsers, nil
}

// MessageRepo implements chat.MessageRepository.
type MessageRepo struct{ s *Store }

// Create appends a message.
func (r *MessageRepo) Create(_ context.Context, msg *chat.Message) (*chat.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[msg.UserID]; !ok {
		return nil, oops.With("field", "user_id").Wrap(chat.ErrInvalidReference)
	}
	if _, ok := r.s.rooms[msg.RoomID]; !ok {
		return nil, oops.With("field", "room_id").Wrap(chat.ErrInvalidReference)
	}
	r.s.messages = append(r.s.messages, *msg)
	out := *msg
	return &out, nil
}

// ListByRoom returns a room's messages in ID order.
func (r *MessageRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]*chat.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*chat.Message
	for _, m := range r.s.messages {
		if m.RoomID == roomID {
			c := m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out, nil
}

func cloneUser(u chat.User) chat.User {
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	u.PasswordSalt = append([]byte(nil), u.PasswordSalt...)
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}

// Compile-time interface checks.
var (
	_ chat.UserRepository    = (*UserRepo)(nil)
	_ chat.RoomRepository    = (*RoomRepo)(nil)
	_ chat.MessageRepository = (*MessageRepo)(nil)
)
