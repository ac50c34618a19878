// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the internal/chat repositories.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/chatroom/internal/chat"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockUserRepository is a mock chat.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose expectations are
// asserted when the test ends.
func NewMockUserRepository(t testingT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockUserRepository) Create(ctx context.Context, user *chat.User) (*chat.User, error) {
	ret := m.Called(ctx, user)
	u, _ := ret.Get(0).(*chat.User)
	return u, ret.Error(1)
}

// GetByID provides a mock function.
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*chat.User, error) {
	ret := m.Called(ctx, id)
	u, _ := ret.Get(0).(*chat.User)
	return u, ret.Error(1)
}

// GetByUsername provides a mock function.
func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*chat.User, error) {
	ret := m.Called(ctx, username)
	u, _ := ret.Get(0).(*chat.User)
	return u, ret.Error(1)
}

// GetByEmail provides a mock function.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*chat.User, error) {
	ret := m.Called(ctx, email)
	u, _ := ret.Get(0).(*chat.User)
	return u, ret.Error(1)
}

// List provides a mock function.
func (m *MockUserRepository) List(ctx context.Context) ([]*chat.User, error) {
	ret := m.Called(ctx)
	users, _ := ret.Get(0).([]*chat.User)
	return users, ret.Error(1)
}

// Update provides a mock function.
func (m *MockUserRepository) Update(ctx context.Context, user *chat.User) error {
	return m.Called(ctx, user).Error(0)
}

// IncrementFailedLogins provides a mock function.
func (m *MockUserRepository) IncrementFailedLogins(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// RecordLogin provides a mock function.
func (m *MockUserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

// MockRoomRepository is a mock chat.RoomRepository.
type MockRoomRepository struct {
	mock.Mock
}

// NewMockRoomRepository creates a MockRoomRepository whose expectations are
// asserted when the test ends.
func NewMockRoomRepository(t testingT) *MockRoomRepository {
	m := &MockRoomRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockRoomRepository) Create(ctx context.Context, room *chat.Room) (*chat.Room, error) {
	ret := m.Called(ctx, room)
	r, _ := ret.Get(0).(*chat.Room)
	return r, ret.Error(1)
}

// GetByID provides a mock function.
func (m *MockRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*chat.Room, error) {
	ret := m.Called(ctx, id)
	r, _ := ret.Get(0).(*chat.Room)
	return r, ret.Error(1)
}

// GetByTitle provides a mock function.
func (m *MockRoomRepository) GetByTitle(ctx context.Context, title string) (*chat.Room, error) {
	ret := m.Called(ctx, title)
	r, _ := ret.Get(0).(*chat.Room)
	return r, ret.Error(1)
}

// List provides a mock function.
func (m *MockRoomRepository) List(ctx context.Context) ([]*chat.Room, error) {
	ret := m.Called(ctx)
	rooms, _ := ret.Get(0).([]*chat.Room)
	return rooms, ret.Error(1)
}

// AddMember provides a mock function.
func (m *MockRoomRepository) AddMember(ctx context.Context, roomID, userID uuid.UUID, at time.Time) (int, bool, error) {
	ret := m.Called(ctx, roomID, userID, at)
	return ret.Int(0), ret.Bool(1), ret.Error(2)
}

// RemoveMember provides a mock function.
func (m *MockRoomRepository) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	ret := m.Called(ctx, roomID, userID)
	return ret.Int(0), ret.Error(1)
}

// MockMessageRepository is a mock chat.MessageRepository.
type MockMessageRepository struct {
	mock.Mock
}

// NewMockMessageRepository creates a MockMessageRepository whose expectations
// are asserted when the test ends.
func NewMockMessageRepository(t testingT) *MockMessageRepository {
	m := &MockMessageRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockMessageRepository) Create(ctx context.Context, msg *chat.Message) (*chat.Message, error) {
	ret := m.Called(ctx, msg)
	out, _ := ret.Get(0).(*chat.Message)
	return out, ret.Error(1)
}

// ListByRoom provides a mock function.
func (m *MockMessageRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*chat.Message, error) {
	ret := m.Called(ctx, roomID)
	msgs, _ := ret.Get(0).([]*chat.Message)
	return msgs, ret.Error(1)
}

var (
	_ chat.UserRepository    = (*MockUserRepository)(nil)
	_ chat.RoomRepository    = (*MockRoomRepository)(nil)
	_ chat.MessageRepository = (*MockMessageRepository)(nil)
)
