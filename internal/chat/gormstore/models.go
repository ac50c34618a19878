// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gormstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/holomush/chatroom/internal/chat"
)

type userModel struct {
	ID                  uuid.UUID `gorm:"primaryKey;type:uuid"`
	Username            string    `gorm:"size:255;not null"`
	Email               string    `gorm:"size:255;not null"`
	FirstName           *string   `gorm:"size:255"`
	LastName            *string   `gorm:"size:255"`
	PasswordHash        []byte    `gorm:"type:bytea;not null"`
	PasswordSalt        []byte    `gorm:"type:bytea;not null"`
	Role                string    `gorm:"size:50;not null"`
	IsActive            bool      `gorm:"not null"`
	FailedLoginAttempts int       `gorm:"not null"`
	LastLogin           *time.Time
	CreatedAt           time.Time
	ModifiedAt          time.Time
}

func (userModel) TableName() string { return "users" }

func (m *userModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.ModifiedAt.IsZero() {
		m.ModifiedAt = m.CreatedAt
	}
	return nil
}

type roomModel struct {
	ID           uuid.UUID  `gorm:"primaryKey;type:uuid"`
	Title        string     `gorm:"size:255;not null"`
	Capacity     int        `gorm:"not null"`
	TotalUsers   int        `gorm:"not null"`
	PasswordHash []byte     `gorm:"type:bytea;not null"`
	PasswordSalt []byte     `gorm:"type:bytea;not null"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

func (roomModel) TableName() string { return "chatrooms" }

func (m *roomModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

type memberModel struct {
	RoomID   uuid.UUID `gorm:"primaryKey;type:uuid"`
	UserID   uuid.UUID `gorm:"primaryKey;type:uuid"`
	JoinedAt time.Time `gorm:"not null"`
}

func (memberModel) TableName() string { return "room_members" }

type messageModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)"`
	Message   string    `gorm:"not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

func (messageModel) TableName() string { return "chat_history" }

func (m *messageModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fromUser(u *chat.User) *userModel {
	return &userModel{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		FirstName:           optional(u.FirstName),
		LastName:            optional(u.LastName),
		PasswordHash:        u.PasswordHash,
		PasswordSalt:        u.PasswordSalt,
		Role:                u.Role,
		IsActive:            u.IsActive,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LastLogin:           u.LastLogin,
		CreatedAt:           u.CreatedAt,
		ModifiedAt:          u.ModifiedAt,
	}
}

func (m *userModel) toUser() *chat.User {
	return &chat.User{
		ID:                  m.ID,
		Username:            m.Username,
		Email:               m.Email,
		FirstName:           deref(m.FirstName),
		LastName:            deref(m.LastName),
		PasswordHash:        m.PasswordHash,
		PasswordSalt:        m.PasswordSalt,
		Role:                m.Role,
		IsActive:            m.IsActive,
		FailedLoginAttempts: m.FailedLoginAttempts,
		LastLogin:           m.LastLogin,
		CreatedAt:           m.CreatedAt,
		ModifiedAt:          m.ModifiedAt,
	}
}

func fromRoom(r *chat.Room) *roomModel {
	return &roomModel{
		ID:           r.ID,
		Title:        r.Title,
		Capacity:     r.Capacity,
		TotalUsers:   r.TotalUsers,
		PasswordHash: r.PasswordHash,
		PasswordSalt: r.PasswordSalt,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
	}
}

func (m *roomModel) toRoom() *chat.Room {
	return &chat.Room{
		ID:           m.ID,
		Title:        m.Title,
		Capacity:     m.Capacity,
		TotalUsers:   m.TotalUsers,
		PasswordHash: m.PasswordHash,
		PasswordSalt: m.PasswordSalt,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

func fromMessage(msg *chat.Message) *messageModel {
	m := &messageModel{
		Message:   msg.Message,
		UserID:    msg.UserID,
		RoomID:    msg.RoomID,
		CreatedAt: msg.CreatedAt,
	}
	if msg.ID != (ulid.ULID{}) {
		m.ID = msg.ID.String()
	}
	return m
}

func (m *messageModel) toMessage() (*chat.Message, error) {
	id, err := ulid.Parse(m.ID)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	return &chat.Message{
		ID:        id,
		Message:   m.Message,
		UserID:    m.UserID,
		RoomID:    m.RoomID,
		CreatedAt: m.CreatedAt,
	}, nil
}
