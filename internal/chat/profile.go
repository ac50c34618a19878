// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package chat

import "time"

// UserProfile is the public view of a User. It never carries credentials.
type UserProfile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// CreateUserResponse is returned after a successful registration.
type CreateUserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthenticateResponse is returned after a successful login.
type AuthenticateResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

// RoomProfile is the public view of a Room.
type RoomProfile struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Capacity   int       `json:"capacity"`
	TotalUsers int       `json:"total_users"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRoomResponse is returned after a room is created.
type CreateRoomResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Capacity  int       `json:"capacity"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageProfile is the public view of a Message.
type MessageProfile struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	UserID    string    `json:"user_id"`
	RoomID    string    `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserProfile maps a user to its public profile.
func ToUserProfile(u *User) UserProfile {
	return UserProfile{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// ToUserProfiles maps users in order.
func ToUserProfiles(users []*User) []UserProfile {
	out := make([]UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserProfile(u))
	}
	return out
}

// ToCreateUserResponse maps a newly stored user.
func ToCreateUserResponse(u *User) CreateUserResponse {
	return CreateUserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ToAuthenticateResponse pairs a user's profile with the issued token.
func ToAuthenticateResponse(u *User, token string) AuthenticateResponse {
	return AuthenticateResponse{
		User:  ToUserProfile(u),
		Token: token,
	}
}

// ToRoomProfile maps a room to its public profile.
func ToRoomProfile(r *Room) RoomProfile {
	p := RoomProfile{
		ID:         r.ID.String(),
		Title:      r.Title,
		Capacity:   r.Capacity,
		TotalUsers: r.TotalUsers,
		CreatedAt:  r.CreatedAt,
	}
	if r.CreatedBy != nil {
		p.CreatedBy = r.CreatedBy.String()
	}
	return p
}

// ToRoomProfiles maps rooms in order.
func ToRoomProfiles(rooms []*Room) []RoomProfile {
	out := make([]RoomProfile, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, ToRoomProfile(r))
	}
	return out
}

// ToCreateRoomResponse maps a newly stored room.
func ToCreateRoomResponse(r *Room) CreateRoomResponse {
	resp := CreateRoomResponse{
		ID:        r.ID.String(),
		Title:     r.Title,
		Capacity:  r.Capacity,
		CreatedAt: r.CreatedAt,
	}
	if r.CreatedBy != nil {
		resp.CreatedBy = r.CreatedBy.String()
	}
	return resp
}

// ToMessageProfile maps a message to its public view.
func ToMessageProfile(m *Message) MessageProfile {
	return MessageProfile{
		ID:        m.ID.String(),
		Message:   m.Message,
		UserID:    m.UserID.String(),
		RoomID:    m.RoomID.String(),
		CreatedAt: m.CreatedAt,
	}
}

// ToMessageProfiles maps messages in order.
func ToMessageProfiles(msgs []*Message) []MessageProfile {
	out := make([]MessageProfile, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageProfile(m))
	}
	return out
}
