// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package seed loads initial users and rooms from a YAML file and creates
// them through the chat service. Seeding is idempotent: rows whose unique key
// already exists are skipped.
package seed

import (
	"context"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/holomush/chatroom/internal/chat"
	"github.com/holomush/chatroom/internal/schema"
)

// File is the seed document.
type File struct {
	Users []User `yaml:"users,omitempty" json:"users,omitempty"`
	Rooms []Room `yaml:"rooms,omitempty" json:"rooms,omitempty"`
}

// User is a user to register.
type User struct {
	Username  string `yaml:"username" json:"username" jsonschema:"minLength=1,maxLength=255"`
	Email     string `yaml:"email" json:"email" jsonschema:"minLength=3,maxLength=255"`
	Password  string `yaml:"password" json:"password" jsonschema:"minLength=1"`
	FirstName string `yaml:"first_name,omitempty" json:"first_name,omitempty" jsonschema:"maxLength=255"`
	LastName  string `yaml:"last_name,omitempty" json:"last_name,omitempty" jsonschema:"maxLength=255"`
	Role      string `yaml:"role,omitempty" json:"role,omitempty" jsonschema:"maxLength=255"`
}

// Room is a room to create. Owner names a user from the same file.
type Room struct {
	Title    string `yaml:"title" json:"title" jsonschema:"minLength=1,maxLength=255"`
	Password string `yaml:"password" json:"password" jsonschema:"minLength=1"`
	Capacity int    `yaml:"capacity,omitempty" json:"capacity,omitempty" jsonschema:"minimum=0"`
	Owner    string `yaml:"owner,omitempty" json:"owner,omitempty"`
}

// SchemaID is the $id of the seed file schema.
const SchemaID = "https://chatroom.holomush.dev/schemas/seed.schema.json"

// Schema returns the JSON Schema of a seed file.
func Schema() ([]byte, error) {
	return schema.Generate(&File{}, schema.Meta{
		ID:          SchemaID,
		Title:       "Chatroom Seed File",
		Description: "Users and rooms created by `chatroom seed`",
	})
}

var validator = schema.NewValidator(Schema)

// Parse validates data against the seed schema and decodes it.
func Parse(data []byte) (*File, error) {
	if err := validator.ValidateYAML(data); err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_INVALID").Wrap(err)
	}
	return &f, nil
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("file", path).Wrap(err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, oops.With("file", path).Wrap(err)
	}
	return f, nil
}

// Creator is the part of chat.Service used for seeding.
type Creator interface {
	CreateUser(ctx context.Context, req chat.CreateUserRequest) (*chat.CreateUserResponse, error)
	CreateRoom(ctx context.Context, req chat.CreateRoomRequest, creatorID string) (*chat.CreateRoomResponse, error)
}

// Result counts what Apply did.
type Result struct {
	UsersCreated int
	UsersSkipped int
	RoomsCreated int
	RoomsSkipped int
}

// Apply creates every user, then every room. Duplicates are skipped and
// logged; any other error stops seeding.
func Apply(ctx context.Context, svc Creator, f *File, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	owners := make(map[string]string, len(f.Users))

	for _, u := range f.Users {
		created, err := svc.CreateUser(ctx, chat.CreateUserRequest{
			Username:  u.Username,
			Email:     u.Email,
			Password:  u.Password,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
		})
		if chat.Code(err) == chat.CodeDuplicateKey {
			logger.Info("user already exists, skipping", "username", u.Username)
			res.UsersSkipped++
			continue
		}
		if err != nil {
			return res, oops.With("username", u.Username).Wrap(err)
		}
		owners[u.Username] = created.ID
		res.UsersCreated++
	}

	for _, r := range f.Rooms {
		ownerID := ""
		if r.Owner != "" {
			id, ok := owners[r.Owner]
			if !ok {
				logger.Warn("room owner was not created by this seed, creating room without owner",
					"title", r.Title, "owner", r.Owner)
			}
			ownerID = id
		}

		_, err := svc.CreateRoom(ctx, chat.CreateRoomRequest{
			Title:    r.Title,
			Password: r.Password,
			Capacity: r.Capacity,
		}, ownerID)
		if chat.Code(err) == chat.CodeDuplicateKey {
			logger.Info("room already exists, skipping", "title", r.Title)
			res.RoomsSkipped++
			continue
		}
		if err != nil {
			return res, oops.With("title", r.Title).Wrap(err)
		}
		res.RoomsCreated++
	}

	return res, nil
}
