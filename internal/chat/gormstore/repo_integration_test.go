// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package gormstore_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/chatroom/internal/auth"
	"github.com/holomush/chatroom/internal/chat"
	"github.com/holomush/chatroom/internal/chat/gormstore"
)

var _ = Describe("Chat service on GORM", func() {
	var (
		ctx   context.Context
		svc   *chat.Service
		users *gormstore.UserRepository
		rooms *gormstore.RoomRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll()

		users = gormstore.NewUserRepository(testDB)
		rooms = gormstore.NewRoomRepository(testDB)

		tokens, err := auth.NewJWTIssuer([]byte("integration-secret-integration-se"), time.Hour)
		Expect(err).NotTo(HaveOccurred())

		svc, err = chat.NewService(chat.Deps{
			Users:    users,
			Rooms:    rooms,
			Messages: gormstore.NewMessageRepository(testDB),
			Hasher: auth.NewArgon2idHasherWithParams(auth.Argon2Params{
				Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
			}),
			Tokens: tokens,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates and authenticates a user", func() {
		created, err := svc.CreateUser(ctx, chat.CreateUserRequest{
			Username: "alice", Email: "alice@example.com", Password: "Secret123!",
		})
		Expect(err).NotTo(HaveOccurred())

		resp, err := svc.Authenticate(ctx, "alice", "Secret123!")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.User.ID).To(Equal(created.ID))

		_, err = svc.Authenticate(ctx, "alice", "wrong")
		Expect(chat.Code(err)).To(Equal(chat.CodeUnauthenticated))

		stored, err := users.GetByID(ctx, uuid.MustParse(created.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.FailedLoginAttempts).To(Equal(1))
		Expect(stored.LastLogin).NotTo(BeNil())
	})

	It("reports duplicates with the offending field", func() {
		_, err := svc.CreateUser(ctx, chat.CreateUserRequest{
			Username: "alice", Email: "alice@example.com", Password: "pw",
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.CreateUser(ctx, chat.CreateUserRequest{
			Username: "other", Email: "alice@example.com", Password: "pw",
		})
		Expect(chat.Code(err)).To(Equal(chat.CodeDuplicateKey))
	})

	It("keeps room occupancy equal to membership and within capacity", func() {
		room, err := svc.CreateRoom(ctx, chat.CreateRoomRequest{Title: "Small", Password: "pw", Capacity: 2}, "")
		Expect(err).NotTo(HaveOccurred())

		ids := make([]string, 6)
		for i := range ids {
			name := fmt.Sprintf("user%d", i)
			u, err := svc.CreateUser(ctx, chat.CreateUserRequest{
				Username: name, Email: name + "@example.com", Password: "pw",
			})
			Expect(err).NotTo(HaveOccurred())
			ids[i] = u.ID
		}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			members []string
		)
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				if _, err := svc.JoinRoom(ctx, id, "pw", room.ID); err == nil {
					mu.Lock()
					members = append(members, id)
					mu.Unlock()
				} else {
					Expect(chat.Code(err)).To(Equal(chat.CodeRoomFull))
				}
			}()
		}
		wg.Wait()
		Expect(members).To(HaveLen(2))

		again, err := svc.JoinRoom(ctx, members[0], "pw", room.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.TotalUsers).To(Equal(2))

		for _, id := range ids {
			if id == members[0] || id == members[1] {
				continue
			}
			_, err = svc.LeaveRoom(ctx, id, room.ID)
			Expect(chat.Code(err)).To(Equal(chat.CodeNotMember))
		}
		for _, id := range members {
			_, err = svc.LeaveRoom(ctx, id, room.ID)
			Expect(err).NotTo(HaveOccurred())
		}
		stored, err := rooms.GetByID(ctx, uuid.MustParse(room.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.TotalUsers).To(BeZero())
	})

	It("stores messages in order and rejects unknown rooms", func() {
		alice, err := svc.CreateUser(ctx, chat.CreateUserRequest{
			Username: "alice", Email: "alice@example.com", Password: "pw",
		})
		Expect(err).NotTo(HaveOccurred())
		room, err := svc.CreateRoom(ctx, chat.CreateRoomRequest{Title: "General", Password: "pw"}, alice.ID)
		Expect(err).NotTo(HaveOccurred())

		for _, body := range []string{"first", "second"} {
			_, err := svc.CreateMessage(ctx, chat.CreateMessageRequest{Message: body}, alice.ID, room.ID)
			Expect(err).NotTo(HaveOccurred())
		}
		msgs, err := svc.ListMessages(ctx, room.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Message).To(Equal("first"))

		_, err = svc.CreateMessage(ctx, chat.CreateMessageRequest{Message: "x"}, alice.ID, uuid.NewString())
		Expect(chat.Code(err)).To(Equal(chat.CodeValidationFailure))
	})
})
