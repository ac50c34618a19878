// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

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
	"github.com/holomush/chatroom/internal/chat/postgres"
)

var _ = Describe("Chat service on PostgreSQL", func() {
	var (
		ctx    context.Context
		svc    *chat.Service
		users  *postgres.UserRepository
		rooms  *postgres.RoomRepository
		tokens *auth.JWTIssuer
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx)

		users = postgres.NewUserRepository(testPool)
		rooms = postgres.NewRoomRepository(testPool)

		var err error
		tokens, err = auth.NewJWTIssuer([]byte("integration-secret-integration-se"), time.Hour)
		Expect(err).NotTo(HaveOccurred())

		svc, err = chat.NewService(chat.Deps{
			Users:    users,
			Rooms:    rooms,
			Messages: postgres.NewMessageRepository(testPool),
			Hasher: auth.NewArgon2idHasherWithParams(auth.Argon2Params{
				Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
			}),
			Tokens: tokens,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("user authentication", func() {
		var alice *chat.CreateUserResponse

		BeforeEach(func() {
			var err error
			alice, err = svc.CreateUser(ctx, chat.CreateUserRequest{
				Username: "alice",
				Email:    "alice@example.com",
				Password: "Secret123!",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("authenticates with the right password", func() {
			resp, err := svc.Authenticate(ctx, "alice", "Secret123!")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.User.ID).To(Equal(alice.ID))

			claims, err := tokens.Parse(resp.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID()).To(Equal(alice.ID))

			stored, err := users.GetByID(ctx, uuid.MustParse(alice.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.LastLogin).NotTo(BeNil())
		})

		It("rejects a wrong password and an unknown user identically", func() {
			_, wrongErr := svc.Authenticate(ctx, "alice", "wrong")
			_, unknownErr := svc.Authenticate(ctx, "bob", "x")

			Expect(chat.Code(wrongErr)).To(Equal(chat.CodeUnauthenticated))
			Expect(chat.Code(unknownErr)).To(Equal(chat.CodeUnauthenticated))
			Expect(wrongErr.Error()).To(Equal(unknownErr.Error()))

			stored, err := users.GetByID(ctx, uuid.MustParse(alice.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedLoginAttempts).To(Equal(1))
		})

		It("counts concurrent failures without losing updates", func() {
			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := svc.Authenticate(ctx, "alice", "wrong")
					Expect(chat.Code(err)).To(Equal(chat.CodeUnauthenticated))
				}()
			}
			wg.Wait()

			stored, err := users.GetByID(ctx, uuid.MustParse(alice.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedLoginAttempts).To(Equal(10))
		})

		It("rejects a duplicate username and keeps the original", func() {
			_, err := svc.CreateUser(ctx, chat.CreateUserRequest{
				Username: "alice",
				Email:    "someone@example.com",
				Password: "other",
			})
			Expect(chat.Code(err)).To(Equal(chat.CodeDuplicateKey))

			_, err = svc.Authenticate(ctx, "alice", "Secret123!")
			Expect(err).NotTo(HaveOccurred())
		})

		It("updates the profile and rejects a taken email", func() {
			_, err := svc.CreateUser(ctx, chat.CreateUserRequest{
				Username: "bob", Email: "bob@example.com", Password: "pw",
			})
			Expect(err).NotTo(HaveOccurred())

			first := "Alice"
			profile, err := svc.UpdateProfile(ctx, alice.ID, chat.UpdateProfileRequest{FirstName: &first})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.FirstName).To(Equal("Alice"))

			taken := "bob@example.com"
			_, err = svc.UpdateProfile(ctx, alice.ID, chat.UpdateProfileRequest{Email: &taken})
			Expect(chat.Code(err)).To(Equal(chat.CodeDuplicateKey))
		})
	})

	Describe("rooms and messages", func() {
		var (
			alice   *chat.CreateUserResponse
			general *chat.CreateRoomResponse
		)

		BeforeEach(func() {
			var err error
			alice, err = svc.CreateUser(ctx, chat.CreateUserRequest{
				Username: "alice", Email: "alice@example.com", Password: "Secret123!",
			})
			Expect(err).NotTo(HaveOccurred())

			general, err = svc.CreateRoom(ctx, chat.CreateRoomRequest{
				Title: "General", Password: "pw", Capacity: 10,
			}, alice.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("authenticates against the room password", func() {
			profile, err := svc.AuthenticateRoom(ctx, "pw", general.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Title).To(Equal("General"))
			Expect(profile.CreatedBy).To(Equal(alice.ID))

			_, err = svc.AuthenticateRoom(ctx, "nope", general.ID)
			Expect(chat.Code(err)).To(Equal(chat.CodeUnauthenticated))

			_, err = svc.AuthenticateRoom(ctx, "pw", "not-a-uuid")
			Expect(chat.Code(err)).To(Equal(chat.CodeUnauthenticated))
		})

		It("authenticates a room named by its title", func() {
			profile, err := svc.AuthenticateRoom(ctx, "pw", "General")
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.ID).To(Equal(general.ID))

			_, err = svc.AuthenticateRoom(ctx, "nope", "General")
			Expect(chat.Code(err)).To(Equal(chat.CodeUnauthenticated))
		})

		It("rejects a duplicate title", func() {
			_, err := svc.CreateRoom(ctx, chat.CreateRoomRequest{Title: "General", Password: "x"}, "")
			Expect(chat.Code(err)).To(Equal(chat.CodeDuplicateKey))
		})

		It("stores and lists messages in order", func() {
			for _, body := range []string{"one", "two", "three"} {
				_, err := svc.CreateMessage(ctx, chat.CreateMessageRequest{Message: body}, alice.ID, general.ID)
				Expect(err).NotTo(HaveOccurred())
			}

			msgs, err := svc.ListMessages(ctx, general.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(3))
			Expect(msgs[0].Message).To(Equal("one"))
			Expect(msgs[2].Message).To(Equal("three"))
		})

		It("rejects messages for an unknown room", func() {
			_, err := svc.CreateMessage(ctx, chat.CreateMessageRequest{Message: "hi"}, alice.ID, uuid.NewString())
			Expect(chat.Code(err)).To(Equal(chat.CodeValidationFailure))
		})

		It("never exceeds capacity under concurrent joins", func() {
			small, err := svc.CreateRoom(ctx, chat.CreateRoomRequest{Title: "Small", Password: "pw", Capacity: 3}, "")
			Expect(err).NotTo(HaveOccurred())

			ids := make([]string, 8)
			for i := range ids {
				name := fmt.Sprintf("joiner%d", i)
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
				full    int
			)
			for _, id := range ids {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := svc.JoinRoom(ctx, id, "pw", small.ID)
					mu.Lock()
					defer mu.Unlock()
					switch chat.Code(err) {
					case "":
						members = append(members, id)
					case chat.CodeRoomFull:
						full++
					default:
						Fail("unexpected error: " + err.Error())
					}
				}()
			}
			wg.Wait()

			Expect(members).To(HaveLen(3))
			Expect(full).To(Equal(5))

			var count int
			Expect(testPool.QueryRow(ctx,
				`SELECT count(*) FROM room_members WHERE room_id = $1`, small.ID).Scan(&count)).To(Succeed())
			Expect(count).To(Equal(3))

			left, err := svc.LeaveRoom(ctx, members[0], small.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.TotalUsers).To(Equal(2))

			room, err := rooms.GetByID(ctx, uuid.MustParse(small.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(room.TotalUsers).To(Equal(2))
		})

		It("counts each member once and only lets members leave", func() {
			first, err := svc.JoinRoom(ctx, alice.ID, "pw", general.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.TotalUsers).To(Equal(1))

			again, err := svc.JoinRoom(ctx, alice.ID, "pw", general.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.TotalUsers).To(Equal(1))

			bob, err := svc.CreateUser(ctx, chat.CreateUserRequest{
				Username: "bob", Email: "bob@example.com", Password: "pw",
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.LeaveRoom(ctx, bob.ID, general.ID)
			Expect(chat.Code(err)).To(Equal(chat.CodeNotMember))

			left, err := svc.LeaveRoom(ctx, alice.ID, general.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.TotalUsers).To(BeZero())

			_, err = svc.LeaveRoom(ctx, alice.ID, general.ID)
			Expect(chat.Code(err)).To(Equal(chat.CodeNotMember))
		})
	})
})
