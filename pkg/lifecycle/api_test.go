package lifecycle_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"syreclabs.com/go/faker"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/audit"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/blob"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/connector"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/lifecycle"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/permission"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/quota"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/relstore"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// brokenStore refuses every transaction so compensating actions
// can be observed
type brokenStore struct {
	room.Store
}

func (s *brokenStore) Atomic(ctx context.Context, fn func(tx room.Tx) error) error {
	return errors.New("connection reset by peer")
}

var _ = Describe("API", func() {
	var (
		ctx          context.Context
		db           *gorm.DB
		logger       *zap.SugaredLogger
		store        *relstore.Store
		blobs        *blob.MemoryStore
		quotas       *quota.API
		inviteSecret string
		events       chan *room.Event
		api          *lifecycle.API
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = connector.ConnectToMemmory(relstore.Models)
		if err != nil {
			Fail(err.Error())
		}
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.FatalLevel + 1) // silent
		loggerRaw, err := config.Build()
		if err != nil {
			Fail(err.Error())
		}
		logger = loggerRaw.Sugar()
		store = relstore.New(db, logger)
		blobs = blob.NewMemoryStore()
		perms := permission.NewAPI(store, logger)
		quotas = quota.NewAPI(store, quota.DefaultLimits, logger)
		recorder := audit.NewRecorder(store, logger)
		inviteSecret = faker.RandomString(20)
		api = lifecycle.NewAPI(store, blobs, perms, quotas, recorder, logger, inviteSecret)
		events = make(chan *room.Event, 32)
		api.SetEvents(events)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	})

	seed := func(fn func(tx room.Tx) error) {
		err := store.Atomic(ctx, fn)
		Expect(err).To(BeNil())
	}

	seedUser := func(id string, verified bool) *room.User {
		u := room.FakeUser()
		u.ID = id
		u.Verified = verified
		seed(func(tx room.Tx) error {
			return tx.CreateUser(ctx, u)
		})
		return u
	}

	seedRoom := func(id string) *room.Room {
		r := room.FakeRoom()
		r.ID = id
		seed(func(tx room.Tx) error {
			return tx.CreateRoom(ctx, r)
		})
		return r
	}

	seedMember := func(roomID, userID string, role room.Role) *room.Member {
		m := &room.Member{
			ID:     faker.RandomString(5),
			RoomID: roomID,
			UserID: userID,
			Role:   role,
		}
		seed(func(tx room.Tx) error {
			return tx.CreateMember(ctx, m)
		})
		return m
	}

	seedChannel := func(roomID, name string) *room.Channel {
		c := room.FakeChannel(roomID)
		c.Name = name
		seed(func(tx room.Tx) error {
			return tx.CreateChannel(ctx, c)
		})
		return c
	}

	upload := func(size int) *lifecycle.FileUpload {
		return &lifecycle.FileUpload{
			Bytes:    bytes.Repeat([]byte{0x42}, size),
			MimeType: "image/png",
		}
	}

	auditKinds := func(roomID string) []room.AuditKind {
		entries, err := store.AuditsByRoom(ctx, roomID)
		Expect(err).To(BeNil())
		kinds := []room.AuditKind{}
		for _, e := range entries {
			kinds = append(kinds, e.Kind)
		}
		return kinds
	}

	Describe("GetEvents", func() {
		It("should return events channel", func() {
			Expect(api.GetEvents()).To(Equal(events))
		})
	})

	Describe("RegisterUser", func() {
		It("should register an unverified user", func() {
			u, err := api.RegisterUser(ctx, lifecycle.NewUserParam{
				ID:    "u1",
				Name:  faker.Name().Name(),
				Email: faker.Internet().Email(),
			})
			Expect(err).To(BeNil())
			Expect(u.Verified).To(BeFalse())
			saved, err := store.UserByID(ctx, "u1")
			Expect(err).To(BeNil())
			Expect(saved.Name).To(Equal(u.Name))
			Expect(events).To(Receive())
		})

		When("id is already taken", func() {
			It("should reject as duplicate", func() {
				seedUser("u1", false)
				_, err := api.RegisterUser(ctx, lifecycle.NewUserParam{
					ID:   "u1",
					Name: faker.Name().Name(),
				})
				Expect(room.KindOf(err)).To(Equal(room.KindDuplicate))
			})
		})
	})

	Describe("VerifyUser", func() {
		It("should flip the verified flag once", func() {
			seedUser("u1", false)
			u, err := api.VerifyUser(ctx, "u1")
			Expect(err).To(BeNil())
			Expect(u.Verified).To(BeTrue())
			// second call is a no-op
			u, err = api.VerifyUser(ctx, "u1")
			Expect(err).To(BeNil())
			Expect(u.Verified).To(BeTrue())
		})

		When("user does not exist", func() {
			It("should reject as not found", func() {
				_, err := api.VerifyUser(ctx, "nobody")
				Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			})
		})
	})

	Describe("CreateRoom", func() {
		It("should create room with creator as admin member", func() {
			seedUser("u1", true)
			r, err := api.CreateRoom(ctx, lifecycle.NewRoomParam{
				ActorID: "u1",
				Name:    "gophers",
			})
			Expect(err).To(BeNil())
			Expect(r.FileSettings.TotalBytesAllowed).To(Equal(quota.DefaultLimits.TotalBytesAllowed))
			Expect(r.ChannelSettings.MaxChannels).To(Equal(quota.DefaultLimits.MaxChannels))
			member, err := store.MemberOf(ctx, r.ID, "u1")
			Expect(err).To(BeNil())
			Expect(member.Role).To(Equal(room.RoleAdmin))
			Expect(auditKinds(r.ID)).To(ContainElement(room.AuditRoomCreated))
			var e *room.Event
			Expect(events).To(Receive(&e))
			Expect(e.Event).To(Equal(room.RoomCreated))
		})

		It("should store the avatar blob next to its file row", func() {
			seedUser("u1", true)
			r, err := api.CreateRoom(ctx, lifecycle.NewRoomParam{
				ActorID: "u1",
				Name:    "gophers",
				Avatar:  upload(128),
			})
			Expect(err).To(BeNil())
			Expect(r.AvatarFileID).NotTo(BeEmpty())
			f, err := store.FileByID(ctx, r.AvatarFileID)
			Expect(err).To(BeNil())
			Expect(f.Kind).To(Equal(room.FileRoomAvatar))
			Expect(blobs.Has(f.URL)).To(BeTrue())
			Expect(auditKinds(r.ID)).To(ContainElement(room.AuditFileCreated))
		})

		When("creator is not verified", func() {
			It("should reject creation", func() {
				seedUser("u1", false)
				_, err := api.CreateRoom(ctx, lifecycle.NewRoomParam{
					ActorID: "u1",
					Name:    "gophers",
				})
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})

		When("name is already taken", func() {
			It("should reject as duplicate", func() {
				seedUser("u1", true)
				r := seedRoom("r1")
				_, err := api.CreateRoom(ctx, lifecycle.NewRoomParam{
					ActorID: "u1",
					Name:    r.Name,
				})
				Expect(room.KindOf(err)).To(Equal(room.KindDuplicate))
			})
		})

		When("transaction fails after the blob upload", func() {
			It("should delete the orphaned blob", func() {
				seedUser("u1", true)
				broken := lifecycle.NewAPI(
					&brokenStore{store}, blobs,
					permission.NewAPI(store, logger),
					quotas,
					audit.NewRecorder(store, logger),
					logger, inviteSecret,
				)
				_, err := broken.CreateRoom(ctx, lifecycle.NewRoomParam{
					ActorID: "u1",
					Name:    "gophers",
					Avatar:  upload(128),
				})
				Expect(err).NotTo(BeNil())
				Expect(blobs.Len()).To(Equal(0))
			})
		})
	})

	Describe("GetRoom", func() {
		It("should return room to a member", func() {
			seedUser("u1", true)
			r := seedRoom("r1")
			seedMember(r.ID, "u1", room.RoleMember)
			got, err := api.GetRoom(ctx, "u1", r.ID)
			Expect(err).To(BeNil())
			Expect(got.Name).To(Equal(r.Name))
		})

		When("caller is not a member", func() {
			It("should reject", func() {
				seedUser("u1", true)
				r := seedRoom("r1")
				_, err := api.GetRoom(ctx, "u1", r.ID)
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})
	})

	Describe("ListRooms", func() {
		It("should filter by keyword and page", func() {
			for _, name := range []string{"alpha room", "beta room", "alpine room"} {
				r := room.FakeRoom()
				r.ID = name
				r.Name = name
				seed(func(tx room.Tx) error {
					return tx.CreateRoom(ctx, r)
				})
			}
			page, err := api.ListRooms(ctx, lifecycle.PaginationParam{
				Keyword: "alp", Offset: 0, Limit: 10,
			})
			Expect(err).To(BeNil())
			Expect(page.Count).To(Equal(2))
			Expect(page.Rooms).To(HaveLen(2))
		})
	})

	Describe("UpdateRoom", func() {
		var (
			r     *room.Room
			admin *room.User
		)

		JustBeforeEach(func() {
			admin = seedUser("u1", true)
			r = seedRoom("r1")
			seedMember(r.ID, admin.ID, room.RoleAdmin)
		})

		It("should apply partial changes", func() {
			desc := "updated description"
			got, err := api.UpdateRoom(ctx, lifecycle.UpdateRoomParam{
				ActorID:     admin.ID,
				ID:          r.ID,
				Description: &desc,
			})
			Expect(err).To(BeNil())
			Expect(got.Description).To(Equal(desc))
			Expect(got.Name).To(Equal(r.Name))
			Expect(auditKinds(r.ID)).To(ContainElement(room.AuditRoomEdited))
		})

		It("should replace the avatar and drop the old blob after commit", func() {
			got, err := api.UpdateRoom(ctx, lifecycle.UpdateRoomParam{
				ActorID: admin.ID,
				ID:      r.ID,
				Avatar:  upload(100),
			})
			Expect(err).To(BeNil())
			firstFile, err := store.FileByID(ctx, got.AvatarFileID)
			Expect(err).To(BeNil())

			got, err = api.UpdateRoom(ctx, lifecycle.UpdateRoomParam{
				ActorID: admin.ID,
				ID:      r.ID,
				Avatar:  upload(200),
			})
			Expect(err).To(BeNil())
			Expect(got.AvatarFileID).NotTo(Equal(firstFile.ID))

			_, err = store.FileByID(ctx, firstFile.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			Expect(blobs.Has(firstFile.URL)).To(BeFalse())
			second, err := store.FileByID(ctx, got.AvatarFileID)
			Expect(err).To(BeNil())
			Expect(blobs.Has(second.URL)).To(BeTrue())
			Expect(blobs.Len()).To(Equal(1))
			Expect(auditKinds(r.ID)).To(ContainElement(room.AuditFileDeleted))
		})

		When("join channel belongs to another room", func() {
			It("should reject", func() {
				other := seedRoom("r2")
				foreign := seedChannel(other.ID, "general")
				_, err := api.UpdateRoom(ctx, lifecycle.UpdateRoomParam{
					ActorID:       admin.ID,
					ID:            r.ID,
					JoinChannelID: &foreign.ID,
				})
				Expect(room.KindOf(err)).To(Equal(room.KindValidation))
			})
		})

		When("caller is only a member", func() {
			It("should reject", func() {
				seedUser("u2", true)
				seedMember(r.ID, "u2", room.RoleMember)
				name := "renamed"
				_, err := api.UpdateRoom(ctx, lifecycle.UpdateRoomParam{
					ActorID: "u2",
					ID:      r.ID,
					Name:    &name,
				})
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})
	})

	Describe("DeleteRoom", func() {
		It("should remove every owned resource and blob", func() {
			admin := seedUser("u1", true)
			r := seedRoom("r1")
			seedMember(r.ID, admin.ID, room.RoleAdmin)
			channel := seedChannel(r.ID, "general")
			seedChannel(r.ID, "random")
			_, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   admin.ID,
				ChannelID: channel.ID,
				Content:   "with upload",
				Upload:    upload(300),
			})
			Expect(err).To(BeNil())
			link, err := api.CreateInviteLink(ctx, lifecycle.NewInviteParam{
				ActorID: admin.ID,
				RoomID:  r.ID,
			})
			Expect(err).To(BeNil())
			Expect(blobs.Len()).To(Equal(1))

			err = api.DeleteRoom(ctx, admin.ID, r.ID)
			Expect(err).To(BeNil())

			_, err = store.RoomByID(ctx, r.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			_, err = store.ChannelByID(ctx, channel.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			_, err = store.InviteByID(ctx, link.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			files, err := store.FilesByRoom(ctx, r.ID)
			Expect(err).To(BeNil())
			Expect(files).To(BeEmpty())
			Expect(blobs.Len()).To(Equal(0))
			kinds := auditKinds(r.ID)
			Expect(kinds).To(ContainElement(room.AuditRoomDeleted))
			Expect(kinds).To(ContainElement(room.AuditFileDeleted))
			channelDeletes := 0
			for _, k := range kinds {
				if k == room.AuditChannelDeleted {
					channelDeletes++
				}
			}
			// one entry per cascaded channel
			Expect(channelDeletes).To(Equal(2))
		})

		When("caller is only a member", func() {
			It("should reject", func() {
				seedUser("u2", true)
				r := seedRoom("r1")
				seedMember(r.ID, "u2", room.RoleMember)
				err := api.DeleteRoom(ctx, "u2", r.ID)
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})
	})

	Describe("CreateChannel", func() {
		var (
			r     *room.Room
			admin *room.User
		)

		JustBeforeEach(func() {
			admin = seedUser("u1", true)
			r = seedRoom("r1")
			seedMember(r.ID, admin.ID, room.RoleAdmin)
		})

		It("should add a channel to the room", func() {
			c, err := api.CreateChannel(ctx, lifecycle.NewChannelParam{
				ActorID: admin.ID,
				RoomID:  r.ID,
				Name:    "general",
			})
			Expect(err).To(BeNil())
			Expect(c.Kind).To(Equal("text"))
			Expect(auditKinds(r.ID)).To(ContainElement(room.AuditChannelCreated))
		})

		When("channel count limit is reached", func() {
			It("should reject with quota exceeded", func() {
				r.ChannelSettings.MaxChannels = 1
				seed(func(tx room.Tx) error {
					return tx.SaveRoom(ctx, r)
				})
				_, err := api.CreateChannel(ctx, lifecycle.NewChannelParam{
					ActorID: admin.ID, RoomID: r.ID, Name: "one",
				})
				Expect(err).To(BeNil())
				_, err = api.CreateChannel(ctx, lifecycle.NewChannelParam{
					ActorID: admin.ID, RoomID: r.ID, Name: "two",
				})
				Expect(room.KindOf(err)).To(Equal(room.KindQuotaExceeded))
			})
		})

		When("name and kind collide in the room", func() {
			It("should reject as duplicate", func() {
				seedChannel(r.ID, "general")
				_, err := api.CreateChannel(ctx, lifecycle.NewChannelParam{
					ActorID: admin.ID, RoomID: r.ID, Name: "general",
				})
				Expect(room.KindOf(err)).To(Equal(room.KindDuplicate))
			})
		})

		When("kind is not a known channel kind", func() {
			It("should reject as validation error", func() {
				_, err := api.CreateChannel(ctx, lifecycle.NewChannelParam{
					ActorID: admin.ID, RoomID: r.ID, Name: "stage", Kind: "video",
				})
				Expect(room.KindOf(err)).To(Equal(room.KindValidation))
			})
		})
	})

	Describe("DeleteChannel", func() {
		It("should remove messages, files and the join reference", func() {
			admin := seedUser("u1", true)
			r := seedRoom("r1")
			seedMember(r.ID, admin.ID, room.RoleAdmin)
			doomed := seedChannel(r.ID, "doomed")
			kept := seedChannel(r.ID, "kept")
			r.JoinChannelID = doomed.ID
			seed(func(tx room.Tx) error {
				return tx.SaveRoom(ctx, r)
			})
			m, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   admin.ID,
				ChannelID: doomed.ID,
				Content:   "upload here",
				Upload:    upload(100),
			})
			Expect(err).To(BeNil())
			survivor, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   admin.ID,
				ChannelID: kept.ID,
				Content:   "survives",
			})
			Expect(err).To(BeNil())

			err = api.DeleteChannel(ctx, admin.ID, doomed.ID)
			Expect(err).To(BeNil())

			_, err = store.ChannelByID(ctx, doomed.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			_, err = store.MessageByID(ctx, m.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			_, err = store.FileByID(ctx, m.FileID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			Expect(blobs.Len()).To(Equal(0))
			_, err = store.MessageByID(ctx, survivor.ID)
			Expect(err).To(BeNil())
			fresh, err := store.RoomByID(ctx, r.ID)
			Expect(err).To(BeNil())
			Expect(fresh.JoinChannelID).To(BeEmpty())
			Expect(auditKinds(r.ID)).To(ContainElement(room.AuditChannelDeleted))
		})
	})

	Describe("Webhooks", func() {
		It("should create and delete a webhook with its avatar", func() {
			admin := seedUser("u1", true)
			r := seedRoom("r1")
			seedMember(r.ID, admin.ID, room.RoleAdmin)
			channel := seedChannel(r.ID, "general")

			w, err := api.CreateWebhook(ctx, lifecycle.NewWebhookParam{
				ActorID:   admin.ID,
				ChannelID: channel.ID,
				Name:      "ci-bot",
				Avatar:    upload(50),
			})
			Expect(err).To(BeNil())
			Expect(w.Token).NotTo(BeEmpty())
			Expect(blobs.Len()).To(Equal(1))

			err = api.DeleteWebhook(ctx, admin.ID, w.ID)
			Expect(err).To(BeNil())
			_, err = store.WebhookByID(ctx, w.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			Expect(blobs.Len()).To(Equal(0))
		})
	})

	Describe("CreateMessage", func() {
		var (
			r       *room.Room
			channel *room.Channel
			author  *room.User
		)

		JustBeforeEach(func() {
			author = seedUser("u1", true)
			r = seedRoom("r1")
			r.FileSettings.TotalBytesAllowed = 1000
			r.FileSettings.SingleBytesAllowed = 1000
			seed(func(tx room.Tx) error {
				return tx.SaveRoom(ctx, r)
			})
			seedMember(r.ID, author.ID, room.RoleMember)
			channel = seedChannel(r.ID, "general")
		})

		It("should post a plain message", func() {
			m, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   author.ID,
				ChannelID: channel.ID,
				Content:   "hello",
			})
			Expect(err).To(BeNil())
			Expect(m.System).To(BeFalse())
			var e *room.Event
			Expect(events).To(Receive(&e))
			Expect(e.Event).To(Equal(room.MessageCreated))
		})

		It("should enforce the total bytes quota across uploads", func() {
			_, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   author.ID,
				ChannelID: channel.ID,
				Content:   "first",
				Upload:    upload(600),
			})
			Expect(err).To(BeNil())
			Expect(blobs.Len()).To(Equal(1))

			// 600 + 500 passes 1000, the blob store must not be touched
			_, err = api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   author.ID,
				ChannelID: channel.ID,
				Content:   "second",
				Upload:    upload(500),
			})
			Expect(room.KindOf(err)).To(Equal(room.KindQuotaExceeded))
			Expect(err.Error()).To(Equal(room.TotalFilesLimitError))
			Expect(blobs.Len()).To(Equal(1))
		})

		It("should enforce the single file size quota", func() {
			_, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   author.ID,
				ChannelID: channel.ID,
				Content:   "too big",
				Upload:    upload(1001),
			})
			Expect(room.KindOf(err)).To(Equal(room.KindQuotaExceeded))
			Expect(err.Error()).To(Equal(room.SingleFileSizeError))
			Expect(blobs.Len()).To(Equal(0))
		})

		When("author is not a member", func() {
			It("should reject", func() {
				seedUser("u9", true)
				_, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
					ActorID:   "u9",
					ChannelID: channel.ID,
					Content:   "hi",
				})
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})

		When("neither content nor upload is given", func() {
			It("should reject", func() {
				_, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
					ActorID:   author.ID,
					ChannelID: channel.ID,
				})
				Expect(room.KindOf(err)).To(Equal(room.KindValidation))
			})
		})
	})

	Describe("UpdateMessage and DeleteMessage", func() {
		var (
			r       *room.Room
			channel *room.Channel
			message *room.Message
		)

		JustBeforeEach(func() {
			author := seedUser("author", true)
			seedUser("mod", true)
			seedUser("plain", true)
			r = seedRoom("r1")
			seedMember(r.ID, author.ID, room.RoleMember)
			seedMember(r.ID, "mod", room.RoleModerator)
			seedMember(r.ID, "plain", room.RoleMember)
			channel = seedChannel(r.ID, "general")
			var err error
			message, err = api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   author.ID,
				ChannelID: channel.ID,
				Content:   "original",
			})
			Expect(err).To(BeNil())
		})

		It("should let the author edit", func() {
			got, err := api.UpdateMessage(ctx, lifecycle.UpdateMessageParam{
				ActorID: "author", ID: message.ID, Content: "edited",
			})
			Expect(err).To(BeNil())
			Expect(got.Content).To(Equal("edited"))
		})

		It("should let a moderator delete", func() {
			err := api.DeleteMessage(ctx, "mod", message.ID)
			Expect(err).To(BeNil())
			_, err = store.MessageByID(ctx, message.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
		})

		When("another plain member tries", func() {
			It("should reject", func() {
				_, err := api.UpdateMessage(ctx, lifecycle.UpdateMessageParam{
					ActorID: "plain", ID: message.ID, Content: "nope",
				})
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
				err = api.DeleteMessage(ctx, "plain", message.ID)
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})

		It("should remove the upload blob when deleting", func() {
			withFile, err := api.CreateMessage(ctx, lifecycle.NewMessageParam{
				ActorID:   "author",
				ChannelID: channel.ID,
				Content:   "file",
				Upload:    upload(100),
			})
			Expect(err).To(BeNil())
			Expect(blobs.Len()).To(Equal(1))
			err = api.DeleteMessage(ctx, "author", withFile.ID)
			Expect(err).To(BeNil())
			_, err = store.FileByID(ctx, withFile.FileID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			Expect(blobs.Len()).To(Equal(0))
		})
	})

	Describe("Invite links", func() {
		var (
			r     *room.Room
			admin *room.User
		)

		JustBeforeEach(func() {
			admin = seedUser("u1", true)
			r = seedRoom("r1")
			seedMember(r.ID, admin.ID, room.RoleAdmin)
			joinChannel := seedChannel(r.ID, "lobby")
			r.JoinChannelID = joinChannel.ID
			seed(func(tx room.Tx) error {
				return tx.SaveRoom(ctx, r)
			})
		})

		It("should let a verified user join and announce them", func() {
			link, err := api.CreateInviteLink(ctx, lifecycle.NewInviteParam{
				ActorID: admin.ID,
				RoomID:  r.ID,
			})
			Expect(err).To(BeNil())
			Expect(link.Token).NotTo(BeEmpty())

			joiner := seedUser("u2", true)
			member, err := api.JoinRoom(ctx, joiner.ID, link.Token)
			Expect(err).To(BeNil())
			Expect(member.Role).To(Equal(room.RoleMember))

			messages, err := store.MessagesByChannel(ctx, r.JoinChannelID)
			Expect(err).To(BeNil())
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].System).To(BeTrue())
			Expect(messages[0].Content).To(Equal(joiner.Name + " joined the room"))
		})

		When("invite row has expired", func() {
			It("should reject as expired", func() {
				past := time.Now().Add(-time.Hour)
				link, err := api.CreateInviteLink(ctx, lifecycle.NewInviteParam{
					ActorID:   admin.ID,
					RoomID:    r.ID,
					ExpiresAt: &past,
				})
				Expect(err).To(BeNil())
				seedUser("u2", true)
				_, err = api.JoinRoom(ctx, "u2", link.Token)
				Expect(room.KindOf(err)).To(Equal(room.KindExpired))
			})
		})

		When("joiner email is not verified", func() {
			It("should reject", func() {
				link, err := api.CreateInviteLink(ctx, lifecycle.NewInviteParam{
					ActorID: admin.ID,
					RoomID:  r.ID,
				})
				Expect(err).To(BeNil())
				seedUser("u2", false)
				_, err = api.JoinRoom(ctx, "u2", link.Token)
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})

		When("user already joined", func() {
			It("should reject as duplicate", func() {
				link, err := api.CreateInviteLink(ctx, lifecycle.NewInviteParam{
					ActorID: admin.ID,
					RoomID:  r.ID,
				})
				Expect(err).To(BeNil())
				_, err = api.JoinRoom(ctx, admin.ID, link.Token)
				Expect(room.KindOf(err)).To(Equal(room.KindDuplicate))
			})
		})

		When("member count limit is reached", func() {
			It("should reject with quota exceeded", func() {
				r.UserSettings.MaxUsers = 1 // admin fills the room
				seed(func(tx room.Tx) error {
					return tx.SaveRoom(ctx, r)
				})
				link, err := api.CreateInviteLink(ctx, lifecycle.NewInviteParam{
					ActorID: admin.ID,
					RoomID:  r.ID,
				})
				Expect(err).To(BeNil())
				seedUser("u2", true)
				_, err = api.JoinRoom(ctx, "u2", link.Token)
				Expect(room.KindOf(err)).To(Equal(room.KindQuotaExceeded))
			})
		})

		When("a non-admin creates a link", func() {
			It("should reject", func() {
				seedUser("u2", true)
				seedMember(r.ID, "u2", room.RoleMember)
				_, err := api.CreateInviteLink(ctx, lifecycle.NewInviteParam{
					ActorID: "u2",
					RoomID:  r.ID,
				})
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})
	})

	Describe("LeaveRoom and KickUser", func() {
		var (
			r     *room.Room
			admin *room.User
		)

		JustBeforeEach(func() {
			admin = seedUser("u1", true)
			seedUser("u2", true)
			r = seedRoom("r1")
			seedMember(r.ID, admin.ID, room.RoleAdmin)
			seedMember(r.ID, "u2", room.RoleMember)
		})

		It("should remove own membership on leave", func() {
			err := api.LeaveRoom(ctx, "u2", r.ID)
			Expect(err).To(BeNil())
			_, err = store.MemberOf(ctx, r.ID, "u2")
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
		})

		It("should let an admin kick a member", func() {
			err := api.KickUser(ctx, admin.ID, r.ID, "u2")
			Expect(err).To(BeNil())
			_, err = store.MemberOf(ctx, r.ID, "u2")
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
		})

		When("a member tries to kick", func() {
			It("should reject", func() {
				err := api.KickUser(ctx, "u2", r.ID, admin.ID)
				Expect(room.KindOf(err)).To(Equal(room.KindPermissionDenied))
			})
		})
	})
})
