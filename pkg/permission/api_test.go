package permission_test

import (
	"context"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/connector"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/permission"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/relstore"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

var _ = Describe("API", func() {
	var (
		ctx    context.Context
		db     *gorm.DB
		logger *zap.SugaredLogger
		store  *relstore.Store
		api    *permission.API

		r       *room.Room
		channel *room.Channel
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
		api = permission.NewAPI(store, logger)
	})

	JustBeforeEach(func() {
		r = room.FakeRoom()
		r.ID = "r1"
		channel = room.FakeChannel(r.ID)
		channel.ID = "c1"
		err := store.Atomic(ctx, func(tx room.Tx) error {
			if err := tx.CreateRoom(ctx, r); err != nil {
				return err
			}
			if err := tx.CreateChannel(ctx, channel); err != nil {
				return err
			}
			for id, role := range map[string]room.Role{
				"admin":  room.RoleAdmin,
				"mod":    room.RoleModerator,
				"member": room.RoleMember,
			} {
				u := room.FakeUser()
				u.ID = id
				if err := tx.CreateUser(ctx, u); err != nil {
					return err
				}
				err := tx.CreateMember(ctx, &room.Member{
					ID: "m-" + id, RoomID: r.ID, UserID: id, Role: role,
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	})

	Describe("IsMember", func() {
		It("should report membership", func() {
			ok, err := api.IsMember(ctx, r.ID, "member")
			Expect(err).To(BeNil())
			Expect(ok).To(BeTrue())
		})

		It("should answer false for outsiders without an error", func() {
			ok, err := api.IsMember(ctx, r.ID, "stranger")
			Expect(err).To(BeNil())
			Expect(ok).To(BeFalse())
		})

		When("room does not exist", func() {
			It("should surface not found", func() {
				_, err := api.IsMember(ctx, "ghost", "member")
				Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			})
		})
	})

	Describe("HasRole", func() {
		It("should match the exact role only", func() {
			ok, err := api.HasRole(ctx, r.ID, "admin", room.RoleAdmin)
			Expect(err).To(BeNil())
			Expect(ok).To(BeTrue())

			// no hierarchy: admin does not satisfy a moderator check
			ok, err = api.HasRole(ctx, r.ID, "admin", room.RoleModerator)
			Expect(err).To(BeNil())
			Expect(ok).To(BeFalse())

			ok, err = api.HasRole(ctx, r.ID, "mod", room.RoleModerator)
			Expect(err).To(BeNil())
			Expect(ok).To(BeTrue())
		})

		It("should answer false for non-members", func() {
			ok, err := api.HasRole(ctx, r.ID, "stranger", room.RoleMember)
			Expect(err).To(BeNil())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("IsMemberViaChannel", func() {
		It("should resolve membership through the channel's room", func() {
			ok, err := api.IsMemberViaChannel(ctx, channel.ID, "member")
			Expect(err).To(BeNil())
			Expect(ok).To(BeTrue())

			ok, err = api.IsMemberViaChannel(ctx, channel.ID, "stranger")
			Expect(err).To(BeNil())
			Expect(ok).To(BeFalse())
		})

		When("channel does not exist", func() {
			It("should surface not found", func() {
				_, err := api.IsMemberViaChannel(ctx, "ghost", "member")
				Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			})
		})
	})
})
