package audit_test

import (
	"context"
	"encoding/json"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/audit"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/connector"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/relstore"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

var _ = Describe("Recorder", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		logger   *zap.SugaredLogger
		store    *relstore.Store
		recorder *audit.Recorder
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
		recorder = audit.NewRecorder(store, logger)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	})

	Describe("Record", func() {
		It("should append an entry with a JSON snapshot", func() {
			r := room.FakeRoom()
			r.ID = "r1"
			err := recorder.Record(ctx,
				room.AuditRoomCreated, r.ID, r, r.ID, "", "u1")
			Expect(err).To(BeNil())

			entries, err := store.AuditsByRoom(ctx, r.ID)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Kind).To(Equal(room.AuditRoomCreated))
			Expect(entries[0].EntityID).To(Equal(r.ID))
			Expect(entries[0].ActorID).To(Equal("u1"))

			snapshot := &room.Room{}
			err = json.Unmarshal(entries[0].Snapshot, snapshot)
			Expect(err).To(BeNil())
			Expect(snapshot.Name).To(Equal(r.Name))
		})

		It("should keep appending, never overwriting", func() {
			for range [3]int{} {
				err := recorder.Record(ctx,
					room.AuditFileDeleted, "f1", nil, "r1", "c1", "u1")
				Expect(err).To(BeNil())
			}
			entries, err := store.AuditsByRoom(ctx, "r1")
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(3))
		})

		When("snapshot cannot be serialized", func() {
			It("should record the entry without one", func() {
				err := recorder.Record(ctx,
					room.AuditRoomEdited, "r1", make(chan int), "r1", "", "u1")
				Expect(err).To(BeNil())
				entries, err := store.AuditsByRoom(ctx, "r1")
				Expect(err).To(BeNil())
				Expect(entries).To(HaveLen(1))
				Expect(entries[0].Snapshot).To(BeEmpty())
			})
		})
	})
})
