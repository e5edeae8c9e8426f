package retention_test

import (
	"context"
	"errors"
	"time"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/audit"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/blob"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/connector"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/relstore"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/retention"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// flakyBlobs fails deletion of one chosen url
type flakyBlobs struct {
	*blob.MemoryStore
	failURL string
}

func (f *flakyBlobs) Delete(ctx context.Context, url string) error {
	if url == f.failURL {
		return errors.New("service unavailable")
	}
	return f.MemoryStore.Delete(ctx, url)
}

var _ = Describe("Sweeper", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		logger  *zap.SugaredLogger
		store   *relstore.Store
		blobs   *blob.MemoryStore
		sweeper *retention.Sweeper
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
		recorder := audit.NewRecorder(store, logger)
		sweeper = retention.NewSweeper(store, blobs, recorder, 180, 10, logger)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	})

	seedRoom := func(id string, retentionDays int) *room.Room {
		r := room.FakeRoom()
		r.ID = id
		r.FileSettings.RetentionDays = retentionDays
		err := store.Atomic(ctx, func(tx room.Tx) error {
			return tx.CreateRoom(ctx, r)
		})
		Expect(err).To(BeNil())
		return r
	}

	seedFile := func(roomID string, age time.Duration) *room.File {
		url, err := blobs.Put(ctx, []byte("payload"), "image/png", "rooms/"+roomID)
		Expect(err).To(BeNil())
		f := room.FakeFile(roomID, room.FileMessageUpload)
		f.URL = url
		f.CreatedAt = time.Now().Add(-age)
		err = store.Atomic(ctx, func(tx room.Tx) error {
			return tx.CreateFile(ctx, f)
		})
		Expect(err).To(BeNil())
		return f
	}

	It("should remove files older than the room's retention period", func() {
		r := seedRoom("r1", 30)
		stale := seedFile(r.ID, 31*24*time.Hour)
		fresh := seedFile(r.ID, 1*24*time.Hour)

		err := sweeper.Sweep(ctx)
		Expect(err).To(BeNil())

		_, err = store.FileByID(ctx, stale.ID)
		Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
		Expect(blobs.Has(stale.URL)).To(BeFalse())

		kept, err := store.FileByID(ctx, fresh.ID)
		Expect(err).To(BeNil())
		Expect(blobs.Has(kept.URL)).To(BeTrue())

		entries, err := store.AuditsByRoom(ctx, r.ID)
		Expect(err).To(BeNil())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Kind).To(Equal(room.AuditFileDeleted))
		Expect(entries[0].EntityID).To(Equal(stale.ID))
	})

	It("should fall back to the default retention period", func() {
		// zero retention setting means the configured default
		r := seedRoom("r1", 0)
		stale := seedFile(r.ID, 181*24*time.Hour)
		fresh := seedFile(r.ID, 179*24*time.Hour)

		err := sweeper.Sweep(ctx)
		Expect(err).To(BeNil())

		_, err = store.FileByID(ctx, stale.ID)
		Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
		_, err = store.FileByID(ctx, fresh.ID)
		Expect(err).To(BeNil())
	})

	It("should sweep rooms in pages past the page size", func() {
		for i := 0; i < 25; i++ {
			r := seedRoom("room-"+string(rune('a'+i)), 30)
			seedFile(r.ID, 40*24*time.Hour)
		}
		err := sweeper.Sweep(ctx)
		Expect(err).To(BeNil())
		Expect(blobs.Len()).To(Equal(0))
	})

	When("one file's blob deletion fails", func() {
		It("should continue with the remaining files", func() {
			recorder := audit.NewRecorder(store, logger)
			r := seedRoom("r1", 30)
			doomed := seedFile(r.ID, 40*24*time.Hour)
			other := seedFile(r.ID, 40*24*time.Hour)
			flaky := &flakyBlobs{MemoryStore: blobs, failURL: doomed.URL}
			sweeper = retention.NewSweeper(store, flaky, recorder, 180, 10, logger)

			err := sweeper.Sweep(ctx)
			Expect(err).To(BeNil())

			// the failing file survives, the rest is gone
			_, err = store.FileByID(ctx, doomed.ID)
			Expect(err).To(BeNil())
			Expect(blobs.Has(doomed.URL)).To(BeTrue())
			_, err = store.FileByID(ctx, other.ID)
			Expect(room.KindOf(err)).To(Equal(room.KindNotFound))
			Expect(blobs.Has(other.URL)).To(BeFalse())
		})
	})
})
