// Package retention ages out stored files. A daily batch job walks
// every room, resolves its retention period and removes files older
// than the cutoff, blob first, database row second.
package retention

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/audit"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/blob"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// DefaultSchedule runs the sweep every day at 03:00
const DefaultSchedule = "0 3 * * *"

// DefaultPageSize bounds one batch of rooms or files
const DefaultPageSize = 100

// NewSweeper will create new instance of retention sweeper
func NewSweeper(
	store room.Store,
	blobs blob.Store,
	recorder *audit.Recorder,
	defaultDays int,
	pageSize int,
	logger *zap.SugaredLogger,
) *Sweeper {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Sweeper{
		Store:       store,
		Blobs:       blobs,
		Audit:       recorder,
		DefaultDays: defaultDays,
		PageSize:    pageSize,
		Logger:      logger,
	}
}

// Sweeper deletes files past their room's retention period
type Sweeper struct {
	Store       room.Store
	Blobs       blob.Store
	Audit       *audit.Recorder
	DefaultDays int
	PageSize    int
	Logger      *zap.SugaredLogger
}

// Schedule registers the sweep on c using the given cron expression
func (s *Sweeper) Schedule(c *cron.Cron, expr string) error {
	if expr == "" {
		expr = DefaultSchedule
	}
	_, err := c.AddFunc(expr, func() {
		err := s.Sweep(context.Background())
		if err != nil {
			s.Logger.Errorw("retention sweep failed", "error", err)
		}
	})
	return err
}

// Sweep walks every room once and removes its stale files. A room
// or file vanishing between batches counts as already handled, one
// file failing to delete never stops the rest of the sweep.
func (s *Sweeper) Sweep(ctx context.Context) error {
	offset := 0
	removed := 0
	for {
		rooms, _, err := s.Store.Rooms(ctx, "", offset, s.PageSize)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			break
		}
		for _, r := range rooms {
			n, err := s.sweepRoom(ctx, r)
			removed += n
			if err != nil {
				s.Logger.Errorw("room sweep failed",
					"room_id", r.ID, "error", err)
			}
		}
		if len(rooms) < s.PageSize {
			break
		}
		offset += s.PageSize
	}
	s.Logger.Infow("retention sweep finished", "files_removed", removed)
	return nil
}

// sweepRoom removes one room's files older than its cutoff,
// oldest first. Pages restart at offset zero because each handled
// row is deleted before the next page is fetched.
func (s *Sweeper) sweepRoom(ctx context.Context, r *room.Room) (int, error) {
	days := r.FileSettings.RetentionDays
	if days == 0 {
		days = s.DefaultDays
	}
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	removed := 0
	for {
		files, err := s.Store.FilesOlderThan(ctx, r.ID, cutoff, 0, s.PageSize)
		if err != nil {
			if room.IsKind(err, room.KindNotFound) {
				return removed, nil
			}
			return removed, err
		}
		if len(files) == 0 {
			return removed, nil
		}
		progressed := false
		for _, f := range files {
			err = s.sweepFile(ctx, r, f)
			if err != nil {
				s.Logger.Errorw("stale file not removed",
					"room_id", r.ID, "file_id", f.ID, "error", err)
				continue
			}
			progressed = true
			removed++
		}
		// every file in the page failed, fetching the same page
		// again would loop forever
		if !progressed {
			return removed, nil
		}
	}
}

func (s *Sweeper) sweepFile(ctx context.Context, r *room.Room, f *room.File) error {
	err := s.Blobs.Delete(ctx, f.URL)
	if err != nil {
		return err
	}
	err = s.Store.Atomic(ctx, func(tx room.Tx) error {
		return tx.DeleteFile(ctx, f.ID)
	})
	if err != nil {
		return err
	}
	err = s.Audit.Record(ctx, room.AuditFileDeleted, f.ID, f, r.ID, "", "")
	if err != nil {
		s.Logger.Errorw("failed to append audit entry",
			"file_id", f.ID, "error", err)
	}
	s.Logger.Infow("stale file removed",
		"room_id", r.ID, "file_id", f.ID, "size", f.Size)
	return nil
}
