// Package audit appends immutable lifecycle records. The recorder
// is invoked by the lifecycle engine as an explicit post-commit
// step with an explicit kind, it is never wired into persistence
// layer hooks.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// NewRecorder will create new instance of audit recorder
func NewRecorder(store room.Store, logger *zap.SugaredLogger) *Recorder {
	return &Recorder{
		Store:  store,
		Logger: logger,
	}
}

// Recorder writes append-only audit entries
type Recorder struct {
	Store  room.Store
	Logger *zap.SugaredLogger
}

// Record appends one entry capturing a snapshot of the affected
// entity. The snapshot is marshalled as JSON, a snapshot that does
// not marshal is recorded without one.
func (r *Recorder) Record(
	ctx context.Context,
	kind room.AuditKind,
	entityID string,
	snapshot interface{},
	roomID, channelID, actorID string,
) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		r.Logger.Warnw("audit snapshot not serializable",
			"kind", kind, "entity_id", entityID, "error", err)
		raw = nil
	}
	entry := &room.AuditEntry{
		ID:        ulid.Make().String(),
		Kind:      kind,
		EntityID:  entityID,
		RoomID:    roomID,
		ChannelID: channelID,
		ActorID:   actorID,
		Snapshot:  raw,
		CreatedAt: time.Now(),
	}
	return r.Store.AppendAudit(ctx, entry)
}
