// Package lifecycle orchestrates every create, update and delete of
// rooms, channels, files, members and invite links as one atomic
// unit against the storage port, coordinating the non-transactional
// blob store through compensating actions and recording an audit
// entry after each successful commit.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/audit"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/blob"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/permission"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/quota"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// NewAPI will create new instance of lifecycle API
func NewAPI(
	store room.Store,
	blobs blob.Store,
	perms *permission.API,
	quotas *quota.API,
	recorder *audit.Recorder,
	logger *zap.SugaredLogger,
	inviteSecret string,
) *API {
	return &API{
		Store:        store,
		Blobs:        blobs,
		Perms:        perms,
		Quotas:       quotas,
		Audit:        recorder,
		Logger:       logger,
		InviteSecret: inviteSecret,
	}
}

// API is the resource lifecycle engine
type API struct {
	Store        room.Store
	Blobs        blob.Store
	Perms        *permission.API
	Quotas       *quota.API
	Audit        *audit.Recorder
	Logger       *zap.SugaredLogger
	InviteSecret string
	Events       chan *room.Event
}

// GetEvents will return channel used to publish events
func (a *API) GetEvents() chan *room.Event {
	return a.Events
}

// SetEvents will set channel used to publish events
func (a *API) SetEvents(events chan *room.Event) {
	a.Events = events
}

// FileUpload is a binary payload handed over by the transport layer
type FileUpload struct {
	Bytes    []byte
	MimeType string
}

func (f *FileUpload) empty() bool {
	return f == nil || len(f.Bytes) == 0
}

func newID() string {
	return ulid.Make().String()
}

// emit publishes an event without blocking the mutation, a missing
// or slow subscriber drops the event
func (a *API) emit(event string, payload interface{}) {
	if a.Events == nil {
		return
	}
	e := &room.Event{
		Event:   event,
		Payload: payload,
		Time:    time.Now(),
	}
	select {
	case a.Events <- e:
	default:
		a.Logger.Debugw("event dropped, no subscriber ready", "event", event)
	}
}

// storeErr passes domain errors through and converts anything else
// coming from the storage layer into an opaque internal error,
// logging the cause on the way
func (a *API) storeErr(err error) error {
	var domErr *room.Error
	if errors.As(err, &domErr) {
		return err
	}
	a.Logger.Errorw("unexpected storage error", "error", err)
	return room.Internal()
}

// discardBlob is the compensating action: it removes a blob whose
// database row never materialized or no longer exists. Failures are
// logged only, an orphaned blob is acceptable collateral while a
// dangling database reference is not.
func (a *API) discardBlob(ctx context.Context, url string) {
	if url == "" {
		return
	}
	err := a.Blobs.Delete(ctx, url)
	if err != nil {
		a.Logger.Warnw("failed to delete blob", "url", url, "error", err)
	}
}

// recordAudit appends an audit entry after a committed transaction.
// The database already agrees with what happened, so an append
// failure is logged and the operation still succeeds.
func (a *API) recordAudit(
	ctx context.Context,
	kind room.AuditKind,
	entityID string,
	snapshot interface{},
	roomID, channelID, actorID string,
) {
	err := a.Audit.Record(ctx, kind, entityID, snapshot, roomID, channelID, actorID)
	if err != nil {
		a.Logger.Errorw("failed to append audit entry",
			"kind", kind, "entity_id", entityID, "error", err)
	}
}

// uploadFile checks both file quotas for an existing room and, when
// they pass, uploads the blob and returns the file row to insert.
// The blob store is never called when a quota check trips.
func (a *API) uploadFile(
	ctx context.Context,
	roomID string,
	kind room.FileKind,
	up *FileUpload,
) (*room.File, error) {
	size := int64(len(up.Bytes))
	tooBig, err := a.Quotas.WouldExceedSingleFileBytes(ctx, roomID, size)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if tooBig {
		return nil, room.Exceeded(room.SingleFileSizeError)
	}
	full, err := a.Quotas.WouldExceedStorageBytes(ctx, roomID, size)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if full {
		return nil, room.Exceeded(room.TotalFilesLimitError)
	}
	url, err := a.Blobs.Put(ctx, up.Bytes, up.MimeType, "rooms/"+roomID)
	if err != nil {
		a.Logger.Errorw("blob upload failed", "room_id", roomID, "error", err)
		return nil, room.Internal()
	}
	now := time.Now()
	return &room.File{
		ID:        newID(),
		RoomID:    roomID,
		URL:       url,
		Size:      size,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// requireAdmin fails unless user holds the admin role in room
func (a *API) requireAdmin(ctx context.Context, roomID, userID string) error {
	ok, err := a.Perms.HasRole(ctx, roomID, userID, room.RoleAdmin)
	if err != nil {
		return a.storeErr(err)
	}
	if !ok {
		return room.Denied(room.AdminRequiredError)
	}
	return nil
}

// requireMember fails unless user belongs to room
func (a *API) requireMember(ctx context.Context, roomID, userID string) error {
	ok, err := a.Perms.IsMember(ctx, roomID, userID)
	if err != nil {
		return a.storeErr(err)
	}
	if !ok {
		return room.Denied(room.MemberRequiredError)
	}
	return nil
}
