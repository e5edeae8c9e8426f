// Package quota evaluates proposed resource deltas against a
// room's configured limits. Checks are advisory reads, not atomic
// reservations: two concurrent writers may both pass before either
// commits, which is an accepted availability trade-off.
package quota

import (
	"context"

	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// Limits are the fallback ceilings applied when a room carries no
// explicit setting. They are injected at construction time, never
// read from the process environment inside business logic.
type Limits struct {
	TotalBytesAllowed  int64 `mapstructure:"total_bytes_allowed"`
	SingleBytesAllowed int64 `mapstructure:"single_bytes_allowed"`
	MaxUsers           int   `mapstructure:"max_users"`
	MaxChannels        int   `mapstructure:"max_channels"`
	RetentionDays      int   `mapstructure:"retention_days"`
}

// DefaultLimits is the default quota configuration
var DefaultLimits = Limits{
	TotalBytesAllowed:  512 << 20,
	SingleBytesAllowed: 8 << 20,
	MaxUsers:           100,
	MaxChannels:        25,
	RetentionDays:      180,
}

// NewAPI will create new instance of quota API
func NewAPI(store room.Store, defaults Limits, logger *zap.SugaredLogger) *API {
	return &API{
		Store:    store,
		Defaults: defaults,
		Logger:   logger,
	}
}

// API computes current aggregate usage and evaluates deltas
type API struct {
	Store    room.Store
	Defaults Limits
	Logger   *zap.SugaredLogger
}

// WouldExceedStorageBytes reports whether adding addedBytes to the
// room's stored file sizes would pass its total bytes limit
func (a *API) WouldExceedStorageBytes(ctx context.Context, roomID string, addedBytes int64) (bool, error) {
	r, err := a.Store.RoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	usage, err := a.Store.Usage(ctx, roomID)
	if err != nil {
		return false, err
	}
	limit := r.FileSettings.TotalBytesAllowed
	if limit == 0 {
		limit = a.Defaults.TotalBytesAllowed
	}
	return usage.Bytes+addedBytes > limit, nil
}

// WouldExceedSingleFileBytes reports whether one file of fileBytes
// passes the room's single file limit
func (a *API) WouldExceedSingleFileBytes(ctx context.Context, roomID string, fileBytes int64) (bool, error) {
	r, err := a.Store.RoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	limit := r.FileSettings.SingleBytesAllowed
	if limit == 0 {
		limit = a.Defaults.SingleBytesAllowed
	}
	return fileBytes > limit, nil
}

// WouldExceedMemberCount reports whether adding addCount members
// passes the room's member limit
func (a *API) WouldExceedMemberCount(ctx context.Context, roomID string, addCount int) (bool, error) {
	r, err := a.Store.RoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	usage, err := a.Store.Usage(ctx, roomID)
	if err != nil {
		return false, err
	}
	limit := r.UserSettings.MaxUsers
	if limit == 0 {
		limit = a.Defaults.MaxUsers
	}
	return usage.Members+addCount > limit, nil
}

// WouldExceedChannelCount reports whether adding addCount channels
// passes the room's channel limit
func (a *API) WouldExceedChannelCount(ctx context.Context, roomID string, addCount int) (bool, error) {
	r, err := a.Store.RoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	usage, err := a.Store.Usage(ctx, roomID)
	if err != nil {
		return false, err
	}
	limit := r.ChannelSettings.MaxChannels
	if limit == 0 {
		limit = a.Defaults.MaxChannels
	}
	return usage.Channels+addCount > limit, nil
}
