// Package permission answers role gated predicates about room
// membership. It is read only and takes no side effects.
package permission

import (
	"context"

	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// NewAPI will create new instance of permission API
func NewAPI(store room.Store, logger *zap.SugaredLogger) *API {
	return &API{
		Store:  store,
		Logger: logger,
	}
}

// API resolves a principal's membership and role in a room
type API struct {
	Store  room.Store
	Logger *zap.SugaredLogger
}

// IsMember reports whether user belongs to room. A missing room
// surfaces not-found, a missing membership is false, not an error.
func (a *API) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	_, err := a.Store.RoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	_, err = a.Store.MemberOf(ctx, roomID, userID)
	if err != nil {
		if room.IsKind(err, room.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HasRole reports whether user holds exactly the given role in
// room. There is no role hierarchy: admin does not satisfy a
// moderator check, call sites wanting "moderator or above" must
// check each role explicitly.
func (a *API) HasRole(ctx context.Context, roomID, userID string, role room.Role) (bool, error) {
	_, err := a.Store.RoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	member, err := a.Store.MemberOf(ctx, roomID, userID)
	if err != nil {
		if room.IsKind(err, room.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.Role == role, nil
}

// IsMemberViaChannel resolves the channel's room first and then
// answers membership, failing not-found when the channel is gone
func (a *API) IsMemberViaChannel(ctx context.Context, channelID, userID string) (bool, error) {
	channel, err := a.Store.ChannelByID(ctx, channelID)
	if err != nil {
		return false, err
	}
	return a.IsMember(ctx, channel.RoomID, userID)
}
