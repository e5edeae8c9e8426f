package lifecycle

import (
	"context"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/utils"
)

const (
	// InviteIDKey is the invite link id claim inside invite tokens
	InviteIDKey = "invite_id"
	// InviteRoomKey is the room id claim inside invite tokens
	InviteRoomKey = "room_id"
)

// NewInviteParam carries an invite link creation request
type NewInviteParam struct {
	ActorID   string
	RoomID    string
	ExpiresAt *time.Time
}

// CreateInviteLink will issue an invite link for a room. The token
// is a signed handle carrying the link id, the database row stays
// authoritative for expiry.
func (a *API) CreateInviteLink(ctx context.Context, param NewInviteParam) (*room.InviteLink, error) {
	r, err := a.Store.RoomByID(ctx, param.RoomID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	err = a.requireAdmin(ctx, r.ID, param.ActorID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	link := &room.InviteLink{
		ID:        newID(),
		RoomID:    r.ID,
		CreatedBy: param.ActorID,
		ExpiresAt: param.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	claims := utils.Claims{
		InviteIDKey:   link.ID,
		InviteRoomKey: r.ID,
	}
	if param.ExpiresAt != nil {
		claims["exp"] = param.ExpiresAt.Unix()
	}
	token, err := utils.GenerateToken(a.InviteSecret, claims)
	if err != nil {
		a.Logger.Errorw("failed to sign invite token", "room_id", r.ID, "error", err)
		return nil, room.Internal()
	}
	link.Token = token
	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		return tx.CreateInvite(ctx, link)
	})
	if err != nil {
		return nil, a.storeErr(err)
	}
	return link, nil
}

// JoinRoom consumes an invite link: the caller becomes a member and
// a system message announces them in the room's join channel, or
// its first channel when none is configured
func (a *API) JoinRoom(ctx context.Context, actorID, token string) (*room.Member, error) {
	claims, err := utils.ValidateToken(a.InviteSecret, token)
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, room.Expired(room.InviteExpiredError)
		}
		return nil, room.Invalid("invite token is not valid")
	}
	inviteID, ok := claims[InviteIDKey].(string)
	if !ok {
		return nil, room.Invalid("invite token is not valid")
	}
	link, err := a.Store.InviteByID(ctx, inviteID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(time.Now()) {
		return nil, room.Expired(room.InviteExpiredError)
	}
	user, err := a.Store.UserByID(ctx, actorID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if !user.Verified {
		return nil, room.Denied(room.UserNotVerifiedError)
	}
	_, err = a.Store.MemberOf(ctx, link.RoomID, user.ID)
	if err == nil {
		return nil, room.Duplicate(room.MemberAlreadyExistError)
	}
	if !room.IsKind(err, room.KindNotFound) {
		return nil, a.storeErr(err)
	}
	full, err := a.Quotas.WouldExceedMemberCount(ctx, link.RoomID, 1)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if full {
		return nil, room.Exceeded(room.RoomUserCountError)
	}
	r, err := a.Store.RoomByID(ctx, link.RoomID)
	if err != nil {
		return nil, a.storeErr(err)
	}

	// announce into the configured join channel, else the oldest one
	joinChannelID := r.JoinChannelID
	if joinChannelID == "" {
		channels, err := a.Store.ChannelsByRoom(ctx, r.ID)
		if err != nil {
			return nil, a.storeErr(err)
		}
		if len(channels) > 0 {
			joinChannelID = channels[0].ID
		}
	}

	now := time.Now()
	member := &room.Member{
		ID:        newID(),
		RoomID:    r.ID,
		UserID:    user.ID,
		Role:      room.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var announce *room.Message
	if joinChannelID != "" {
		announce = &room.Message{
			ID:        newID(),
			ChannelID: joinChannelID,
			RoomID:    r.ID,
			Content:   strings.ReplaceAll(r.UserSettings.JoinMessage, "{name}", user.Name),
			System:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if err := tx.CreateMember(ctx, member); err != nil {
			return err
		}
		if announce != nil {
			return tx.CreateMessage(ctx, announce)
		}
		return nil
	})
	if err != nil {
		return nil, a.storeErr(err)
	}

	a.emit(room.UserJoinedRoom, &room.ParticipantEventPayload{
		UserID: user.ID, RoomID: r.ID, Role: string(member.Role),
	})
	if announce != nil {
		a.emit(room.MessageCreated, &room.MessageEventPayload{
			ID: announce.ID, ChannelID: announce.ChannelID, RoomID: r.ID,
			Content: announce.Content, System: true,
		})
	}
	return member, nil
}

// LeaveRoom removes the caller's own membership
func (a *API) LeaveRoom(ctx context.Context, actorID, roomID string) error {
	member, err := a.Store.MemberOf(ctx, roomID, actorID)
	if err != nil {
		return a.storeErr(err)
	}
	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		return tx.DeleteMember(ctx, member.ID)
	})
	if err != nil {
		return a.storeErr(err)
	}
	a.emit(room.UserLeftRoom, &room.ParticipantEventPayload{
		UserID: actorID, RoomID: roomID, Role: string(member.Role),
	})
	return nil
}

// KickUser removes another member, gated on the admin role
func (a *API) KickUser(ctx context.Context, actorID, roomID, userID string) error {
	err := a.requireAdmin(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	member, err := a.Store.MemberOf(ctx, roomID, userID)
	if err != nil {
		return a.storeErr(err)
	}
	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		return tx.DeleteMember(ctx, member.ID)
	})
	if err != nil {
		return a.storeErr(err)
	}
	a.emit(room.UserLeftRoom, &room.ParticipantEventPayload{
		UserID: userID, RoomID: roomID, Role: string(member.Role),
	})
	return nil
}
