package lifecycle

import (
	"context"
	"time"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/utils"
)

// NewChannelParam carries a channel creation request
type NewChannelParam struct {
	ActorID string
	RoomID  string
	Name    string
	Kind    string
	Avatar  *FileUpload
}

// UpdateChannelParam carries a channel edit request, nil fields
// keep the current value
type UpdateChannelParam struct {
	ActorID string
	ID      string
	Name    *string
	Avatar  *FileUpload
}

// NewWebhookParam carries a webhook creation request
type NewWebhookParam struct {
	ActorID   string
	ChannelID string
	Name      string
	Avatar    *FileUpload
}

// CreateChannel will add a channel to a room, gated on the admin
// role and the room's channel count quota
func (a *API) CreateChannel(ctx context.Context, param NewChannelParam) (*room.Channel, error) {
	if param.Name == "" {
		return nil, room.Invalid("channel name is required")
	}
	if param.Kind == "" {
		param.Kind = "text"
	}
	if !utils.ContainString(room.ChannelKinds, param.Kind) {
		return nil, room.Invalid("unknown channel kind " + param.Kind)
	}
	r, err := a.Store.RoomByID(ctx, param.RoomID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	err = a.requireAdmin(ctx, r.ID, param.ActorID)
	if err != nil {
		return nil, err
	}
	_, err = a.Store.ChannelByName(ctx, r.ID, param.Name, param.Kind)
	if err == nil {
		return nil, room.Duplicate(room.ChannelAlreadyExistError)
	}
	if !room.IsKind(err, room.KindNotFound) {
		return nil, a.storeErr(err)
	}
	crowded, err := a.Quotas.WouldExceedChannelCount(ctx, r.ID, 1)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if crowded {
		return nil, room.Exceeded(room.RoomChannelCountError)
	}

	var avatar *room.File
	if !param.Avatar.empty() {
		avatar, err = a.uploadFile(ctx, r.ID, room.FileChannelAvatar, param.Avatar)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	channel := &room.Channel{
		ID:        newID(),
		RoomID:    r.ID,
		Name:      param.Name,
		Kind:      param.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if avatar != nil {
		channel.AvatarFileID = avatar.ID
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if avatar != nil {
			if err := tx.CreateFile(ctx, avatar); err != nil {
				return err
			}
		}
		return tx.CreateChannel(ctx, channel)
	})
	if err != nil {
		if avatar != nil {
			a.discardBlob(ctx, avatar.URL)
		}
		return nil, a.storeErr(err)
	}

	if avatar != nil {
		a.recordAudit(ctx, room.AuditFileCreated, avatar.ID, avatar, r.ID, channel.ID, param.ActorID)
	}
	a.recordAudit(ctx, room.AuditChannelCreated, channel.ID, channel, r.ID, channel.ID, param.ActorID)
	a.emit(room.ChannelCreated, &room.ChannelEventPayload{
		ID: channel.ID, RoomID: r.ID, Name: channel.Name, Kind: channel.Kind,
	})
	return channel, nil
}

// UpdateChannel will rename a channel or replace its avatar,
// deleting the superseded blob only after the commit
func (a *API) UpdateChannel(ctx context.Context, param UpdateChannelParam) (*room.Channel, error) {
	channel, err := a.Store.ChannelByID(ctx, param.ID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	err = a.requireAdmin(ctx, channel.RoomID, param.ActorID)
	if err != nil {
		return nil, err
	}
	if param.Name != nil && *param.Name != channel.Name {
		_, err = a.Store.ChannelByName(ctx, channel.RoomID, *param.Name, channel.Kind)
		if err == nil {
			return nil, room.Duplicate(room.ChannelAlreadyExistError)
		}
		if !room.IsKind(err, room.KindNotFound) {
			return nil, a.storeErr(err)
		}
		channel.Name = *param.Name
	}

	var newAvatar, oldAvatar *room.File
	if !param.Avatar.empty() {
		newAvatar, err = a.uploadFile(ctx, channel.RoomID, room.FileChannelAvatar, param.Avatar)
		if err != nil {
			return nil, err
		}
		if channel.AvatarFileID != "" {
			oldAvatar, err = a.Store.FileByID(ctx, channel.AvatarFileID)
			if err != nil && !room.IsKind(err, room.KindNotFound) {
				a.discardBlob(ctx, newAvatar.URL)
				return nil, a.storeErr(err)
			}
		}
		channel.AvatarFileID = newAvatar.ID
	}
	channel.UpdatedAt = time.Now()

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if newAvatar != nil {
			if err := tx.CreateFile(ctx, newAvatar); err != nil {
				return err
			}
		}
		if err := tx.SaveChannel(ctx, channel); err != nil {
			return err
		}
		if oldAvatar != nil {
			return tx.DeleteFile(ctx, oldAvatar.ID)
		}
		return nil
	})
	if err != nil {
		if newAvatar != nil {
			a.discardBlob(ctx, newAvatar.URL)
		}
		return nil, a.storeErr(err)
	}

	if oldAvatar != nil {
		a.discardBlob(ctx, oldAvatar.URL)
		a.recordAudit(ctx, room.AuditFileDeleted, oldAvatar.ID, oldAvatar, channel.RoomID, channel.ID, param.ActorID)
	}
	if newAvatar != nil {
		a.recordAudit(ctx, room.AuditFileCreated, newAvatar.ID, newAvatar, channel.RoomID, channel.ID, param.ActorID)
	}
	a.recordAudit(ctx, room.AuditChannelEdited, channel.ID, channel, channel.RoomID, channel.ID, param.ActorID)
	a.emit(room.ChannelUpdated, &room.ChannelEventPayload{
		ID: channel.ID, RoomID: channel.RoomID, Name: channel.Name, Kind: channel.Kind,
	})
	return channel, nil
}

// DeleteChannel will destroy a channel together with its messages,
// upload files, webhooks and avatar. When the room's join channel
// pointed at it the reference is nulled in the same transaction.
func (a *API) DeleteChannel(ctx context.Context, actorID, id string) error {
	channel, err := a.Store.ChannelByID(ctx, id)
	if err != nil {
		return a.storeErr(err)
	}
	err = a.requireAdmin(ctx, channel.RoomID, actorID)
	if err != nil {
		return err
	}
	r, err := a.Store.RoomByID(ctx, channel.RoomID)
	if err != nil {
		return a.storeErr(err)
	}

	// collect every file the channel transitively owns
	files := []*room.File{}
	if channel.AvatarFileID != "" {
		f, err := a.Store.FileByID(ctx, channel.AvatarFileID)
		if err == nil {
			files = append(files, f)
		} else if !room.IsKind(err, room.KindNotFound) {
			return a.storeErr(err)
		}
	}
	messages, err := a.Store.MessagesByChannel(ctx, channel.ID)
	if err != nil {
		return a.storeErr(err)
	}
	for _, m := range messages {
		if m.FileID == "" {
			continue
		}
		f, err := a.Store.FileByID(ctx, m.FileID)
		if err != nil {
			if room.IsKind(err, room.KindNotFound) {
				continue
			}
			return a.storeErr(err)
		}
		files = append(files, f)
	}
	webhooks, err := a.Store.WebhooksByRoom(ctx, channel.RoomID)
	if err != nil {
		return a.storeErr(err)
	}
	for _, w := range webhooks {
		if w.ChannelID != channel.ID || w.AvatarFileID == "" {
			continue
		}
		f, err := a.Store.FileByID(ctx, w.AvatarFileID)
		if err != nil {
			if room.IsKind(err, room.KindNotFound) {
				continue
			}
			return a.storeErr(err)
		}
		files = append(files, f)
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if r.JoinChannelID == channel.ID {
			r.JoinChannelID = ""
			if err := tx.SaveRoom(ctx, r); err != nil {
				return err
			}
		}
		if err := tx.DeleteMessagesByChannel(ctx, channel.ID); err != nil {
			return err
		}
		for _, f := range files {
			if err := tx.DeleteFile(ctx, f.ID); err != nil {
				return err
			}
		}
		if err := tx.DeleteWebhooksByChannel(ctx, channel.ID); err != nil {
			return err
		}
		return tx.DeleteChannel(ctx, channel.ID)
	})
	if err != nil {
		return a.storeErr(err)
	}

	for _, f := range files {
		a.discardBlob(ctx, f.URL)
		a.recordAudit(ctx, room.AuditFileDeleted, f.ID, f, channel.RoomID, channel.ID, actorID)
	}
	a.recordAudit(ctx, room.AuditChannelDeleted, channel.ID, channel, channel.RoomID, channel.ID, actorID)
	a.emit(room.ChannelDestroyed, &room.ChannelEventPayload{
		ID: channel.ID, RoomID: channel.RoomID, Name: channel.Name, Kind: channel.Kind,
	})
	return nil
}

// CreateWebhook will attach a webhook to a channel
func (a *API) CreateWebhook(ctx context.Context, param NewWebhookParam) (*room.Webhook, error) {
	if param.Name == "" {
		return nil, room.Invalid("webhook name is required")
	}
	channel, err := a.Store.ChannelByID(ctx, param.ChannelID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	err = a.requireAdmin(ctx, channel.RoomID, param.ActorID)
	if err != nil {
		return nil, err
	}

	var avatar *room.File
	if !param.Avatar.empty() {
		avatar, err = a.uploadFile(ctx, channel.RoomID, room.FileWebhookAvatar, param.Avatar)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	webhook := &room.Webhook{
		ID:        newID(),
		ChannelID: channel.ID,
		RoomID:    channel.RoomID,
		Name:      param.Name,
		Token:     newID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if avatar != nil {
		webhook.AvatarFileID = avatar.ID
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if avatar != nil {
			if err := tx.CreateFile(ctx, avatar); err != nil {
				return err
			}
		}
		return tx.CreateWebhook(ctx, webhook)
	})
	if err != nil {
		if avatar != nil {
			a.discardBlob(ctx, avatar.URL)
		}
		return nil, a.storeErr(err)
	}

	if avatar != nil {
		a.recordAudit(ctx, room.AuditFileCreated, avatar.ID, avatar, channel.RoomID, channel.ID, param.ActorID)
	}
	return webhook, nil
}

// DeleteWebhook will remove a webhook and its avatar
func (a *API) DeleteWebhook(ctx context.Context, actorID, id string) error {
	webhook, err := a.Store.WebhookByID(ctx, id)
	if err != nil {
		return a.storeErr(err)
	}
	err = a.requireAdmin(ctx, webhook.RoomID, actorID)
	if err != nil {
		return err
	}
	var avatar *room.File
	if webhook.AvatarFileID != "" {
		avatar, err = a.Store.FileByID(ctx, webhook.AvatarFileID)
		if err != nil && !room.IsKind(err, room.KindNotFound) {
			return a.storeErr(err)
		}
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if avatar != nil {
			if err := tx.DeleteFile(ctx, avatar.ID); err != nil {
				return err
			}
		}
		return tx.DeleteWebhook(ctx, webhook.ID)
	})
	if err != nil {
		return a.storeErr(err)
	}

	if avatar != nil {
		a.discardBlob(ctx, avatar.URL)
		a.recordAudit(ctx, room.AuditFileDeleted, avatar.ID, avatar, webhook.RoomID, webhook.ChannelID, actorID)
	}
	return nil
}
