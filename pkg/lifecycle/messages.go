package lifecycle

import (
	"context"
	"time"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// NewMessageParam carries a message posted to a channel
type NewMessageParam struct {
	ActorID   string
	ChannelID string
	Content   string
	Upload    *FileUpload
}

// UpdateMessageParam carries a message edit
type UpdateMessageParam struct {
	ActorID string
	ID      string
	Content string
}

// canTouchMessage implements the edit/delete gate: the author may,
// and so may a moderator or an admin of the room. The two role
// checks are explicit because roles do not form a hierarchy.
func (a *API) canTouchMessage(ctx context.Context, m *room.Message, actorID string) error {
	if m.UserID == actorID {
		return nil
	}
	mod, err := a.Perms.HasRole(ctx, m.RoomID, actorID, room.RoleModerator)
	if err != nil {
		return a.storeErr(err)
	}
	if mod {
		return nil
	}
	admin, err := a.Perms.HasRole(ctx, m.RoomID, actorID, room.RoleAdmin)
	if err != nil {
		return a.storeErr(err)
	}
	if admin {
		return nil
	}
	return room.Denied(room.OwnerOrModError)
}

// CreateMessage will post a message into a channel on behalf of a
// member, optionally with an upload subject to both file quotas
func (a *API) CreateMessage(ctx context.Context, param NewMessageParam) (*room.Message, error) {
	if param.Content == "" && param.Upload.empty() {
		return nil, room.Invalid("message needs content or an upload")
	}
	channel, err := a.Store.ChannelByID(ctx, param.ChannelID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	ok, err := a.Perms.IsMemberViaChannel(ctx, channel.ID, param.ActorID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if !ok {
		return nil, room.Denied(room.MemberRequiredError)
	}

	var upload *room.File
	if !param.Upload.empty() {
		upload, err = a.uploadFile(ctx, channel.RoomID, room.FileMessageUpload, param.Upload)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	message := &room.Message{
		ID:        newID(),
		ChannelID: channel.ID,
		RoomID:    channel.RoomID,
		UserID:    param.ActorID,
		Content:   param.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if upload != nil {
		message.FileID = upload.ID
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if upload != nil {
			if err := tx.CreateFile(ctx, upload); err != nil {
				return err
			}
		}
		return tx.CreateMessage(ctx, message)
	})
	if err != nil {
		if upload != nil {
			a.discardBlob(ctx, upload.URL)
		}
		return nil, a.storeErr(err)
	}

	if upload != nil {
		a.recordAudit(ctx, room.AuditFileCreated, upload.ID, upload, channel.RoomID, channel.ID, param.ActorID)
	}
	a.emit(room.MessageCreated, &room.MessageEventPayload{
		ID: message.ID, ChannelID: channel.ID, RoomID: channel.RoomID,
		UserID: param.ActorID, Content: message.Content,
	})
	return message, nil
}

// UpdateMessage will edit a message's content
func (a *API) UpdateMessage(ctx context.Context, param UpdateMessageParam) (*room.Message, error) {
	message, err := a.Store.MessageByID(ctx, param.ID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	err = a.canTouchMessage(ctx, message, param.ActorID)
	if err != nil {
		return nil, err
	}
	message.Content = param.Content
	message.UpdatedAt = time.Now()
	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		return tx.SaveMessage(ctx, message)
	})
	if err != nil {
		return nil, a.storeErr(err)
	}
	a.emit(room.MessageUpdated, &room.MessageEventPayload{
		ID: message.ID, ChannelID: message.ChannelID, RoomID: message.RoomID,
		UserID: message.UserID, Content: message.Content, System: message.System,
	})
	return message, nil
}

// DeleteMessage will remove a message and its upload, blob last
func (a *API) DeleteMessage(ctx context.Context, actorID, id string) error {
	message, err := a.Store.MessageByID(ctx, id)
	if err != nil {
		return a.storeErr(err)
	}
	err = a.canTouchMessage(ctx, message, actorID)
	if err != nil {
		return err
	}
	var upload *room.File
	if message.FileID != "" {
		upload, err = a.Store.FileByID(ctx, message.FileID)
		if err != nil && !room.IsKind(err, room.KindNotFound) {
			return a.storeErr(err)
		}
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if upload != nil {
			if err := tx.DeleteFile(ctx, upload.ID); err != nil {
				return err
			}
		}
		return tx.DeleteMessage(ctx, message.ID)
	})
	if err != nil {
		return a.storeErr(err)
	}

	if upload != nil {
		a.discardBlob(ctx, upload.URL)
		a.recordAudit(ctx, room.AuditFileDeleted, upload.ID, upload, message.RoomID, message.ChannelID, actorID)
	}
	a.emit(room.MessageDeleted, &room.MessageEventPayload{
		ID: message.ID, ChannelID: message.ChannelID, RoomID: message.RoomID,
		UserID: message.UserID, System: message.System,
	})
	return nil
}
