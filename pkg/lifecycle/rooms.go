package lifecycle

import (
	"context"
	"time"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// NewRoomParam carries a room creation request
type NewRoomParam struct {
	ActorID     string
	Name        string
	Description string
	Category    string
	Avatar      *FileUpload
}

// UpdateRoomParam carries a room edit request. Nil fields keep the
// current value, that is the single default policy for every
// optional parameter here.
type UpdateRoomParam struct {
	ActorID         string
	ID              string
	Name            *string
	Description     *string
	Category        *string
	JoinChannelID   *string
	Avatar          *FileUpload
	FileSettings    *room.FileSettings
	UserSettings    *room.UserSettings
	ChannelSettings *room.ChannelSettings
}

// PaginationParam bounds a listing request
type PaginationParam struct {
	Keyword string
	Offset  int
	Limit   int
}

// RoomPage is one page of the room directory
type RoomPage struct {
	Rooms []*room.Room
	Count int
}

// CreateRoom will create a new room owned by a verified user, who
// becomes its first admin member. Settings start from the
// configured defaults, the optional avatar is subject to the file
// quotas of those settings.
func (a *API) CreateRoom(ctx context.Context, param NewRoomParam) (*room.Room, error) {
	if param.Name == "" {
		return nil, room.Invalid("room name is required")
	}
	creator, err := a.Store.UserByID(ctx, param.ActorID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if !creator.Verified {
		return nil, room.Denied(room.UserNotVerifiedError)
	}
	// fail fast on a name collision before touching storage
	_, err = a.Store.RoomByName(ctx, param.Name)
	if err == nil {
		return nil, room.Duplicate(room.RoomAlreadyExistError)
	}
	if !room.IsKind(err, room.KindNotFound) {
		return nil, a.storeErr(err)
	}

	defaults := a.Quotas.Defaults
	now := time.Now()
	r := &room.Room{
		ID:          newID(),
		Name:        param.Name,
		Description: param.Description,
		Category:    param.Category,
		FileSettings: room.FileSettings{
			TotalBytesAllowed:  defaults.TotalBytesAllowed,
			SingleBytesAllowed: defaults.SingleBytesAllowed,
			RetentionDays:      defaults.RetentionDays,
		},
		UserSettings: room.UserSettings{
			MaxUsers:    defaults.MaxUsers,
			JoinMessage: "{name} joined the room",
		},
		ChannelSettings: room.ChannelSettings{
			MaxChannels: defaults.MaxChannels,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// the room does not exist yet, so its avatar is checked
	// against the settings it is being created with
	var avatar *room.File
	if !param.Avatar.empty() {
		size := int64(len(param.Avatar.Bytes))
		if size > r.FileSettings.SingleBytesAllowed {
			return nil, room.Exceeded(room.SingleFileSizeError)
		}
		if size > r.FileSettings.TotalBytesAllowed {
			return nil, room.Exceeded(room.TotalFilesLimitError)
		}
		url, err := a.Blobs.Put(ctx, param.Avatar.Bytes, param.Avatar.MimeType, "rooms/"+r.ID)
		if err != nil {
			a.Logger.Errorw("blob upload failed", "room_id", r.ID, "error", err)
			return nil, room.Internal()
		}
		avatar = &room.File{
			ID:        newID(),
			RoomID:    r.ID,
			URL:       url,
			Size:      size,
			Kind:      room.FileRoomAvatar,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.AvatarFileID = avatar.ID
	}

	member := &room.Member{
		ID:        newID(),
		RoomID:    r.ID,
		UserID:    creator.ID,
		Role:      room.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if avatar != nil {
			if err := tx.CreateFile(ctx, avatar); err != nil {
				return err
			}
		}
		if err := tx.CreateRoom(ctx, r); err != nil {
			return err
		}
		return tx.CreateMember(ctx, member)
	})
	if err != nil {
		if avatar != nil {
			a.discardBlob(ctx, avatar.URL)
		}
		return nil, a.storeErr(err)
	}

	if avatar != nil {
		a.recordAudit(ctx, room.AuditFileCreated, avatar.ID, avatar, r.ID, "", param.ActorID)
	}
	a.recordAudit(ctx, room.AuditRoomCreated, r.ID, r, r.ID, "", param.ActorID)
	a.emit(room.RoomCreated, &room.RoomEventPayload{
		ID: r.ID, Name: r.Name, Description: r.Description, Category: r.Category,
	})
	return r, nil
}

// GetRoom will return a room to one of its members
func (a *API) GetRoom(ctx context.Context, actorID, id string) (*room.Room, error) {
	r, err := a.Store.RoomByID(ctx, id)
	if err != nil {
		return nil, a.storeErr(err)
	}
	err = a.requireMember(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRooms will return a page of the room directory
func (a *API) ListRooms(ctx context.Context, param PaginationParam) (*RoomPage, error) {
	rooms, count, err := a.Store.Rooms(ctx, param.Keyword, param.Offset, param.Limit)
	if err != nil {
		return nil, a.storeErr(err)
	}
	return &RoomPage{Rooms: rooms, Count: count}, nil
}

// UpdateRoom will apply profile, settings and avatar changes to a
// room. A replaced avatar's old blob is only deleted once the
// transaction has committed, so a failure never leaves a file row
// pointing at a deleted blob.
func (a *API) UpdateRoom(ctx context.Context, param UpdateRoomParam) (*room.Room, error) {
	r, err := a.Store.RoomByID(ctx, param.ID)
	if err != nil {
		return nil, a.storeErr(err)
	}
	err = a.requireAdmin(ctx, r.ID, param.ActorID)
	if err != nil {
		return nil, err
	}
	if param.Name != nil && *param.Name != r.Name {
		_, err = a.Store.RoomByName(ctx, *param.Name)
		if err == nil {
			return nil, room.Duplicate(room.RoomAlreadyExistError)
		}
		if !room.IsKind(err, room.KindNotFound) {
			return nil, a.storeErr(err)
		}
		r.Name = *param.Name
	}
	if param.Description != nil {
		r.Description = *param.Description
	}
	if param.Category != nil {
		r.Category = *param.Category
	}
	if param.JoinChannelID != nil {
		if *param.JoinChannelID != "" {
			channel, err := a.Store.ChannelByID(ctx, *param.JoinChannelID)
			if err != nil {
				return nil, a.storeErr(err)
			}
			if channel.RoomID != r.ID {
				return nil, room.Invalid("join channel belongs to another room")
			}
		}
		r.JoinChannelID = *param.JoinChannelID
	}
	if param.FileSettings != nil {
		r.FileSettings = *param.FileSettings
	}
	if param.UserSettings != nil {
		r.UserSettings = *param.UserSettings
	}
	if param.ChannelSettings != nil {
		r.ChannelSettings = *param.ChannelSettings
	}

	var newAvatar *room.File
	var oldAvatar *room.File
	if !param.Avatar.empty() {
		newAvatar, err = a.uploadFile(ctx, r.ID, room.FileRoomAvatar, param.Avatar)
		if err != nil {
			return nil, err
		}
		if r.AvatarFileID != "" {
			oldAvatar, err = a.Store.FileByID(ctx, r.AvatarFileID)
			if err != nil && !room.IsKind(err, room.KindNotFound) {
				a.discardBlob(ctx, newAvatar.URL)
				return nil, a.storeErr(err)
			}
		}
		r.AvatarFileID = newAvatar.ID
	}
	r.UpdatedAt = time.Now()

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		if newAvatar != nil {
			if err := tx.CreateFile(ctx, newAvatar); err != nil {
				return err
			}
		}
		if err := tx.SaveRoom(ctx, r); err != nil {
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

	// the old blob is unreferenced only now that the database agrees
	if oldAvatar != nil {
		a.discardBlob(ctx, oldAvatar.URL)
		a.recordAudit(ctx, room.AuditFileDeleted, oldAvatar.ID, oldAvatar, r.ID, "", param.ActorID)
	}
	if newAvatar != nil {
		a.recordAudit(ctx, room.AuditFileCreated, newAvatar.ID, newAvatar, r.ID, "", param.ActorID)
	}
	a.recordAudit(ctx, room.AuditRoomEdited, r.ID, r, r.ID, "", param.ActorID)
	a.emit(room.RoomUpdated, &room.RoomEventPayload{
		ID: r.ID, Name: r.Name, Description: r.Description, Category: r.Category,
	})
	return r, nil
}

// DeleteRoom will destroy a room and everything it owns: channels,
// messages, files, webhooks, members and invite links. Blobs are
// removed only after the transaction commits, a partial blob
// deletion is logged and left as collateral.
func (a *API) DeleteRoom(ctx context.Context, actorID, id string) error {
	r, err := a.Store.RoomByID(ctx, id)
	if err != nil {
		return a.storeErr(err)
	}
	err = a.requireAdmin(ctx, r.ID, actorID)
	if err != nil {
		return err
	}
	files, err := a.Store.FilesByRoom(ctx, r.ID)
	if err != nil {
		return a.storeErr(err)
	}
	channels, err := a.Store.ChannelsByRoom(ctx, r.ID)
	if err != nil {
		return a.storeErr(err)
	}

	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		// dependency order: leaves first, the room row last
		if err := tx.DeleteMessagesByRoom(ctx, r.ID); err != nil {
			return err
		}
		if err := tx.DeleteFilesByRoom(ctx, r.ID); err != nil {
			return err
		}
		if err := tx.DeleteWebhooksByRoom(ctx, r.ID); err != nil {
			return err
		}
		if err := tx.DeleteChannelsByRoom(ctx, r.ID); err != nil {
			return err
		}
		if err := tx.DeleteMembersByRoom(ctx, r.ID); err != nil {
			return err
		}
		if err := tx.DeleteInvitesByRoom(ctx, r.ID); err != nil {
			return err
		}
		return tx.DeleteRoom(ctx, r.ID)
	})
	if err != nil {
		return a.storeErr(err)
	}

	for _, f := range files {
		a.discardBlob(ctx, f.URL)
		a.recordAudit(ctx, room.AuditFileDeleted, f.ID, f, r.ID, "", actorID)
	}
	for _, c := range channels {
		a.recordAudit(ctx, room.AuditChannelDeleted, c.ID, c, r.ID, c.ID, actorID)
	}
	a.recordAudit(ctx, room.AuditRoomDeleted, r.ID, r, r.ID, "", actorID)
	a.emit(room.RoomDestroyed, &room.RoomEventPayload{
		ID: r.ID, Name: r.Name, Description: r.Description, Category: r.Category,
	})
	return nil
}
