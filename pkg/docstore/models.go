package docstore

import (
	"time"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// collection names
const (
	usersCollection    = "users"
	roomsCollection    = "rooms"
	membersCollection  = "members"
	channelsCollection = "channels"
	messagesCollection = "messages"
	filesCollection    = "files"
	webhooksCollection = "webhooks"
	invitesCollection  = "invites"
	auditsCollection   = "audits"
)

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Verified  bool      `bson:"verified"`
	Photo     string    `bson:"photo"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type roomDoc struct {
	ID                 string    `bson:"_id"`
	Name               string    `bson:"name"`
	Description        string    `bson:"description"`
	Category           string    `bson:"category"`
	AvatarFileID       string    `bson:"avatar_file_id"`
	JoinChannelID      string    `bson:"join_channel_id"`
	TotalBytesAllowed  int64     `bson:"total_bytes_allowed"`
	SingleBytesAllowed int64     `bson:"single_bytes_allowed"`
	RetentionDays      int       `bson:"retention_days"`
	MaxUsers           int       `bson:"max_users"`
	JoinMessage        string    `bson:"join_message"`
	MaxChannels        int       `bson:"max_channels"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

type memberDoc struct {
	ID        string    `bson:"_id"`
	RoomID    string    `bson:"room_id"`
	UserID    string    `bson:"user_id"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type channelDoc struct {
	ID           string    `bson:"_id"`
	RoomID       string    `bson:"room_id"`
	Name         string    `bson:"name"`
	Kind         string    `bson:"kind"`
	AvatarFileID string    `bson:"avatar_file_id"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type messageDoc struct {
	ID        string    `bson:"_id"`
	ChannelID string    `bson:"channel_id"`
	RoomID    string    `bson:"room_id"`
	UserID    string    `bson:"user_id"`
	Content   string    `bson:"content"`
	System    bool      `bson:"system"`
	FileID    string    `bson:"file_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type fileDoc struct {
	ID        string    `bson:"_id"`
	RoomID    string    `bson:"room_id"`
	URL       string    `bson:"url"`
	Size      int64     `bson:"size"`
	Kind      string    `bson:"kind"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type webhookDoc struct {
	ID           string    `bson:"_id"`
	ChannelID    string    `bson:"channel_id"`
	RoomID       string    `bson:"room_id"`
	Name         string    `bson:"name"`
	Token        string    `bson:"token"`
	AvatarFileID string    `bson:"avatar_file_id"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type inviteDoc struct {
	ID        string     `bson:"_id"`
	RoomID    string     `bson:"room_id"`
	Token     string     `bson:"token"`
	CreatedBy string     `bson:"created_by"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

type auditDoc struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	EntityID  string    `bson:"entity_id"`
	RoomID    string    `bson:"room_id"`
	ChannelID string    `bson:"channel_id"`
	ActorID   string    `bson:"actor_id"`
	Snapshot  []byte    `bson:"snapshot,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func toUserDoc(u *room.User) *userDoc {
	return &userDoc{
		ID: u.ID, Name: u.Name, Email: u.Email, Verified: u.Verified,
		Photo: u.Photo, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func fromUserDoc(d *userDoc) *room.User {
	return &room.User{
		ID: d.ID, Name: d.Name, Email: d.Email, Verified: d.Verified,
		Photo: d.Photo, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func toRoomDoc(r *room.Room) *roomDoc {
	return &roomDoc{
		ID:                 r.ID,
		Name:               r.Name,
		Description:        r.Description,
		Category:           r.Category,
		AvatarFileID:       r.AvatarFileID,
		JoinChannelID:      r.JoinChannelID,
		TotalBytesAllowed:  r.FileSettings.TotalBytesAllowed,
		SingleBytesAllowed: r.FileSettings.SingleBytesAllowed,
		RetentionDays:      r.FileSettings.RetentionDays,
		MaxUsers:           r.UserSettings.MaxUsers,
		JoinMessage:        r.UserSettings.JoinMessage,
		MaxChannels:        r.ChannelSettings.MaxChannels,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func fromRoomDoc(d *roomDoc) *room.Room {
	return &room.Room{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Category:      d.Category,
		AvatarFileID:  d.AvatarFileID,
		JoinChannelID: d.JoinChannelID,
		FileSettings: room.FileSettings{
			TotalBytesAllowed:  d.TotalBytesAllowed,
			SingleBytesAllowed: d.SingleBytesAllowed,
			RetentionDays:      d.RetentionDays,
		},
		UserSettings: room.UserSettings{
			MaxUsers:    d.MaxUsers,
			JoinMessage: d.JoinMessage,
		},
		ChannelSettings: room.ChannelSettings{
			MaxChannels: d.MaxChannels,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toMemberDoc(m *room.Member) *memberDoc {
	return &memberDoc{
		ID: m.ID, RoomID: m.RoomID, UserID: m.UserID, Role: string(m.Role),
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromMemberDoc(d *memberDoc) *room.Member {
	return &room.Member{
		ID: d.ID, RoomID: d.RoomID, UserID: d.UserID, Role: room.Role(d.Role),
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func toChannelDoc(c *room.Channel) *channelDoc {
	return &channelDoc{
		ID: c.ID, RoomID: c.RoomID, Name: c.Name, Kind: c.Kind,
		AvatarFileID: c.AvatarFileID,
		CreatedAt:    c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func fromChannelDoc(d *channelDoc) *room.Channel {
	return &room.Channel{
		ID: d.ID, RoomID: d.RoomID, Name: d.Name, Kind: d.Kind,
		AvatarFileID: d.AvatarFileID,
		CreatedAt:    d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func toMessageDoc(m *room.Message) *messageDoc {
	return &messageDoc{
		ID: m.ID, ChannelID: m.ChannelID, RoomID: m.RoomID, UserID: m.UserID,
		Content: m.Content, System: m.System, FileID: m.FileID,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromMessageDoc(d *messageDoc) *room.Message {
	return &room.Message{
		ID: d.ID, ChannelID: d.ChannelID, RoomID: d.RoomID, UserID: d.UserID,
		Content: d.Content, System: d.System, FileID: d.FileID,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func toFileDoc(f *room.File) *fileDoc {
	return &fileDoc{
		ID: f.ID, RoomID: f.RoomID, URL: f.URL, Size: f.Size,
		Kind:      string(f.Kind),
		CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt,
	}
}

func fromFileDoc(d *fileDoc) *room.File {
	return &room.File{
		ID: d.ID, RoomID: d.RoomID, URL: d.URL, Size: d.Size,
		Kind:      room.FileKind(d.Kind),
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func toWebhookDoc(w *room.Webhook) *webhookDoc {
	return &webhookDoc{
		ID: w.ID, ChannelID: w.ChannelID, RoomID: w.RoomID, Name: w.Name,
		Token: w.Token, AvatarFileID: w.AvatarFileID,
		CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt,
	}
}

func fromWebhookDoc(d *webhookDoc) *room.Webhook {
	return &room.Webhook{
		ID: d.ID, ChannelID: d.ChannelID, RoomID: d.RoomID, Name: d.Name,
		Token: d.Token, AvatarFileID: d.AvatarFileID,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func toInviteDoc(l *room.InviteLink) *inviteDoc {
	return &inviteDoc{
		ID: l.ID, RoomID: l.RoomID, Token: l.Token, CreatedBy: l.CreatedBy,
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func fromInviteDoc(d *inviteDoc) *room.InviteLink {
	return &room.InviteLink{
		ID: d.ID, RoomID: d.RoomID, Token: d.Token, CreatedBy: d.CreatedBy,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func toAuditDoc(e *room.AuditEntry) *auditDoc {
	return &auditDoc{
		ID: e.ID, Kind: string(e.Kind), EntityID: e.EntityID,
		RoomID: e.RoomID, ChannelID: e.ChannelID, ActorID: e.ActorID,
		Snapshot: e.Snapshot, CreatedAt: e.CreatedAt,
	}
}

func fromAuditDoc(d *auditDoc) *room.AuditEntry {
	return &room.AuditEntry{
		ID: d.ID, Kind: room.AuditKind(d.Kind), EntityID: d.EntityID,
		RoomID: d.RoomID, ChannelID: d.ChannelID, ActorID: d.ActorID,
		Snapshot: d.Snapshot, CreatedAt: d.CreatedAt,
	}
}
