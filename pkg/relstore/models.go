package relstore

import (
	"time"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// Models lists every table the relational adapter migrates
var Models = []interface{}{
	&UserModel{},
	&RoomModel{},
	&MemberModel{},
	&ChannelModel{},
	&MessageModel{},
	&FileModel{},
	&WebhookModel{},
	&InviteModel{},
	&AuditModel{},
}

// UserModel define user information saved on database
type UserModel struct {
	ID        string `gorm:"primary_key;not null;size:100"`
	Name      string `gorm:"column:name"`
	Email     string `gorm:"column:email;unique_index"`
	Verified  bool   `gorm:"column:verified;default:false"`
	Photo     string `gorm:"column:photo"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomModel define room information saved on database,
// settings are flattened into columns
type RoomModel struct {
	ID                 string `gorm:"primary_key;not null;size:100"`
	Name               string `gorm:"column:name;unique_index"`
	Description        string `gorm:"column:description"`
	Category           string `gorm:"column:category"`
	AvatarFileID       string `gorm:"column:avatar_file_id"`
	JoinChannelID      string `gorm:"column:join_channel_id"`
	TotalBytesAllowed  int64  `gorm:"column:total_bytes_allowed"`
	SingleBytesAllowed int64  `gorm:"column:single_bytes_allowed"`
	RetentionDays      int    `gorm:"column:retention_days"`
	MaxUsers           int    `gorm:"column:max_users"`
	JoinMessage        string `gorm:"column:join_message"`
	MaxChannels        int    `gorm:"column:max_channels"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MemberModel define room membership saved on database
type MemberModel struct {
	ID        string `gorm:"primary_key;not null;size:100"`
	RoomID    string `gorm:"column:room_id;not null;size:100;unique_index:idx_member_room_user"`
	UserID    string `gorm:"column:user_id;not null;size:100;unique_index:idx_member_room_user"`
	Role      string `gorm:"column:role;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChannelModel define channel information saved on database
type ChannelModel struct {
	ID           string `gorm:"primary_key;not null;size:100"`
	RoomID       string `gorm:"column:room_id;not null;size:100;index;unique_index:idx_channel_room_name_kind"`
	Name         string `gorm:"column:name;not null;unique_index:idx_channel_room_name_kind"`
	Kind         string `gorm:"column:kind;not null;unique_index:idx_channel_room_name_kind"`
	AvatarFileID string `gorm:"column:avatar_file_id"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MessageModel define channel message saved on database
type MessageModel struct {
	ID        string `gorm:"primary_key;not null;size:100"`
	ChannelID string `gorm:"column:channel_id;not null;size:100;index"`
	RoomID    string `gorm:"column:room_id;not null;size:100;index"`
	UserID    string `gorm:"column:user_id;size:100"`
	Content   string `gorm:"column:content;type:text"`
	System    bool   `gorm:"column:system;default:false"`
	FileID    string `gorm:"column:file_id"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileModel define blob metadata saved on database
type FileModel struct {
	ID        string `gorm:"primary_key;not null;size:100"`
	RoomID    string `gorm:"column:room_id;not null;size:100;index"`
	URL       string `gorm:"column:url"`
	Size      int64  `gorm:"column:size"`
	Kind      string `gorm:"column:kind"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WebhookModel define channel webhook saved on database
type WebhookModel struct {
	ID           string `gorm:"primary_key;not null;size:100"`
	ChannelID    string `gorm:"column:channel_id;not null;size:100;index"`
	RoomID       string `gorm:"column:room_id;not null;size:100;index"`
	Name         string `gorm:"column:name"`
	Token        string `gorm:"column:token"`
	AvatarFileID string `gorm:"column:avatar_file_id"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InviteModel define room invite link saved on database
type InviteModel struct {
	ID        string `gorm:"primary_key;not null;size:100"`
	RoomID    string `gorm:"column:room_id;not null;size:100;index"`
	Token     string `gorm:"column:token;type:text"`
	CreatedBy string `gorm:"column:created_by;size:100"`
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditModel define immutable audit entries saved on database,
// append only: no update or delete path exists in this adapter
type AuditModel struct {
	ID        string `gorm:"primary_key;not null;size:100"`
	Kind      string `gorm:"column:kind;not null;index"`
	EntityID  string `gorm:"column:entity_id;size:100"`
	RoomID    string `gorm:"column:room_id;size:100;index"`
	ChannelID string `gorm:"column:channel_id;size:100"`
	ActorID   string `gorm:"column:actor_id;size:100"`
	Snapshot  []byte `gorm:"column:snapshot"`
	CreatedAt time.Time
}

func toUserModel(u *room.User) *UserModel {
	return &UserModel{
		ID: u.ID, Name: u.Name, Email: u.Email, Verified: u.Verified,
		Photo: u.Photo, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func fromUserModel(m *UserModel) *room.User {
	return &room.User{
		ID: m.ID, Name: m.Name, Email: m.Email, Verified: m.Verified,
		Photo: m.Photo, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toRoomModel(r *room.Room) *RoomModel {
	return &RoomModel{
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

func fromRoomModel(m *RoomModel) *room.Room {
	return &room.Room{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		Category:      m.Category,
		AvatarFileID:  m.AvatarFileID,
		JoinChannelID: m.JoinChannelID,
		FileSettings: room.FileSettings{
			TotalBytesAllowed:  m.TotalBytesAllowed,
			SingleBytesAllowed: m.SingleBytesAllowed,
			RetentionDays:      m.RetentionDays,
		},
		UserSettings: room.UserSettings{
			MaxUsers:    m.MaxUsers,
			JoinMessage: m.JoinMessage,
		},
		ChannelSettings: room.ChannelSettings{
			MaxChannels: m.MaxChannels,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toMemberModel(m *room.Member) *MemberModel {
	return &MemberModel{
		ID: m.ID, RoomID: m.RoomID, UserID: m.UserID, Role: string(m.Role),
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromMemberModel(m *MemberModel) *room.Member {
	return &room.Member{
		ID: m.ID, RoomID: m.RoomID, UserID: m.UserID, Role: room.Role(m.Role),
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toChannelModel(c *room.Channel) *ChannelModel {
	return &ChannelModel{
		ID: c.ID, RoomID: c.RoomID, Name: c.Name, Kind: c.Kind,
		AvatarFileID: c.AvatarFileID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func fromChannelModel(m *ChannelModel) *room.Channel {
	return &room.Channel{
		ID: m.ID, RoomID: m.RoomID, Name: m.Name, Kind: m.Kind,
		AvatarFileID: m.AvatarFileID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toMessageModel(m *room.Message) *MessageModel {
	return &MessageModel{
		ID: m.ID, ChannelID: m.ChannelID, RoomID: m.RoomID, UserID: m.UserID,
		Content: m.Content, System: m.System, FileID: m.FileID,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromMessageModel(m *MessageModel) *room.Message {
	return &room.Message{
		ID: m.ID, ChannelID: m.ChannelID, RoomID: m.RoomID, UserID: m.UserID,
		Content: m.Content, System: m.System, FileID: m.FileID,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toFileModel(f *room.File) *FileModel {
	return &FileModel{
		ID: f.ID, RoomID: f.RoomID, URL: f.URL, Size: f.Size, Kind: string(f.Kind),
		CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt,
	}
}

func fromFileModel(m *FileModel) *room.File {
	return &room.File{
		ID: m.ID, RoomID: m.RoomID, URL: m.URL, Size: m.Size, Kind: room.FileKind(m.Kind),
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toWebhookModel(w *room.Webhook) *WebhookModel {
	return &WebhookModel{
		ID: w.ID, ChannelID: w.ChannelID, RoomID: w.RoomID, Name: w.Name,
		Token: w.Token, AvatarFileID: w.AvatarFileID,
		CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt,
	}
}

func fromWebhookModel(m *WebhookModel) *room.Webhook {
	return &room.Webhook{
		ID: m.ID, ChannelID: m.ChannelID, RoomID: m.RoomID, Name: m.Name,
		Token: m.Token, AvatarFileID: m.AvatarFileID,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toInviteModel(l *room.InviteLink) *InviteModel {
	return &InviteModel{
		ID: l.ID, RoomID: l.RoomID, Token: l.Token, CreatedBy: l.CreatedBy,
		ExpiresAt: l.ExpiresAt, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func fromInviteModel(m *InviteModel) *room.InviteLink {
	return &room.InviteLink{
		ID: m.ID, RoomID: m.RoomID, Token: m.Token, CreatedBy: m.CreatedBy,
		ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toAuditModel(e *room.AuditEntry) *AuditModel {
	return &AuditModel{
		ID: e.ID, Kind: string(e.Kind), EntityID: e.EntityID, RoomID: e.RoomID,
		ChannelID: e.ChannelID, ActorID: e.ActorID, Snapshot: e.Snapshot,
		CreatedAt: e.CreatedAt,
	}
}

func fromAuditModel(m *AuditModel) *room.AuditEntry {
	return &room.AuditEntry{
		ID: m.ID, Kind: room.AuditKind(m.Kind), EntityID: m.EntityID, RoomID: m.RoomID,
		ChannelID: m.ChannelID, ActorID: m.ActorID, Snapshot: m.Snapshot,
		CreatedAt: m.CreatedAt,
	}
}
