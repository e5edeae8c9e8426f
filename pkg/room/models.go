package room

import "time"

// Role is the single role a member holds inside a room
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// Roles lists every valid member role
var Roles = []string{
	string(RoleAdmin),
	string(RoleModerator),
	string(RoleMember),
}

// ChannelKinds lists the channel variants a room may contain
var ChannelKinds = []string{"text", "voice"}

// FileKind tells which entity a stored blob belongs to
type FileKind string

const (
	FileRoomAvatar    FileKind = "room_avatar"
	FileChannelAvatar FileKind = "channel_avatar"
	FileWebhookAvatar FileKind = "webhook_avatar"
	FileMessageUpload FileKind = "message_upload"
)

// User is an authenticated principal known to the system.
// Credentials and email delivery are handled by external layers,
// only the verified flag matters here.
type User struct {
	ID        string
	Name      string
	Email     string
	Verified  bool
	Photo     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileSettings hold per-room storage limits, measured in bytes.
// A zero value means "use the configured default".
type FileSettings struct {
	TotalBytesAllowed  int64
	SingleBytesAllowed int64
	RetentionDays      int
}

// UserSettings hold per-room membership limits
type UserSettings struct {
	MaxUsers    int
	JoinMessage string
}

// ChannelSettings hold per-room channel limits
type ChannelSettings struct {
	MaxChannels int
}

// Room is the top level community entity, it owns its settings,
// channels, members, files and invite links
type Room struct {
	ID              string
	Name            string
	Description     string
	Category        string
	AvatarFileID    string
	JoinChannelID   string
	FileSettings    FileSettings
	UserSettings    UserSettings
	ChannelSettings ChannelSettings
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Member links a user to a room with exactly one role,
// unique per (room, user) pair
type Member struct {
	ID        string
	RoomID    string
	UserID    string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Channel is a message stream scoped to a room,
// unique per (room, name, kind)
type Channel struct {
	ID           string
	RoomID       string
	Name         string
	Kind         string
	AvatarFileID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is a single channel message, optionally carrying an upload
type Message struct {
	ID        string
	ChannelID string
	RoomID    string
	UserID    string
	Content   string
	System    bool
	FileID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// File is the metadata row for a blob kept in the blob store.
// Row and blob are created and destroyed as a pair, never left
// out of sync for longer than a single operation
type File struct {
	ID        string
	RoomID    string
	URL       string
	Size      int64
	Kind      FileKind
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Webhook posts into a channel on behalf of an external caller
type Webhook struct {
	ID           string
	ChannelID    string
	RoomID       string
	Name         string
	Token        string
	AvatarFileID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InviteLink lets a user join a room, optionally until it expires
type InviteLink struct {
	ID        string
	RoomID    string
	Token     string
	CreatedBy string
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditKind enumerates lifecycle events worth recording
type AuditKind string

const (
	AuditRoomCreated    AuditKind = "ROOM_CREATED"
	AuditRoomEdited     AuditKind = "ROOM_EDITED"
	AuditRoomDeleted    AuditKind = "ROOM_DELETED"
	AuditChannelCreated AuditKind = "CHANNEL_CREATED"
	AuditChannelEdited  AuditKind = "CHANNEL_EDITED"
	AuditChannelDeleted AuditKind = "CHANNEL_DELETED"
	AuditFileCreated    AuditKind = "FILE_CREATED"
	AuditFileDeleted    AuditKind = "FILE_DELETED"
)

// AuditEntry is an immutable record of a lifecycle event.
// Application logic never updates or deletes one
type AuditEntry struct {
	ID        string
	Kind      AuditKind
	EntityID  string
	RoomID    string
	ChannelID string
	ActorID   string
	Snapshot  []byte
	CreatedAt time.Time
}

// Usage is the current aggregate consumption of a room
type Usage struct {
	Bytes    int64
	Members  int
	Channels int
}
