package room

import (
	"context"
	"time"
)

// Reader is the read side of the storage port. Lookups return a
// not-found domain error when the row is absent, list operations
// return empty slices.
type Reader interface {
	UserByID(ctx context.Context, id string) (*User, error)
	RoomByID(ctx context.Context, id string) (*Room, error)
	RoomByName(ctx context.Context, name string) (*Room, error)
	Rooms(ctx context.Context, keyword string, offset, limit int) ([]*Room, int, error)
	ChannelByID(ctx context.Context, id string) (*Channel, error)
	ChannelByName(ctx context.Context, roomID, name, kind string) (*Channel, error)
	ChannelsByRoom(ctx context.Context, roomID string) ([]*Channel, error)
	MemberOf(ctx context.Context, roomID, userID string) (*Member, error)
	MembersByRoom(ctx context.Context, roomID string) ([]*Member, error)
	FileByID(ctx context.Context, id string) (*File, error)
	FilesByRoom(ctx context.Context, roomID string) ([]*File, error)
	FilesOlderThan(ctx context.Context, roomID string, cutoff time.Time, offset, limit int) ([]*File, error)
	MessageByID(ctx context.Context, id string) (*Message, error)
	MessagesByChannel(ctx context.Context, channelID string) ([]*Message, error)
	WebhookByID(ctx context.Context, id string) (*Webhook, error)
	WebhooksByRoom(ctx context.Context, roomID string) ([]*Webhook, error)
	InviteByID(ctx context.Context, id string) (*InviteLink, error)
	InvitesByRoom(ctx context.Context, roomID string) ([]*InviteLink, error)
	Usage(ctx context.Context, roomID string) (*Usage, error)
	AuditsByRoom(ctx context.Context, roomID string) ([]*AuditEntry, error)
}

// Tx is the write side of the storage port, scoped to one
// transaction. Reads through a Tx observe the transaction's
// own uncommitted writes.
type Tx interface {
	Reader

	CreateUser(ctx context.Context, user *User) error
	SaveUser(ctx context.Context, user *User) error

	CreateRoom(ctx context.Context, r *Room) error
	SaveRoom(ctx context.Context, r *Room) error
	DeleteRoom(ctx context.Context, id string) error

	CreateMember(ctx context.Context, m *Member) error
	DeleteMember(ctx context.Context, id string) error
	DeleteMembersByRoom(ctx context.Context, roomID string) error

	CreateChannel(ctx context.Context, c *Channel) error
	SaveChannel(ctx context.Context, c *Channel) error
	DeleteChannel(ctx context.Context, id string) error
	DeleteChannelsByRoom(ctx context.Context, roomID string) error

	CreateMessage(ctx context.Context, m *Message) error
	SaveMessage(ctx context.Context, m *Message) error
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessagesByChannel(ctx context.Context, channelID string) error
	DeleteMessagesByRoom(ctx context.Context, roomID string) error

	CreateFile(ctx context.Context, f *File) error
	DeleteFile(ctx context.Context, id string) error
	DeleteFilesByRoom(ctx context.Context, roomID string) error

	CreateWebhook(ctx context.Context, w *Webhook) error
	DeleteWebhook(ctx context.Context, id string) error
	DeleteWebhooksByChannel(ctx context.Context, channelID string) error
	DeleteWebhooksByRoom(ctx context.Context, roomID string) error

	CreateInvite(ctx context.Context, l *InviteLink) error
	DeleteInvite(ctx context.Context, id string) error
	DeleteInvitesByRoom(ctx context.Context, roomID string) error
}

// Store is the storage port the lifecycle engine is written against.
// Implemented by the relational, document and graph adapters, all
// with identical observable semantics.
type Store interface {
	Reader

	// Atomic runs fn inside one transaction, committing when fn
	// returns nil and rolling back otherwise.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// AppendAudit writes an immutable audit entry outside any
	// caller transaction, as an explicit post-commit step.
	AppendAudit(ctx context.Context, entry *AuditEntry) error
}
