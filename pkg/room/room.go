package room

import "time"

const (
	// RoomCreated emitted when new room created
	RoomCreated = "chat.room.created"
	// RoomUpdated emitted when room profile or settings updated
	RoomUpdated = "chat.room.updated"
	// RoomDestroyed emitted when room has been destroyed
	RoomDestroyed = "chat.room.destroyed"
	// ChannelCreated emitted when new channel created in a room
	ChannelCreated = "chat.channel.created"
	// ChannelUpdated emitted when channel updated
	ChannelUpdated = "chat.channel.updated"
	// ChannelDestroyed emitted when channel has been destroyed
	ChannelDestroyed = "chat.channel.destroyed"
	// MessageCreated emitted when message posted to a channel
	MessageCreated = "chat.message.created"
	// MessageUpdated emitted when message content edited
	MessageUpdated = "chat.message.updated"
	// MessageDeleted emitted when message removed from a channel
	MessageDeleted = "chat.message.deleted"
	// UserJoinedRoom emitted when user joined a room
	UserJoinedRoom = "chat.room.user-joined"
	// UserLeftRoom emitted when user left a room
	UserLeftRoom = "chat.room.user-left"
	// UserRegistered emitted when new user registered
	UserRegistered = "chat.user.registered"
)

// Event contain data emitted by the engine events channel
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Time    time.Time   `json:"time"`
}

// RoomEventPayload is payload emitted on room instance related
// events like created, destroyed or updated
type RoomEventPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ChannelEventPayload is payload emitted on channel instance
// related events
type ChannelEventPayload struct {
	ID     string `json:"id"`
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
}

// MessageEventPayload is payload emitted on message related events
type MessageEventPayload struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
	System    bool   `json:"system"`
}

// ParticipantEventPayload is payload emitted on membership events
// like user joined or left a room
type ParticipantEventPayload struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
	Role   string `json:"role"`
}

// UserEventPayload is payload emitted on user instance events
type UserEventPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
