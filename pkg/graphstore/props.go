package graphstore

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// nodeProps pulls the map projection returned as `props` out of a
// record
func nodeProps(rec *neo4j.Record) (map[string]any, bool) {
	raw, ok := rec.Get("props")
	if !ok {
		return nil, false
	}
	props, ok := raw.(map[string]any)
	return props, ok
}

func getString(props map[string]any, key string) string {
	v, _ := props[key].(string)
	return v
}

func getInt64(props map[string]any, key string) int64 {
	v, _ := props[key].(int64)
	return v
}

func getInt(props map[string]any, key string) int {
	return int(getInt64(props, key))
}

func getBool(props map[string]any, key string) bool {
	v, _ := props[key].(bool)
	return v
}

func getTime(props map[string]any, key string) time.Time {
	v, _ := props[key].(time.Time)
	return v
}

func getBytes(props map[string]any, key string) []byte {
	v, _ := props[key].([]byte)
	return v
}

func userProps(u *room.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"verified":   u.Verified,
		"photo":      u.Photo,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func userFromProps(p map[string]any) *room.User {
	return &room.User{
		ID:        getString(p, "id"),
		Name:      getString(p, "name"),
		Email:     getString(p, "email"),
		Verified:  getBool(p, "verified"),
		Photo:     getString(p, "photo"),
		CreatedAt: getTime(p, "created_at"),
		UpdatedAt: getTime(p, "updated_at"),
	}
}

func roomProps(r *room.Room) map[string]any {
	return map[string]any{
		"id":                   r.ID,
		"name":                 r.Name,
		"description":          r.Description,
		"category":             r.Category,
		"avatar_file_id":       r.AvatarFileID,
		"join_channel_id":      r.JoinChannelID,
		"total_bytes_allowed":  r.FileSettings.TotalBytesAllowed,
		"single_bytes_allowed": r.FileSettings.SingleBytesAllowed,
		"retention_days":       r.FileSettings.RetentionDays,
		"max_users":            r.UserSettings.MaxUsers,
		"join_message":         r.UserSettings.JoinMessage,
		"max_channels":         r.ChannelSettings.MaxChannels,
		"created_at":           r.CreatedAt,
		"updated_at":           r.UpdatedAt,
	}
}

func roomFromProps(p map[string]any) *room.Room {
	return &room.Room{
		ID:            getString(p, "id"),
		Name:          getString(p, "name"),
		Description:   getString(p, "description"),
		Category:      getString(p, "category"),
		AvatarFileID:  getString(p, "avatar_file_id"),
		JoinChannelID: getString(p, "join_channel_id"),
		FileSettings: room.FileSettings{
			TotalBytesAllowed:  getInt64(p, "total_bytes_allowed"),
			SingleBytesAllowed: getInt64(p, "single_bytes_allowed"),
			RetentionDays:      getInt(p, "retention_days"),
		},
		UserSettings: room.UserSettings{
			MaxUsers:    getInt(p, "max_users"),
			JoinMessage: getString(p, "join_message"),
		},
		ChannelSettings: room.ChannelSettings{
			MaxChannels: getInt(p, "max_channels"),
		},
		CreatedAt: getTime(p, "created_at"),
		UpdatedAt: getTime(p, "updated_at"),
	}
}

func memberProps(m *room.Member) map[string]any {
	return map[string]any{
		"id":         m.ID,
		"room_id":    m.RoomID,
		"user_id":    m.UserID,
		"role":       string(m.Role),
		"created_at": m.CreatedAt,
		"updated_at": m.UpdatedAt,
	}
}

func memberFromProps(p map[string]any) *room.Member {
	return &room.Member{
		ID:        getString(p, "id"),
		RoomID:    getString(p, "room_id"),
		UserID:    getString(p, "user_id"),
		Role:      room.Role(getString(p, "role")),
		CreatedAt: getTime(p, "created_at"),
		UpdatedAt: getTime(p, "updated_at"),
	}
}

func channelProps(c *room.Channel) map[string]any {
	return map[string]any{
		"id":             c.ID,
		"room_id":        c.RoomID,
		"name":           c.Name,
		"kind":           c.Kind,
		"avatar_file_id": c.AvatarFileID,
		"created_at":     c.CreatedAt,
		"updated_at":     c.UpdatedAt,
	}
}

func channelFromProps(p map[string]any) *room.Channel {
	return &room.Channel{
		ID:           getString(p, "id"),
		RoomID:       getString(p, "room_id"),
		Name:         getString(p, "name"),
		Kind:         getString(p, "kind"),
		AvatarFileID: getString(p, "avatar_file_id"),
		CreatedAt:    getTime(p, "created_at"),
		UpdatedAt:    getTime(p, "updated_at"),
	}
}

func messageProps(m *room.Message) map[string]any {
	return map[string]any{
		"id":         m.ID,
		"channel_id": m.ChannelID,
		"room_id":    m.RoomID,
		"user_id":    m.UserID,
		"content":    m.Content,
		"system":     m.System,
		"file_id":    m.FileID,
		"created_at": m.CreatedAt,
		"updated_at": m.UpdatedAt,
	}
}

func messageFromProps(p map[string]any) *room.Message {
	return &room.Message{
		ID:        getString(p, "id"),
		ChannelID: getString(p, "channel_id"),
		RoomID:    getString(p, "room_id"),
		UserID:    getString(p, "user_id"),
		Content:   getString(p, "content"),
		System:    getBool(p, "system"),
		FileID:    getString(p, "file_id"),
		CreatedAt: getTime(p, "created_at"),
		UpdatedAt: getTime(p, "updated_at"),
	}
}

func fileProps(f *room.File) map[string]any {
	return map[string]any{
		"id":         f.ID,
		"room_id":    f.RoomID,
		"url":        f.URL,
		"size":       f.Size,
		"kind":       string(f.Kind),
		"created_at": f.CreatedAt,
		"updated_at": f.UpdatedAt,
	}
}

func fileFromProps(p map[string]any) *room.File {
	return &room.File{
		ID:        getString(p, "id"),
		RoomID:    getString(p, "room_id"),
		URL:       getString(p, "url"),
		Size:      getInt64(p, "size"),
		Kind:      room.FileKind(getString(p, "kind")),
		CreatedAt: getTime(p, "created_at"),
		UpdatedAt: getTime(p, "updated_at"),
	}
}

func webhookProps(w *room.Webhook) map[string]any {
	return map[string]any{
		"id":             w.ID,
		"channel_id":     w.ChannelID,
		"room_id":        w.RoomID,
		"name":           w.Name,
		"token":          w.Token,
		"avatar_file_id": w.AvatarFileID,
		"created_at":     w.CreatedAt,
		"updated_at":     w.UpdatedAt,
	}
}

func webhookFromProps(p map[string]any) *room.Webhook {
	return &room.Webhook{
		ID:           getString(p, "id"),
		ChannelID:    getString(p, "channel_id"),
		RoomID:       getString(p, "room_id"),
		Name:         getString(p, "name"),
		Token:        getString(p, "token"),
		AvatarFileID: getString(p, "avatar_file_id"),
		CreatedAt:    getTime(p, "created_at"),
		UpdatedAt:    getTime(p, "updated_at"),
	}
}

func inviteProps(l *room.InviteLink) map[string]any {
	props := map[string]any{
		"id":         l.ID,
		"room_id":    l.RoomID,
		"token":      l.Token,
		"created_by": l.CreatedBy,
		"created_at": l.CreatedAt,
		"updated_at": l.UpdatedAt,
	}
	if l.ExpiresAt != nil {
		props["expires_at"] = *l.ExpiresAt
	}
	return props
}

func inviteFromProps(p map[string]any) *room.InviteLink {
	l := &room.InviteLink{
		ID:        getString(p, "id"),
		RoomID:    getString(p, "room_id"),
		Token:     getString(p, "token"),
		CreatedBy: getString(p, "created_by"),
		CreatedAt: getTime(p, "created_at"),
		UpdatedAt: getTime(p, "updated_at"),
	}
	if raw, ok := p["expires_at"].(time.Time); ok {
		l.ExpiresAt = &raw
	}
	return l
}

func auditProps(e *room.AuditEntry) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"kind":       string(e.Kind),
		"entity_id":  e.EntityID,
		"room_id":    e.RoomID,
		"channel_id": e.ChannelID,
		"actor_id":   e.ActorID,
		"snapshot":   e.Snapshot,
		"created_at": e.CreatedAt,
	}
}

func auditFromProps(p map[string]any) *room.AuditEntry {
	return &room.AuditEntry{
		ID:        getString(p, "id"),
		Kind:      room.AuditKind(getString(p, "kind")),
		EntityID:  getString(p, "entity_id"),
		RoomID:    getString(p, "room_id"),
		ChannelID: getString(p, "channel_id"),
		ActorID:   getString(p, "actor_id"),
		Snapshot:  getBytes(p, "snapshot"),
		CreatedAt: getTime(p, "created_at"),
	}
}
