// Package relstore is the relational implementation of the room
// storage port, backed by gorm.
package relstore

import (
	"context"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// New will create new instance of relational store
func New(db *gorm.DB, logger *zap.SugaredLogger) *Store {
	return &Store{
		session: session{db},
		Logger:  logger,
	}
}

// Store implements room.Store on a relational database
type Store struct {
	session
	Logger *zap.SugaredLogger
}

// Atomic runs fn inside one database transaction
func (s *Store) Atomic(ctx context.Context, fn func(tx room.Tx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&session{tx})
	})
}

// AppendAudit writes one immutable audit entry
func (s *Store) AppendAudit(ctx context.Context, entry *room.AuditEntry) error {
	return s.db.Create(toAuditModel(entry)).Error
}

// session carries every port operation over a db handle, which is
// either the root connection or an open transaction
type session struct {
	db *gorm.DB
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func (s *session) UserByID(ctx context.Context, id string) (*room.User, error) {
	m := &UserModel{}
	err := s.db.Where(&UserModel{ID: id}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.UserNotFoundError)
		}
		return nil, err
	}
	return fromUserModel(m), nil
}

func (s *session) RoomByID(ctx context.Context, id string) (*room.Room, error) {
	m := &RoomModel{}
	err := s.db.Where(&RoomModel{ID: id}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.RoomNotFoundError)
		}
		return nil, err
	}
	return fromRoomModel(m), nil
}

func (s *session) RoomByName(ctx context.Context, name string) (*room.Room, error) {
	m := &RoomModel{}
	err := s.db.Where(&RoomModel{Name: name}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.RoomNotFoundError)
		}
		return nil, err
	}
	return fromRoomModel(m), nil
}

func (s *session) Rooms(ctx context.Context, keyword string, offset, limit int) ([]*room.Room, int, error) {
	datas := []RoomModel{}
	count := 0
	keyword = strings.ToLower(keyword)
	err := s.db.
		Where("LOWER(name) LIKE ?", "%"+keyword+"%").
		Offset(offset).
		Limit(limit).
		Order("id").
		Find(&datas).
		Error
	if err != nil {
		return nil, 0, err
	}
	err = s.db.
		Model(&RoomModel{}).
		Where("LOWER(name) LIKE ?", "%"+keyword+"%").
		Count(&count).Error
	if err != nil {
		return nil, 0, err
	}
	rooms := []*room.Room{}
	for i := range datas {
		rooms = append(rooms, fromRoomModel(&datas[i]))
	}
	return rooms, count, nil
}

func (s *session) ChannelByID(ctx context.Context, id string) (*room.Channel, error) {
	m := &ChannelModel{}
	err := s.db.Where(&ChannelModel{ID: id}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.ChannelNotFoundError)
		}
		return nil, err
	}
	return fromChannelModel(m), nil
}

func (s *session) ChannelByName(ctx context.Context, roomID, name, kind string) (*room.Channel, error) {
	m := &ChannelModel{}
	err := s.db.Where(&ChannelModel{RoomID: roomID, Name: name, Kind: kind}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.ChannelNotFoundError)
		}
		return nil, err
	}
	return fromChannelModel(m), nil
}

func (s *session) ChannelsByRoom(ctx context.Context, roomID string) ([]*room.Channel, error) {
	datas := []ChannelModel{}
	err := s.db.
		Where(&ChannelModel{RoomID: roomID}).
		Order("created_at").
		Find(&datas).Error
	if err != nil {
		return nil, err
	}
	channels := []*room.Channel{}
	for i := range datas {
		channels = append(channels, fromChannelModel(&datas[i]))
	}
	return channels, nil
}

func (s *session) MemberOf(ctx context.Context, roomID, userID string) (*room.Member, error) {
	m := &MemberModel{}
	err := s.db.Where(&MemberModel{RoomID: roomID, UserID: userID}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.MemberNotFoundError)
		}
		return nil, err
	}
	return fromMemberModel(m), nil
}

func (s *session) MembersByRoom(ctx context.Context, roomID string) ([]*room.Member, error) {
	datas := []MemberModel{}
	err := s.db.Where(&MemberModel{RoomID: roomID}).Order("created_at").Find(&datas).Error
	if err != nil {
		return nil, err
	}
	members := []*room.Member{}
	for i := range datas {
		members = append(members, fromMemberModel(&datas[i]))
	}
	return members, nil
}

func (s *session) FileByID(ctx context.Context, id string) (*room.File, error) {
	m := &FileModel{}
	err := s.db.Where(&FileModel{ID: id}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.FileNotFoundError)
		}
		return nil, err
	}
	return fromFileModel(m), nil
}

func (s *session) FilesByRoom(ctx context.Context, roomID string) ([]*room.File, error) {
	datas := []FileModel{}
	err := s.db.Where(&FileModel{RoomID: roomID}).Order("created_at").Find(&datas).Error
	if err != nil {
		return nil, err
	}
	files := []*room.File{}
	for i := range datas {
		files = append(files, fromFileModel(&datas[i]))
	}
	return files, nil
}

func (s *session) FilesOlderThan(ctx context.Context, roomID string, cutoff time.Time, offset, limit int) ([]*room.File, error) {
	datas := []FileModel{}
	err := s.db.
		Where("room_id = ? AND created_at < ?", roomID, cutoff).
		Order("created_at").
		Offset(offset).
		Limit(limit).
		Find(&datas).Error
	if err != nil {
		return nil, err
	}
	files := []*room.File{}
	for i := range datas {
		files = append(files, fromFileModel(&datas[i]))
	}
	return files, nil
}

func (s *session) MessageByID(ctx context.Context, id string) (*room.Message, error) {
	m := &MessageModel{}
	err := s.db.Where(&MessageModel{ID: id}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.MessageNotFoundError)
		}
		return nil, err
	}
	return fromMessageModel(m), nil
}

func (s *session) MessagesByChannel(ctx context.Context, channelID string) ([]*room.Message, error) {
	datas := []MessageModel{}
	err := s.db.Where(&MessageModel{ChannelID: channelID}).Order("created_at").Find(&datas).Error
	if err != nil {
		return nil, err
	}
	messages := []*room.Message{}
	for i := range datas {
		messages = append(messages, fromMessageModel(&datas[i]))
	}
	return messages, nil
}

func (s *session) WebhookByID(ctx context.Context, id string) (*room.Webhook, error) {
	m := &WebhookModel{}
	err := s.db.Where(&WebhookModel{ID: id}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.WebhookNotFoundError)
		}
		return nil, err
	}
	return fromWebhookModel(m), nil
}

func (s *session) WebhooksByRoom(ctx context.Context, roomID string) ([]*room.Webhook, error) {
	datas := []WebhookModel{}
	err := s.db.Where(&WebhookModel{RoomID: roomID}).Order("created_at").Find(&datas).Error
	if err != nil {
		return nil, err
	}
	webhooks := []*room.Webhook{}
	for i := range datas {
		webhooks = append(webhooks, fromWebhookModel(&datas[i]))
	}
	return webhooks, nil
}

func (s *session) InviteByID(ctx context.Context, id string) (*room.InviteLink, error) {
	m := &InviteModel{}
	err := s.db.Where(&InviteModel{ID: id}).First(m).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, room.NotFound(room.InviteNotFoundError)
		}
		return nil, err
	}
	return fromInviteModel(m), nil
}

func (s *session) InvitesByRoom(ctx context.Context, roomID string) ([]*room.InviteLink, error) {
	datas := []InviteModel{}
	err := s.db.Where(&InviteModel{RoomID: roomID}).Order("created_at").Find(&datas).Error
	if err != nil {
		return nil, err
	}
	invites := []*room.InviteLink{}
	for i := range datas {
		invites = append(invites, fromInviteModel(&datas[i]))
	}
	return invites, nil
}

func (s *session) Usage(ctx context.Context, roomID string) (*room.Usage, error) {
	usage := &room.Usage{}
	row := s.db.
		Model(&FileModel{}).
		Where("room_id = ?", roomID).
		Select("COALESCE(SUM(size), 0)").
		Row()
	err := row.Scan(&usage.Bytes)
	if err != nil {
		return nil, err
	}
	err = s.db.
		Model(&MemberModel{}).
		Where("room_id = ?", roomID).
		Count(&usage.Members).Error
	if err != nil {
		return nil, err
	}
	err = s.db.
		Model(&ChannelModel{}).
		Where("room_id = ?", roomID).
		Count(&usage.Channels).Error
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (s *session) AuditsByRoom(ctx context.Context, roomID string) ([]*room.AuditEntry, error) {
	datas := []AuditModel{}
	err := s.db.Where(&AuditModel{RoomID: roomID}).Order("created_at").Find(&datas).Error
	if err != nil {
		return nil, err
	}
	entries := []*room.AuditEntry{}
	for i := range datas {
		entries = append(entries, fromAuditModel(&datas[i]))
	}
	return entries, nil
}

func (s *session) CreateUser(ctx context.Context, u *room.User) error {
	err := s.db.Create(toUserModel(u)).Error
	if err != nil && isUniqueViolation(err) {
		return room.Duplicate(room.UserAlreadyExistError)
	}
	return err
}

func (s *session) SaveUser(ctx context.Context, u *room.User) error {
	return s.db.Save(toUserModel(u)).Error
}

func (s *session) CreateRoom(ctx context.Context, r *room.Room) error {
	err := s.db.Create(toRoomModel(r)).Error
	if err != nil && isUniqueViolation(err) {
		return room.Duplicate(room.RoomAlreadyExistError)
	}
	return err
}

func (s *session) SaveRoom(ctx context.Context, r *room.Room) error {
	return s.db.Save(toRoomModel(r)).Error
}

func (s *session) DeleteRoom(ctx context.Context, id string) error {
	return s.db.Where("id = ?", id).Delete(&RoomModel{}).Error
}

func (s *session) CreateMember(ctx context.Context, m *room.Member) error {
	err := s.db.Create(toMemberModel(m)).Error
	if err != nil && isUniqueViolation(err) {
		return room.Duplicate(room.MemberAlreadyExistError)
	}
	return err
}

func (s *session) DeleteMember(ctx context.Context, id string) error {
	return s.db.Where("id = ?", id).Delete(&MemberModel{}).Error
}

func (s *session) DeleteMembersByRoom(ctx context.Context, roomID string) error {
	return s.db.Where("room_id = ?", roomID).Delete(&MemberModel{}).Error
}

func (s *session) CreateChannel(ctx context.Context, c *room.Channel) error {
	err := s.db.Create(toChannelModel(c)).Error
	if err != nil && isUniqueViolation(err) {
		return room.Duplicate(room.ChannelAlreadyExistError)
	}
	return err
}

func (s *session) SaveChannel(ctx context.Context, c *room.Channel) error {
	return s.db.Save(toChannelModel(c)).Error
}

func (s *session) DeleteChannel(ctx context.Context, id string) error {
	return s.db.Where("id = ?", id).Delete(&ChannelModel{}).Error
}

func (s *session) DeleteChannelsByRoom(ctx context.Context, roomID string) error {
	return s.db.Where("room_id = ?", roomID).Delete(&ChannelModel{}).Error
}

func (s *session) CreateMessage(ctx context.Context, m *room.Message) error {
	return s.db.Create(toMessageModel(m)).Error
}

func (s *session) SaveMessage(ctx context.Context, m *room.Message) error {
	return s.db.Save(toMessageModel(m)).Error
}

func (s *session) DeleteMessage(ctx context.Context, id string) error {
	return s.db.Where("id = ?", id).Delete(&MessageModel{}).Error
}

func (s *session) DeleteMessagesByChannel(ctx context.Context, channelID string) error {
	return s.db.Where("channel_id = ?", channelID).Delete(&MessageModel{}).Error
}

func (s *session) DeleteMessagesByRoom(ctx context.Context, roomID string) error {
	return s.db.Where("room_id = ?", roomID).Delete(&MessageModel{}).Error
}

func (s *session) CreateFile(ctx context.Context, f *room.File) error {
	return s.db.Create(toFileModel(f)).Error
}

func (s *session) DeleteFile(ctx context.Context, id string) error {
	return s.db.Where("id = ?", id).Delete(&FileModel{}).Error
}

func (s *session) DeleteFilesByRoom(ctx context.Context, roomID string) error {
	return s.db.Where("room_id = ?", roomID).Delete(&FileModel{}).Error
}

func (s *session) CreateWebhook(ctx context.Context, w *room.Webhook) error {
	return s.db.Create(toWebhookModel(w)).Error
}

func (s *session) DeleteWebhook(ctx context.Context, id string) error {
	return s.db.Where("id = ?", id).Delete(&WebhookModel{}).Error
}

func (s *session) DeleteWebhooksByChannel(ctx context.Context, channelID string) error {
	return s.db.Where("channel_id = ?", channelID).Delete(&WebhookModel{}).Error
}

func (s *session) DeleteWebhooksByRoom(ctx context.Context, roomID string) error {
	return s.db.Where("room_id = ?", roomID).Delete(&WebhookModel{}).Error
}

func (s *session) CreateInvite(ctx context.Context, l *room.InviteLink) error {
	return s.db.Create(toInviteModel(l)).Error
}

func (s *session) DeleteInvite(ctx context.Context, id string) error {
	return s.db.Where("id = ?", id).Delete(&InviteModel{}).Error
}

func (s *session) DeleteInvitesByRoom(ctx context.Context, roomID string) error {
	return s.db.Where("room_id = ?", roomID).Delete(&InviteModel{}).Error
}
