// Package docstore is the document implementation of the room
// storage port, backed by mongo. Multi-document guarantees require
// the deployment to be a replica set.
package docstore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// New will create new instance of document store
func New(db *mongo.Database, logger *zap.SugaredLogger) *Store {
	return &Store{
		session: session{db: db},
		Logger:  logger,
	}
}

// Store implements room.Store on a mongo database
type Store struct {
	session
	Logger *zap.SugaredLogger
}

// EnsureIndexes creates the unique indexes the domain relies on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	_, err := db.Collection(roomsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(membersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(channelsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "name", Value: 1},
			{Key: "kind", Value: 1},
		},
		Options: unique,
	})
	return err
}

// Atomic runs fn inside one mongo transaction. The session context
// is threaded to every port call through the tx handle, the ctx
// arguments passed by the caller inside fn are superseded by it.
func (s *Store) Atomic(ctx context.Context, fn func(tx room.Tx) error) error {
	sess, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&session{db: s.db, sc: sc})
	})
	return err
}

// AppendAudit writes one immutable audit entry
func (s *Store) AppendAudit(ctx context.Context, entry *room.AuditEntry) error {
	_, err := s.db.Collection(auditsCollection).InsertOne(ctx, toAuditDoc(entry))
	return err
}

// session carries every port operation. Inside a transaction sc is
// set and replaces the caller's context on each call.
type session struct {
	db *mongo.Database
	sc mongo.SessionContext
}

func (s *session) c(ctx context.Context) context.Context {
	if s.sc != nil {
		return s.sc
	}
	return ctx
}

func mapDup(err error, message string) error {
	if mongo.IsDuplicateKeyError(err) {
		return room.Duplicate(message)
	}
	return err
}

func (s *session) UserByID(ctx context.Context, id string) (*room.User, error) {
	d := &userDoc{}
	err := s.db.Collection(usersCollection).
		FindOne(s.c(ctx), bson.M{"_id": id}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.UserNotFoundError)
		}
		return nil, err
	}
	return fromUserDoc(d), nil
}

func (s *session) RoomByID(ctx context.Context, id string) (*room.Room, error) {
	d := &roomDoc{}
	err := s.db.Collection(roomsCollection).
		FindOne(s.c(ctx), bson.M{"_id": id}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.RoomNotFoundError)
		}
		return nil, err
	}
	return fromRoomDoc(d), nil
}

func (s *session) RoomByName(ctx context.Context, name string) (*room.Room, error) {
	d := &roomDoc{}
	err := s.db.Collection(roomsCollection).
		FindOne(s.c(ctx), bson.M{"name": name}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.RoomNotFoundError)
		}
		return nil, err
	}
	return fromRoomDoc(d), nil
}

func (s *session) Rooms(ctx context.Context, keyword string, offset, limit int) ([]*room.Room, int, error) {
	ctx = s.c(ctx)
	filter := bson.M{}
	if keyword != "" {
		filter["name"] = primitive.Regex{
			Pattern: regexp.QuoteMeta(keyword),
			Options: "i",
		}
	}
	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(roomsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	docs := []roomDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.db.Collection(roomsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	rooms := []*room.Room{}
	for i := range docs {
		rooms = append(rooms, fromRoomDoc(&docs[i]))
	}
	return rooms, int(count), nil
}

func (s *session) ChannelByID(ctx context.Context, id string) (*room.Channel, error) {
	d := &channelDoc{}
	err := s.db.Collection(channelsCollection).
		FindOne(s.c(ctx), bson.M{"_id": id}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.ChannelNotFoundError)
		}
		return nil, err
	}
	return fromChannelDoc(d), nil
}

func (s *session) ChannelByName(ctx context.Context, roomID, name, kind string) (*room.Channel, error) {
	d := &channelDoc{}
	err := s.db.Collection(channelsCollection).
		FindOne(s.c(ctx), bson.M{"room_id": roomID, "name": name, "kind": kind}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.ChannelNotFoundError)
		}
		return nil, err
	}
	return fromChannelDoc(d), nil
}

func (s *session) ChannelsByRoom(ctx context.Context, roomID string) ([]*room.Channel, error) {
	ctx = s.c(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(channelsCollection).
		Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	docs := []channelDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	channels := []*room.Channel{}
	for i := range docs {
		channels = append(channels, fromChannelDoc(&docs[i]))
	}
	return channels, nil
}

func (s *session) MemberOf(ctx context.Context, roomID, userID string) (*room.Member, error) {
	d := &memberDoc{}
	err := s.db.Collection(membersCollection).
		FindOne(s.c(ctx), bson.M{"room_id": roomID, "user_id": userID}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.MemberNotFoundError)
		}
		return nil, err
	}
	return fromMemberDoc(d), nil
}

func (s *session) MembersByRoom(ctx context.Context, roomID string) ([]*room.Member, error) {
	ctx = s.c(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(membersCollection).
		Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	docs := []memberDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	members := []*room.Member{}
	for i := range docs {
		members = append(members, fromMemberDoc(&docs[i]))
	}
	return members, nil
}

func (s *session) FileByID(ctx context.Context, id string) (*room.File, error) {
	d := &fileDoc{}
	err := s.db.Collection(filesCollection).
		FindOne(s.c(ctx), bson.M{"_id": id}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.FileNotFoundError)
		}
		return nil, err
	}
	return fromFileDoc(d), nil
}

func (s *session) FilesByRoom(ctx context.Context, roomID string) ([]*room.File, error) {
	ctx = s.c(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(filesCollection).
		Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	docs := []fileDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	files := []*room.File{}
	for i := range docs {
		files = append(files, fromFileDoc(&docs[i]))
	}
	return files, nil
}

func (s *session) FilesOlderThan(ctx context.Context, roomID string, cutoff time.Time, offset, limit int) ([]*room.File, error) {
	ctx = s.c(ctx)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	filter := bson.M{
		"room_id":    roomID,
		"created_at": bson.M{"$lt": cutoff},
	}
	cursor, err := s.db.Collection(filesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	docs := []fileDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	files := []*room.File{}
	for i := range docs {
		files = append(files, fromFileDoc(&docs[i]))
	}
	return files, nil
}

func (s *session) MessageByID(ctx context.Context, id string) (*room.Message, error) {
	d := &messageDoc{}
	err := s.db.Collection(messagesCollection).
		FindOne(s.c(ctx), bson.M{"_id": id}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.MessageNotFoundError)
		}
		return nil, err
	}
	return fromMessageDoc(d), nil
}

func (s *session) MessagesByChannel(ctx context.Context, channelID string) ([]*room.Message, error) {
	ctx = s.c(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(messagesCollection).
		Find(ctx, bson.M{"channel_id": channelID}, opts)
	if err != nil {
		return nil, err
	}
	docs := []messageDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	messages := []*room.Message{}
	for i := range docs {
		messages = append(messages, fromMessageDoc(&docs[i]))
	}
	return messages, nil
}

func (s *session) WebhookByID(ctx context.Context, id string) (*room.Webhook, error) {
	d := &webhookDoc{}
	err := s.db.Collection(webhooksCollection).
		FindOne(s.c(ctx), bson.M{"_id": id}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.WebhookNotFoundError)
		}
		return nil, err
	}
	return fromWebhookDoc(d), nil
}

func (s *session) WebhooksByRoom(ctx context.Context, roomID string) ([]*room.Webhook, error) {
	ctx = s.c(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(webhooksCollection).
		Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	docs := []webhookDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	webhooks := []*room.Webhook{}
	for i := range docs {
		webhooks = append(webhooks, fromWebhookDoc(&docs[i]))
	}
	return webhooks, nil
}

func (s *session) InviteByID(ctx context.Context, id string) (*room.InviteLink, error) {
	d := &inviteDoc{}
	err := s.db.Collection(invitesCollection).
		FindOne(s.c(ctx), bson.M{"_id": id}).Decode(d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, room.NotFound(room.InviteNotFoundError)
		}
		return nil, err
	}
	return fromInviteDoc(d), nil
}

func (s *session) InvitesByRoom(ctx context.Context, roomID string) ([]*room.InviteLink, error) {
	ctx = s.c(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(invitesCollection).
		Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	docs := []inviteDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	invites := []*room.InviteLink{}
	for i := range docs {
		invites = append(invites, fromInviteDoc(&docs[i]))
	}
	return invites, nil
}

func (s *session) Usage(ctx context.Context, roomID string) (*room.Usage, error) {
	ctx = s.c(ctx)
	usage := &room.Usage{}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"room_id": roomID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"bytes": bson.M{"$sum": "$size"},
		}}},
	}
	cursor, err := s.db.Collection(filesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	sums := []struct {
		Bytes int64 `bson:"bytes"`
	}{}
	err = cursor.All(ctx, &sums)
	if err != nil {
		return nil, err
	}
	if len(sums) > 0 {
		usage.Bytes = sums[0].Bytes
	}
	members, err := s.db.Collection(membersCollection).
		CountDocuments(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return nil, err
	}
	usage.Members = int(members)
	channels, err := s.db.Collection(channelsCollection).
		CountDocuments(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return nil, err
	}
	usage.Channels = int(channels)
	return usage, nil
}

func (s *session) AuditsByRoom(ctx context.Context, roomID string) ([]*room.AuditEntry, error) {
	ctx = s.c(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(auditsCollection).
		Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	docs := []auditDoc{}
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	entries := []*room.AuditEntry{}
	for i := range docs {
		entries = append(entries, fromAuditDoc(&docs[i]))
	}
	return entries, nil
}

func (s *session) CreateUser(ctx context.Context, u *room.User) error {
	_, err := s.db.Collection(usersCollection).InsertOne(s.c(ctx), toUserDoc(u))
	return mapDup(err, room.UserAlreadyExistError)
}

func (s *session) SaveUser(ctx context.Context, u *room.User) error {
	_, err := s.db.Collection(usersCollection).
		ReplaceOne(s.c(ctx), bson.M{"_id": u.ID}, toUserDoc(u))
	return err
}

func (s *session) CreateRoom(ctx context.Context, r *room.Room) error {
	_, err := s.db.Collection(roomsCollection).InsertOne(s.c(ctx), toRoomDoc(r))
	return mapDup(err, room.RoomAlreadyExistError)
}

func (s *session) SaveRoom(ctx context.Context, r *room.Room) error {
	_, err := s.db.Collection(roomsCollection).
		ReplaceOne(s.c(ctx), bson.M{"_id": r.ID}, toRoomDoc(r))
	return err
}

func (s *session) DeleteRoom(ctx context.Context, id string) error {
	_, err := s.db.Collection(roomsCollection).DeleteOne(s.c(ctx), bson.M{"_id": id})
	return err
}

func (s *session) CreateMember(ctx context.Context, m *room.Member) error {
	_, err := s.db.Collection(membersCollection).InsertOne(s.c(ctx), toMemberDoc(m))
	return mapDup(err, room.MemberAlreadyExistError)
}

func (s *session) DeleteMember(ctx context.Context, id string) error {
	_, err := s.db.Collection(membersCollection).DeleteOne(s.c(ctx), bson.M{"_id": id})
	return err
}

func (s *session) DeleteMembersByRoom(ctx context.Context, roomID string) error {
	_, err := s.db.Collection(membersCollection).
		DeleteMany(s.c(ctx), bson.M{"room_id": roomID})
	return err
}

func (s *session) CreateChannel(ctx context.Context, c *room.Channel) error {
	_, err := s.db.Collection(channelsCollection).InsertOne(s.c(ctx), toChannelDoc(c))
	return mapDup(err, room.ChannelAlreadyExistError)
}

func (s *session) SaveChannel(ctx context.Context, c *room.Channel) error {
	_, err := s.db.Collection(channelsCollection).
		ReplaceOne(s.c(ctx), bson.M{"_id": c.ID}, toChannelDoc(c))
	return err
}

func (s *session) DeleteChannel(ctx context.Context, id string) error {
	_, err := s.db.Collection(channelsCollection).DeleteOne(s.c(ctx), bson.M{"_id": id})
	return err
}

func (s *session) DeleteChannelsByRoom(ctx context.Context, roomID string) error {
	_, err := s.db.Collection(channelsCollection).
		DeleteMany(s.c(ctx), bson.M{"room_id": roomID})
	return err
}

func (s *session) CreateMessage(ctx context.Context, m *room.Message) error {
	_, err := s.db.Collection(messagesCollection).InsertOne(s.c(ctx), toMessageDoc(m))
	return err
}

func (s *session) SaveMessage(ctx context.Context, m *room.Message) error {
	_, err := s.db.Collection(messagesCollection).
		ReplaceOne(s.c(ctx), bson.M{"_id": m.ID}, toMessageDoc(m))
	return err
}

func (s *session) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.db.Collection(messagesCollection).DeleteOne(s.c(ctx), bson.M{"_id": id})
	return err
}

func (s *session) DeleteMessagesByChannel(ctx context.Context, channelID string) error {
	_, err := s.db.Collection(messagesCollection).
		DeleteMany(s.c(ctx), bson.M{"channel_id": channelID})
	return err
}

func (s *session) DeleteMessagesByRoom(ctx context.Context, roomID string) error {
	_, err := s.db.Collection(messagesCollection).
		DeleteMany(s.c(ctx), bson.M{"room_id": roomID})
	return err
}

func (s *session) CreateFile(ctx context.Context, f *room.File) error {
	_, err := s.db.Collection(filesCollection).InsertOne(s.c(ctx), toFileDoc(f))
	return err
}

func (s *session) DeleteFile(ctx context.Context, id string) error {
	_, err := s.db.Collection(filesCollection).DeleteOne(s.c(ctx), bson.M{"_id": id})
	return err
}

func (s *session) DeleteFilesByRoom(ctx context.Context, roomID string) error {
	_, err := s.db.Collection(filesCollection).
		DeleteMany(s.c(ctx), bson.M{"room_id": roomID})
	return err
}

func (s *session) CreateWebhook(ctx context.Context, w *room.Webhook) error {
	_, err := s.db.Collection(webhooksCollection).InsertOne(s.c(ctx), toWebhookDoc(w))
	return err
}

func (s *session) DeleteWebhook(ctx context.Context, id string) error {
	_, err := s.db.Collection(webhooksCollection).DeleteOne(s.c(ctx), bson.M{"_id": id})
	return err
}

func (s *session) DeleteWebhooksByChannel(ctx context.Context, channelID string) error {
	_, err := s.db.Collection(webhooksCollection).
		DeleteMany(s.c(ctx), bson.M{"channel_id": channelID})
	return err
}

func (s *session) DeleteWebhooksByRoom(ctx context.Context, roomID string) error {
	_, err := s.db.Collection(webhooksCollection).
		DeleteMany(s.c(ctx), bson.M{"room_id": roomID})
	return err
}

func (s *session) CreateInvite(ctx context.Context, l *room.InviteLink) error {
	_, err := s.db.Collection(invitesCollection).InsertOne(s.c(ctx), toInviteDoc(l))
	return err
}

func (s *session) DeleteInvite(ctx context.Context, id string) error {
	_, err := s.db.Collection(invitesCollection).DeleteOne(s.c(ctx), bson.M{"_id": id})
	return err
}

func (s *session) DeleteInvitesByRoom(ctx context.Context, roomID string) error {
	_, err := s.db.Collection(invitesCollection).
		DeleteMany(s.c(ctx), bson.M{"room_id": roomID})
	return err
}
