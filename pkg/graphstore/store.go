// Package graphstore is the graph implementation of the room
// storage port, backed by neo4j. Entities are property nodes, the
// port's key based lookups keep the three backends interchangeable.
package graphstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// New will create new instance of graph store
func New(driver neo4j.DriverWithContext, database string, logger *zap.SugaredLogger) *Store {
	s := &Store{
		driver:   driver,
		database: database,
		Logger:   logger,
	}
	s.graphOps = &graphOps{run: s.query}
	return s
}

// Store implements room.Store on a neo4j database
type Store struct {
	*graphOps
	driver   neo4j.DriverWithContext
	database string
	Logger   *zap.SugaredLogger
}

// EnsureConstraints creates the uniqueness constraints the domain
// relies on
func EnsureConstraints(ctx context.Context, driver neo4j.DriverWithContext, database string) error {
	statements := []string{
		"CREATE CONSTRAINT room_id IF NOT EXISTS FOR (r:Room) REQUIRE r.id IS UNIQUE",
		"CREATE CONSTRAINT room_name IF NOT EXISTS FOR (r:Room) REQUIRE r.name IS UNIQUE",
		"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
		"CREATE CONSTRAINT member_pair IF NOT EXISTS FOR (m:Member) REQUIRE (m.room_id, m.user_id) IS UNIQUE",
		"CREATE CONSTRAINT channel_triplet IF NOT EXISTS FOR (c:Channel) REQUIRE (c.room_id, c.name, c.kind) IS UNIQUE",
	}
	for _, stmt := range statements {
		_, err := neo4j.ExecuteQuery(ctx, driver, stmt, nil,
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(database))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) query(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

// Atomic runs fn inside one write transaction
func (s *Store) Atomic(ctx context.Context, fn func(tx room.Tx) error) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		ops := &graphOps{run: func(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
			result, err := tx.Run(ctx, cypher, params)
			if err != nil {
				return nil, err
			}
			return result.Collect(ctx)
		}}
		return nil, fn(ops)
	})
	return err
}

// AppendAudit writes one immutable audit entry
func (s *Store) AppendAudit(ctx context.Context, entry *room.AuditEntry) error {
	_, err := s.query(ctx,
		"CREATE (a:Audit) SET a = $props",
		map[string]any{"props": auditProps(entry)})
	return err
}

// graphOps carries every port operation over a cypher runner, which
// executes either standalone or inside an open transaction
type graphOps struct {
	run func(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
}

func mapDup(err error, message string) error {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) &&
		strings.Contains(neoErr.Code, "ConstraintValidationFailed") {
		return room.Duplicate(message)
	}
	return err
}

func (g *graphOps) one(ctx context.Context, cypher string, params map[string]any, missing string) (map[string]any, error) {
	records, err := g.run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, room.NotFound(missing)
	}
	props, ok := nodeProps(records[0])
	if !ok {
		return nil, room.NotFound(missing)
	}
	return props, nil
}

func (g *graphOps) many(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	records, err := g.run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	results := []map[string]any{}
	for _, rec := range records {
		props, ok := nodeProps(rec)
		if !ok {
			continue
		}
		results = append(results, props)
	}
	return results, nil
}

func (g *graphOps) UserByID(ctx context.Context, id string) (*room.User, error) {
	props, err := g.one(ctx,
		"MATCH (u:User {id: $id}) RETURN u {.*} AS props",
		map[string]any{"id": id}, room.UserNotFoundError)
	if err != nil {
		return nil, err
	}
	return userFromProps(props), nil
}

func (g *graphOps) RoomByID(ctx context.Context, id string) (*room.Room, error) {
	props, err := g.one(ctx,
		"MATCH (r:Room {id: $id}) RETURN r {.*} AS props",
		map[string]any{"id": id}, room.RoomNotFoundError)
	if err != nil {
		return nil, err
	}
	return roomFromProps(props), nil
}

func (g *graphOps) RoomByName(ctx context.Context, name string) (*room.Room, error) {
	props, err := g.one(ctx,
		"MATCH (r:Room {name: $name}) RETURN r {.*} AS props",
		map[string]any{"name": name}, room.RoomNotFoundError)
	if err != nil {
		return nil, err
	}
	return roomFromProps(props), nil
}

func (g *graphOps) Rooms(ctx context.Context, keyword string, offset, limit int) ([]*room.Room, int, error) {
	params := map[string]any{
		"keyword": strings.ToLower(keyword),
		"offset":  offset,
		"limit":   limit,
	}
	matches, err := g.many(ctx,
		`MATCH (r:Room) WHERE toLower(r.name) CONTAINS $keyword
		 RETURN r {.*} AS props ORDER BY r.id SKIP $offset LIMIT $limit`,
		params)
	if err != nil {
		return nil, 0, err
	}
	records, err := g.run(ctx,
		`MATCH (r:Room) WHERE toLower(r.name) CONTAINS $keyword
		 RETURN count(r) AS count`,
		params)
	if err != nil {
		return nil, 0, err
	}
	count := 0
	if len(records) > 0 {
		if raw, ok := records[0].Get("count"); ok {
			if n, ok := raw.(int64); ok {
				count = int(n)
			}
		}
	}
	rooms := []*room.Room{}
	for _, props := range matches {
		rooms = append(rooms, roomFromProps(props))
	}
	return rooms, count, nil
}

func (g *graphOps) ChannelByID(ctx context.Context, id string) (*room.Channel, error) {
	props, err := g.one(ctx,
		"MATCH (c:Channel {id: $id}) RETURN c {.*} AS props",
		map[string]any{"id": id}, room.ChannelNotFoundError)
	if err != nil {
		return nil, err
	}
	return channelFromProps(props), nil
}

func (g *graphOps) ChannelByName(ctx context.Context, roomID, name, kind string) (*room.Channel, error) {
	props, err := g.one(ctx,
		"MATCH (c:Channel {room_id: $roomID, name: $name, kind: $kind}) RETURN c {.*} AS props",
		map[string]any{"roomID": roomID, "name": name, "kind": kind},
		room.ChannelNotFoundError)
	if err != nil {
		return nil, err
	}
	return channelFromProps(props), nil
}

func (g *graphOps) ChannelsByRoom(ctx context.Context, roomID string) ([]*room.Channel, error) {
	matches, err := g.many(ctx,
		"MATCH (c:Channel {room_id: $roomID}) RETURN c {.*} AS props ORDER BY c.created_at",
		map[string]any{"roomID": roomID})
	if err != nil {
		return nil, err
	}
	channels := []*room.Channel{}
	for _, props := range matches {
		channels = append(channels, channelFromProps(props))
	}
	return channels, nil
}

func (g *graphOps) MemberOf(ctx context.Context, roomID, userID string) (*room.Member, error) {
	props, err := g.one(ctx,
		"MATCH (m:Member {room_id: $roomID, user_id: $userID}) RETURN m {.*} AS props",
		map[string]any{"roomID": roomID, "userID": userID},
		room.MemberNotFoundError)
	if err != nil {
		return nil, err
	}
	return memberFromProps(props), nil
}

func (g *graphOps) MembersByRoom(ctx context.Context, roomID string) ([]*room.Member, error) {
	matches, err := g.many(ctx,
		"MATCH (m:Member {room_id: $roomID}) RETURN m {.*} AS props ORDER BY m.created_at",
		map[string]any{"roomID": roomID})
	if err != nil {
		return nil, err
	}
	members := []*room.Member{}
	for _, props := range matches {
		members = append(members, memberFromProps(props))
	}
	return members, nil
}

func (g *graphOps) FileByID(ctx context.Context, id string) (*room.File, error) {
	props, err := g.one(ctx,
		"MATCH (f:File {id: $id}) RETURN f {.*} AS props",
		map[string]any{"id": id}, room.FileNotFoundError)
	if err != nil {
		return nil, err
	}
	return fileFromProps(props), nil
}

func (g *graphOps) FilesByRoom(ctx context.Context, roomID string) ([]*room.File, error) {
	matches, err := g.many(ctx,
		"MATCH (f:File {room_id: $roomID}) RETURN f {.*} AS props ORDER BY f.created_at",
		map[string]any{"roomID": roomID})
	if err != nil {
		return nil, err
	}
	files := []*room.File{}
	for _, props := range matches {
		files = append(files, fileFromProps(props))
	}
	return files, nil
}

func (g *graphOps) FilesOlderThan(ctx context.Context, roomID string, cutoff time.Time, offset, limit int) ([]*room.File, error) {
	matches, err := g.many(ctx,
		`MATCH (f:File {room_id: $roomID}) WHERE f.created_at < $cutoff
		 RETURN f {.*} AS props ORDER BY f.created_at SKIP $offset LIMIT $limit`,
		map[string]any{
			"roomID": roomID, "cutoff": cutoff,
			"offset": offset, "limit": limit,
		})
	if err != nil {
		return nil, err
	}
	files := []*room.File{}
	for _, props := range matches {
		files = append(files, fileFromProps(props))
	}
	return files, nil
}

func (g *graphOps) MessageByID(ctx context.Context, id string) (*room.Message, error) {
	props, err := g.one(ctx,
		"MATCH (m:Message {id: $id}) RETURN m {.*} AS props",
		map[string]any{"id": id}, room.MessageNotFoundError)
	if err != nil {
		return nil, err
	}
	return messageFromProps(props), nil
}

func (g *graphOps) MessagesByChannel(ctx context.Context, channelID string) ([]*room.Message, error) {
	matches, err := g.many(ctx,
		"MATCH (m:Message {channel_id: $channelID}) RETURN m {.*} AS props ORDER BY m.created_at",
		map[string]any{"channelID": channelID})
	if err != nil {
		return nil, err
	}
	messages := []*room.Message{}
	for _, props := range matches {
		messages = append(messages, messageFromProps(props))
	}
	return messages, nil
}

func (g *graphOps) WebhookByID(ctx context.Context, id string) (*room.Webhook, error) {
	props, err := g.one(ctx,
		"MATCH (w:Webhook {id: $id}) RETURN w {.*} AS props",
		map[string]any{"id": id}, room.WebhookNotFoundError)
	if err != nil {
		return nil, err
	}
	return webhookFromProps(props), nil
}

func (g *graphOps) WebhooksByRoom(ctx context.Context, roomID string) ([]*room.Webhook, error) {
	matches, err := g.many(ctx,
		"MATCH (w:Webhook {room_id: $roomID}) RETURN w {.*} AS props ORDER BY w.created_at",
		map[string]any{"roomID": roomID})
	if err != nil {
		return nil, err
	}
	webhooks := []*room.Webhook{}
	for _, props := range matches {
		webhooks = append(webhooks, webhookFromProps(props))
	}
	return webhooks, nil
}

func (g *graphOps) InviteByID(ctx context.Context, id string) (*room.InviteLink, error) {
	props, err := g.one(ctx,
		"MATCH (l:Invite {id: $id}) RETURN l {.*} AS props",
		map[string]any{"id": id}, room.InviteNotFoundError)
	if err != nil {
		return nil, err
	}
	return inviteFromProps(props), nil
}

func (g *graphOps) InvitesByRoom(ctx context.Context, roomID string) ([]*room.InviteLink, error) {
	matches, err := g.many(ctx,
		"MATCH (l:Invite {room_id: $roomID}) RETURN l {.*} AS props ORDER BY l.created_at",
		map[string]any{"roomID": roomID})
	if err != nil {
		return nil, err
	}
	invites := []*room.InviteLink{}
	for _, props := range matches {
		invites = append(invites, inviteFromProps(props))
	}
	return invites, nil
}

func (g *graphOps) Usage(ctx context.Context, roomID string) (*room.Usage, error) {
	records, err := g.run(ctx,
		`OPTIONAL MATCH (f:File {room_id: $roomID})
		 WITH coalesce(sum(f.size), 0) AS bytes
		 OPTIONAL MATCH (m:Member {room_id: $roomID})
		 WITH bytes, count(m) AS members
		 OPTIONAL MATCH (c:Channel {room_id: $roomID})
		 RETURN bytes, members, count(c) AS channels`,
		map[string]any{"roomID": roomID})
	if err != nil {
		return nil, err
	}
	usage := &room.Usage{}
	if len(records) == 0 {
		return usage, nil
	}
	if raw, ok := records[0].Get("bytes"); ok {
		if n, ok := raw.(int64); ok {
			usage.Bytes = n
		}
	}
	if raw, ok := records[0].Get("members"); ok {
		if n, ok := raw.(int64); ok {
			usage.Members = int(n)
		}
	}
	if raw, ok := records[0].Get("channels"); ok {
		if n, ok := raw.(int64); ok {
			usage.Channels = int(n)
		}
	}
	return usage, nil
}

func (g *graphOps) AuditsByRoom(ctx context.Context, roomID string) ([]*room.AuditEntry, error) {
	matches, err := g.many(ctx,
		"MATCH (a:Audit {room_id: $roomID}) RETURN a {.*} AS props ORDER BY a.created_at",
		map[string]any{"roomID": roomID})
	if err != nil {
		return nil, err
	}
	entries := []*room.AuditEntry{}
	for _, props := range matches {
		entries = append(entries, auditFromProps(props))
	}
	return entries, nil
}

func (g *graphOps) CreateUser(ctx context.Context, u *room.User) error {
	_, err := g.run(ctx, "CREATE (u:User) SET u = $props",
		map[string]any{"props": userProps(u)})
	return mapDup(err, room.UserAlreadyExistError)
}

func (g *graphOps) SaveUser(ctx context.Context, u *room.User) error {
	_, err := g.run(ctx, "MATCH (u:User {id: $id}) SET u = $props",
		map[string]any{"id": u.ID, "props": userProps(u)})
	return err
}

func (g *graphOps) CreateRoom(ctx context.Context, r *room.Room) error {
	_, err := g.run(ctx, "CREATE (r:Room) SET r = $props",
		map[string]any{"props": roomProps(r)})
	return mapDup(err, room.RoomAlreadyExistError)
}

func (g *graphOps) SaveRoom(ctx context.Context, r *room.Room) error {
	_, err := g.run(ctx, "MATCH (r:Room {id: $id}) SET r = $props",
		map[string]any{"id": r.ID, "props": roomProps(r)})
	return err
}

func (g *graphOps) DeleteRoom(ctx context.Context, id string) error {
	_, err := g.run(ctx, "MATCH (r:Room {id: $id}) DETACH DELETE r",
		map[string]any{"id": id})
	return err
}

func (g *graphOps) CreateMember(ctx context.Context, m *room.Member) error {
	_, err := g.run(ctx, "CREATE (m:Member) SET m = $props",
		map[string]any{"props": memberProps(m)})
	return mapDup(err, room.MemberAlreadyExistError)
}

func (g *graphOps) DeleteMember(ctx context.Context, id string) error {
	_, err := g.run(ctx, "MATCH (m:Member {id: $id}) DETACH DELETE m",
		map[string]any{"id": id})
	return err
}

func (g *graphOps) DeleteMembersByRoom(ctx context.Context, roomID string) error {
	_, err := g.run(ctx, "MATCH (m:Member {room_id: $roomID}) DETACH DELETE m",
		map[string]any{"roomID": roomID})
	return err
}

func (g *graphOps) CreateChannel(ctx context.Context, c *room.Channel) error {
	_, err := g.run(ctx, "CREATE (c:Channel) SET c = $props",
		map[string]any{"props": channelProps(c)})
	return mapDup(err, room.ChannelAlreadyExistError)
}

func (g *graphOps) SaveChannel(ctx context.Context, c *room.Channel) error {
	_, err := g.run(ctx, "MATCH (c:Channel {id: $id}) SET c = $props",
		map[string]any{"id": c.ID, "props": channelProps(c)})
	return err
}

func (g *graphOps) DeleteChannel(ctx context.Context, id string) error {
	_, err := g.run(ctx, "MATCH (c:Channel {id: $id}) DETACH DELETE c",
		map[string]any{"id": id})
	return err
}

func (g *graphOps) DeleteChannelsByRoom(ctx context.Context, roomID string) error {
	_, err := g.run(ctx, "MATCH (c:Channel {room_id: $roomID}) DETACH DELETE c",
		map[string]any{"roomID": roomID})
	return err
}

func (g *graphOps) CreateMessage(ctx context.Context, m *room.Message) error {
	_, err := g.run(ctx, "CREATE (m:Message) SET m = $props",
		map[string]any{"props": messageProps(m)})
	return err
}

func (g *graphOps) SaveMessage(ctx context.Context, m *room.Message) error {
	_, err := g.run(ctx, "MATCH (m:Message {id: $id}) SET m = $props",
		map[string]any{"id": m.ID, "props": messageProps(m)})
	return err
}

func (g *graphOps) DeleteMessage(ctx context.Context, id string) error {
	_, err := g.run(ctx, "MATCH (m:Message {id: $id}) DETACH DELETE m",
		map[string]any{"id": id})
	return err
}

func (g *graphOps) DeleteMessagesByChannel(ctx context.Context, channelID string) error {
	_, err := g.run(ctx, "MATCH (m:Message {channel_id: $channelID}) DETACH DELETE m",
		map[string]any{"channelID": channelID})
	return err
}

func (g *graphOps) DeleteMessagesByRoom(ctx context.Context, roomID string) error {
	_, err := g.run(ctx, "MATCH (m:Message {room_id: $roomID}) DETACH DELETE m",
		map[string]any{"roomID": roomID})
	return err
}

func (g *graphOps) CreateFile(ctx context.Context, f *room.File) error {
	_, err := g.run(ctx, "CREATE (f:File) SET f = $props",
		map[string]any{"props": fileProps(f)})
	return err
}

func (g *graphOps) DeleteFile(ctx context.Context, id string) error {
	_, err := g.run(ctx, "MATCH (f:File {id: $id}) DETACH DELETE f",
		map[string]any{"id": id})
	return err
}

func (g *graphOps) DeleteFilesByRoom(ctx context.Context, roomID string) error {
	_, err := g.run(ctx, "MATCH (f:File {room_id: $roomID}) DETACH DELETE f",
		map[string]any{"roomID": roomID})
	return err
}

func (g *graphOps) CreateWebhook(ctx context.Context, w *room.Webhook) error {
	_, err := g.run(ctx, "CREATE (w:Webhook) SET w = $props",
		map[string]any{"props": webhookProps(w)})
	return err
}

func (g *graphOps) DeleteWebhook(ctx context.Context, id string) error {
	_, err := g.run(ctx, "MATCH (w:Webhook {id: $id}) DETACH DELETE w",
		map[string]any{"id": id})
	return err
}

func (g *graphOps) DeleteWebhooksByChannel(ctx context.Context, channelID string) error {
	_, err := g.run(ctx, "MATCH (w:Webhook {channel_id: $channelID}) DETACH DELETE w",
		map[string]any{"channelID": channelID})
	return err
}

func (g *graphOps) DeleteWebhooksByRoom(ctx context.Context, roomID string) error {
	_, err := g.run(ctx, "MATCH (w:Webhook {room_id: $roomID}) DETACH DELETE w",
		map[string]any{"roomID": roomID})
	return err
}

func (g *graphOps) CreateInvite(ctx context.Context, l *room.InviteLink) error {
	_, err := g.run(ctx, "CREATE (l:Invite) SET l = $props",
		map[string]any{"props": inviteProps(l)})
	return err
}

func (g *graphOps) DeleteInvite(ctx context.Context, id string) error {
	_, err := g.run(ctx, "MATCH (l:Invite {id: $id}) DETACH DELETE l",
		map[string]any{"id": id})
	return err
}

func (g *graphOps) DeleteInvitesByRoom(ctx context.Context, roomID string) error {
	_, err := g.run(ctx, "MATCH (l:Invite {room_id: $roomID}) DETACH DELETE l",
		map[string]any{"roomID": roomID})
	return err
}
