package room

import (
	"time"

	"syreclabs.com/go/faker"
)

// FakeUser return random fake user data
func FakeUser() *User {
	return &User{
		ID:       faker.RandomString(5),
		Name:     faker.Name().Name(),
		Email:    faker.Internet().Email(),
		Photo:    faker.Avatar().String(),
		Verified: true,
	}
}

// FakeRoom return random fake room data with roomy default limits
func FakeRoom() *Room {
	return &Room{
		ID:          faker.RandomString(5),
		Name:        faker.Lorem().Characters(12),
		Description: faker.Lorem().Sentence(5),
		Category:    faker.Lorem().Word(),
		FileSettings: FileSettings{
			TotalBytesAllowed:  1 << 20,
			SingleBytesAllowed: 1 << 18,
			RetentionDays:      30,
		},
		UserSettings: UserSettings{
			MaxUsers:    25,
			JoinMessage: "{name} joined the room",
		},
		ChannelSettings: ChannelSettings{
			MaxChannels: 10,
		},
	}
}

// FakeChannel return random fake channel bound to a room
func FakeChannel(roomID string) *Channel {
	return &Channel{
		ID:     faker.RandomString(5),
		RoomID: roomID,
		Name:   faker.Lorem().Characters(8),
		Kind:   "text",
	}
}

// FakeFile return random fake file metadata bound to a room
func FakeFile(roomID string, kind FileKind) *File {
	return &File{
		ID:     faker.RandomString(5),
		RoomID: roomID,
		URL:    faker.Internet().Url(),
		Size:   int64(faker.RandomInt(100, 5000)),
		Kind:   kind,
	}
}

// FakeInvite return random fake invite link without expiry
func FakeInvite(roomID, createdBy string) *InviteLink {
	return &InviteLink{
		ID:        faker.RandomString(5),
		RoomID:    roomID,
		CreatedBy: createdBy,
	}
}

// FakeExpiredInvite return random fake invite link expired an hour ago
func FakeExpiredInvite(roomID, createdBy string) *InviteLink {
	expired := time.Now().Add(-time.Hour)
	l := FakeInvite(roomID, createdBy)
	l.ExpiresAt = &expired
	return l
}
