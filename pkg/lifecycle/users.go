package lifecycle

import (
	"context"
	"time"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// NewUserParam carries a user registration handed over by the
// authentication layer
type NewUserParam struct {
	ID    string
	Name  string
	Email string
	Photo string
}

// RegisterUser will register a principal the external auth layer
// has authenticated. Users start unverified until the verification
// flow flips them.
func (a *API) RegisterUser(ctx context.Context, param NewUserParam) (*room.User, error) {
	if param.ID == "" || param.Name == "" {
		return nil, room.Invalid("user id and name are required")
	}
	_, err := a.Store.UserByID(ctx, param.ID)
	if err == nil {
		return nil, room.Duplicate(room.UserAlreadyExistError)
	}
	if !room.IsKind(err, room.KindNotFound) {
		return nil, a.storeErr(err)
	}
	now := time.Now()
	user := &room.User{
		ID:        param.ID,
		Name:      param.Name,
		Email:     param.Email,
		Photo:     param.Photo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, a.storeErr(err)
	}
	a.emit(room.UserRegistered, &room.UserEventPayload{
		ID: user.ID, Name: user.Name,
	})
	return user, nil
}

// GetUser return user information by it's id
func (a *API) GetUser(ctx context.Context, id string) (*room.User, error) {
	user, err := a.Store.UserByID(ctx, id)
	if err != nil {
		return nil, a.storeErr(err)
	}
	return user, nil
}

// VerifyUser marks a user's email as verified. The mail round trip
// itself lives outside this engine, only the resulting flag is
// recorded here.
func (a *API) VerifyUser(ctx context.Context, id string) (*room.User, error) {
	user, err := a.Store.UserByID(ctx, id)
	if err != nil {
		return nil, a.storeErr(err)
	}
	if user.Verified {
		return user, nil
	}
	user.Verified = true
	user.UpdatedAt = time.Now()
	err = a.Store.Atomic(ctx, func(tx room.Tx) error {
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		return nil, a.storeErr(err)
	}
	return user, nil
}
