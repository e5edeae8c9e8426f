// Package events forwards lifecycle events to NATS so other
// services can react to room activity without polling.
package events

import (
	"context"

	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// DefaultBuffer is the event channel capacity handed to the engine.
// The engine drops events when the buffer is full rather than
// blocking a mutation on a slow broker.
const DefaultBuffer = 256

// Publisher is the encoded NATS connection surface the relay needs
type Publisher interface {
	Publish(subject string, v interface{}) error
}

// Source is anything producing lifecycle events on a channel
type Source interface {
	SetEvents(events chan *room.Event)
}

// NewRelay will create new instance of event relay
func NewRelay(
	nc Publisher,
	eventNamespace string,
	logger *zap.SugaredLogger,
) *Relay {
	return &Relay{
		Nats:           nc,
		EventNamespace: eventNamespace,
		Logger:         logger,
	}
}

// Relay publishes lifecycle events to NATS
type Relay struct {
	Nats           Publisher
	EventNamespace string
	Logger         *zap.SugaredLogger
}

// Wire attaches a fresh buffered channel to source and starts
// publishing from it until ctx is cancelled. The channel is owned
// by the producer and never closed here, so a mutation still in
// flight after cancellation sends into the buffer instead of
// panicking, and the engine drops events once the buffer fills.
func (r *Relay) Wire(ctx context.Context, source Source) {
	events := make(chan *room.Event, DefaultBuffer)
	source.SetEvents(events)
	go r.Publish(ctx, events)
}

// Publish will publish room events to NATS until ctx is cancelled
// or events is closed
func (r *Relay) Publish(ctx context.Context, events <-chan *room.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event == nil {
				continue
			}
			subject := r.EventNamespace + "." + event.Event
			err := r.Nats.Publish(subject, event.Payload)
			if err != nil {
				r.Logger.Error(err)
				continue
			}
		}
	}
}
