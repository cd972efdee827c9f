package app

import "context"

const (
	EventWarble = "warble"
	EventFollow = "follow"
)

// Event is the payload handed to the async notification pipeline.
// ActorID is the user whose action produced the event; TargetID is set
// for follow events, MessageID for warble events.
type Event struct {
	Kind      string `json:"kind"`
	ActorID   uint   `json:"actor_id"`
	TargetID  uint   `json:"target_id,omitempty"`
	MessageID uint   `json:"message_id,omitempty"`
}

// EventPublisher delivers events to the notification worker. A nil
// publisher disables the pipeline; publish failures never fail the
// request that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
