package blog

import (
	"context"

	"github.com/sujalbistaa/chronicles/internal/store"
)

type EventType string

const (
	EventCreated  EventType = "new_post"
	EventUpdated  EventType = "post_updated"
	EventDeleted  EventType = "post_deleted"
	EventReaction EventType = "reaction"
)

// Event describes a committed post mutation.
type Event struct {
	Type   EventType
	PostID string
	Data   any
}

// ReactionData is the payload of a reaction event.
type ReactionData struct {
	ID string `json:"id"`
	store.Counts
}

// Notifier is told about every committed mutation. Implementations must not
// block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Notifiers fans an event out to each notifier in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, ev Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}
