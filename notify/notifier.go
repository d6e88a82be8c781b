package notify

import (
	"context"
)

// Event is a lifecycle notification delivered to one actor.
type Event struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
}

// Notifier delivers lifecycle events to actors. Delivery is best-effort;
// the coordinator logs failures but never blocks a transition on them.
type Notifier interface {
	PublishLifecycleEvent(ctx context.Context, subjectID string, event Event) error
}

// Noop discards all events. Used when no notification keys are configured.
type Noop struct{}

func (Noop) PublishLifecycleEvent(ctx context.Context, subjectID string, event Event) error {
	return nil
}
