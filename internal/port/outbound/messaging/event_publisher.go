package messaging

import (
	"context"

	"github.com/0xsj/overwatch-nickserv/internal/domain/event"
)

// EventPublisher announces nick lifecycle events. Publishing is best effort:
// callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, evt event.Event) error
	PublishAll(ctx context.Context, events []event.Event) error
}
