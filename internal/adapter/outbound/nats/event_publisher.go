package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/0xsj/overwatch-nickserv/internal/domain/event"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/messaging"
)

// Subject suffixes under the configured prefix.
const (
	SubjectNickEvents = "nickserv.nick"
	SubjectAuthEvents = "nickserv.auth"
	SubjectMail       = "nickserv.mail"
)

const defaultSubjectPrefix = "irc"

// Conn is the subset of *nats.Conn the adapters use.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

var _ Conn = (*nats.Conn)(nil)

type eventPublisher struct {
	conn   Conn
	prefix string
}

// NewEventPublisher creates an EventPublisher that writes JSON envelopes to NATS.
// Registration events go to <prefix>.nickserv.nick, AUTH outcomes to <prefix>.nickserv.auth.
func NewEventPublisher(conn Conn, subjectPrefix string) messaging.EventPublisher {
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}
	return &eventPublisher{conn: conn, prefix: subjectPrefix}
}

func (p *eventPublisher) Publish(ctx context.Context, evt event.Event) error {
	data, err := json.Marshal(envelope{
		ID:         evt.EventID().String(),
		Type:       evt.EventType(),
		Nick:       evt.Nick(),
		OccurredAt: evt.OccurredAt(),
		Data:       evt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", evt.EventType(), err)
	}

	subject := p.prefix + "." + SubjectFor(evt)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", evt.EventType(), subject, err)
	}
	return nil
}

func (p *eventPublisher) PublishAll(ctx context.Context, events []event.Event) error {
	for _, evt := range events {
		if err := p.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// SubjectFor returns the subject suffix an event is published under.
func SubjectFor(evt event.Event) string {
	switch evt.EventType() {
	case event.EventTypeNickActivated, event.EventTypeNickAuthFailed:
		return SubjectAuthEvents
	default:
		return SubjectNickEvents
	}
}

type envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Nick       string      `json:"nick"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       event.Event `json:"data"`
}
