// Package logging holds outbound adapters that only write to the log.
// They stand in for mail and event transports when none is configured.
package logging

import (
	"context"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-nickserv/internal/domain/event"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/notification"
)

type mailer struct {
	logger log.Logger
}

// NewMailer creates a Mailer that logs each message instead of sending it.
func NewMailer(logger log.Logger) notification.Mailer {
	return &mailer{logger: logger}
}

func (m *mailer) Send(ctx context.Context, mail notification.Mail) error {
	m.logger.Info("mail not sent, log transport",
		log.String("to", mail.To),
		log.String("subject", mail.Subject),
		log.String("body", mail.Body),
	)
	return nil
}

type eventPublisher struct {
	logger log.Logger
}

// NewEventPublisher creates an EventPublisher that logs each event.
func NewEventPublisher(logger log.Logger) messaging.EventPublisher {
	return &eventPublisher{logger: logger}
}

func (p *eventPublisher) Publish(ctx context.Context, evt event.Event) error {
	p.logger.Info("event",
		log.String("event_type", evt.EventType()),
		log.String("nick", evt.Nick()),
	)
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
