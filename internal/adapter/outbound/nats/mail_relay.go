package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/notification"
)

// mailRelay implements notification.Mailer by handing mail to a NATS
// subscriber that owns actual delivery.
type mailRelay struct {
	conn    Conn
	subject string
}

// NewMailRelay creates a Mailer that publishes to "<prefix>.nickserv.mail".
func NewMailRelay(conn Conn, subjectPrefix string) notification.Mailer {
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}
	return &mailRelay{
		conn:    conn,
		subject: subjectPrefix + "." + SubjectMail,
	}
}

func (r *mailRelay) Send(ctx context.Context, mail notification.Mail) error {
	data, err := json.Marshal(mailRequest{
		From:    mail.From,
		To:      mail.To,
		Subject: mail.Subject,
		Body:    mail.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail: %w", err)
	}

	if err := r.conn.Publish(r.subject, data); err != nil {
		return fmt.Errorf("failed to publish mail: %w", err)
	}
	// The server has the message once the flush round-trips.
	if err := r.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush mail: %w", err)
	}
	return nil
}

type mailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
