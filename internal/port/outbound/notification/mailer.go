package notification

import (
	"context"
)

// Mail is a single outbound message.
type Mail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers mail to an address the user claims to own.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}
