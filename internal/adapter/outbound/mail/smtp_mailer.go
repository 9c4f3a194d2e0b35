package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/notification"
)

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// StartTLS upgrades the session when the server offers it.
	StartTLS bool
}

// smtpMailer implements notification.Mailer with go-mail.
type smtpMailer struct {
	config SMTPConfig
	now    func() time.Time
}

// NewSMTPMailer creates a new SMTP-backed Mailer.
func NewSMTPMailer(config SMTPConfig) notification.Mailer {
	return &smtpMailer{
		config: config,
		now:    time.Now,
	}
}

func (m *smtpMailer) Send(ctx context.Context, mail notification.Mail) error {
	msg, err := newMessage(mail, m.now())
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.config.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (m *smtpMailer) clientOptions() []gomail.Option {
	opts := []gomail.Option{gomail.WithPort(m.config.Port)}

	if m.config.StartTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if m.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.config.Username),
			gomail.WithPassword(m.config.Password),
		)
	}
	return opts
}

func newMessage(mail notification.Mail, now time.Time) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(mail.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(mail.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(mail.Subject)
	msg.SetDateWithValue(now)
	msg.SetBodyString(gomail.TypeTextPlain, mail.Body)
	return msg, nil
}
