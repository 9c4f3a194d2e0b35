package service

import (
	"context"
	"fmt"
	"time"

	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/notification"
)

// ConfirmationConfig holds configuration for confirmation mails.
type ConfirmationConfig struct {
	From    string
	Subject string
	BotNick string
	Timeout time.Duration
}

// DefaultConfirmationConfig returns the confirmation settings the bot ships with.
func DefaultConfirmationConfig() ConfirmationConfig {
	return ConfirmationConfig{
		From:    "noreply@nano.li",
		Subject: "NickServ Confirmation Email",
		BotNick: "NickServ",
		Timeout: 30 * time.Second,
	}
}

// ConfirmationService delivers the token that proves ownership of an email address.
type ConfirmationService interface {
	// SendConfirmation mails token to email for the given nick.
	SendConfirmation(ctx context.Context, nick, email, token string) error
}

// confirmationService implements ConfirmationService.
type confirmationService struct {
	mailer notification.Mailer
	config ConfirmationConfig
}

// NewConfirmationService creates a new ConfirmationService.
func NewConfirmationService(mailer notification.Mailer, config ConfirmationConfig) ConfirmationService {
	return &confirmationService{
		mailer: mailer,
		config: config,
	}
}

func (s *confirmationService) SendConfirmation(ctx context.Context, nick, email, token string) error {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	mail := ConfirmationMail(s.config, nick, email, token)
	if err := s.mailer.Send(ctx, mail); err != nil {
		return fmt.Errorf("failed to send confirmation to %s: %w", email, err)
	}
	return nil
}

// ConfirmationMail builds the confirmation message for nick.
func ConfirmationMail(cfg ConfirmationConfig, nick, email, token string) notification.Mail {
	return notification.Mail{
		From:    cfg.From,
		To:      email,
		Subject: cfg.Subject,
		Body: fmt.Sprintf(
			"Thanks for registering your nick %q. Your authentication code is: %s. "+
				"Reply to %s with \"AUTH %s\" to finish your registration.",
			nick, token, cfg.BotNick, token,
		),
	}
}
