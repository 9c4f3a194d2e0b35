package irc

import (
	"context"
	"errors"
	"time"

	"github.com/0xsj/overwatch-pkg/log"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/metrics"
	"github.com/0xsj/overwatch-nickserv/internal/port/inbound/command"
)

// Sender identifies who sent a private message.
type Sender struct {
	Nick string
	User string
	Host string
}

// owner is the identity recorded against a claim: the ident, or the nick if the server sent none.
func (s Sender) owner() string {
	if s.User != "" {
		return s.User
	}
	return s.Nick
}

// HandlerConfig holds dependencies for the Handler.
type HandlerConfig struct {
	RegisterNickHandler     command.RegisterNickHandler
	AuthenticateNickHandler command.AuthenticateNickHandler
	IdentifyNickHandler     command.IdentifyNickHandler
	Metrics                 *metrics.Metrics
	Logger                  log.Logger
}

// Handler turns private messages into command calls and command results into reply lines.
type Handler struct {
	registerNick     command.RegisterNickHandler
	authenticateNick command.AuthenticateNickHandler
	identifyNick     command.IdentifyNickHandler
	metrics          *metrics.Metrics
	logger           log.Logger
}

// NewHandler creates a new IRC Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		registerNick:     cfg.RegisterNickHandler,
		authenticateNick: cfg.AuthenticateNickHandler,
		identifyNick:     cfg.IdentifyNickHandler,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
	}
}

// Handle processes one private message from sender and returns the lines to send back.
// A nil result means no reply.
func (h *Handler) Handle(ctx context.Context, sender Sender, text string) []string {
	start := time.Now()
	req := ParseRequest(text)

	h.logger.Info("private message",
		log.String("from", sender.Nick),
		log.String("user", sender.User),
		log.String("text", redact(req, text)),
	)

	replies, outcome := h.dispatch(ctx, sender, req)
	if h.metrics != nil {
		h.metrics.ObserveCommand(req.Command(), outcome, start)
	}
	return replies
}

func (h *Handler) dispatch(ctx context.Context, sender Sender, req Request) ([]string, string) {
	switch r := req.(type) {
	case HelpRequest:
		return HelpLines, metrics.OutcomeOK
	case RegisterRequest:
		return h.register(ctx, sender, r)
	case AuthRequest:
		return h.authenticate(ctx, sender, r)
	case IdentifyRequest:
		return h.identify(ctx, sender, r)
	case UsageRequest:
		return []string{usageFor(r.Name)}, metrics.OutcomeRejected
	case UnknownRequest:
		return []string{ReplyUnknown(r.Name)}, metrics.OutcomeRejected
	default:
		return []string{ReplyUnknown(req.Command())}, metrics.OutcomeRejected
	}
}

func (h *Handler) register(ctx context.Context, sender Sender, r RegisterRequest) ([]string, string) {
	result, err := h.registerNick.Handle(ctx, command.RegisterNick{
		Nick:     sender.Nick,
		Owner:    sender.owner(),
		Password: r.Password,
		Email:    r.Email,
	})
	switch {
	case err == nil:
		return []string{ReplyPending(result.AuthWindowHours)}, metrics.OutcomeOK
	case errors.Is(err, domainerror.ErrNickAlreadyRegistered):
		return []string{ReplyAlreadyRegistered}, metrics.OutcomeRejected
	case errors.Is(err, domainerror.ErrEmailInvalid):
		return []string{ReplyInvalidEmail}, metrics.OutcomeRejected
	default:
		return h.failure(CommandRegister, sender, err)
	}
}

func (h *Handler) authenticate(ctx context.Context, sender Sender, r AuthRequest) ([]string, string) {
	_, err := h.authenticateNick.Handle(ctx, command.AuthenticateNick{
		Nick:  sender.Nick,
		Token: r.Token,
	})
	switch {
	case err == nil:
		return []string{ReplyActive}, metrics.OutcomeOK
	case errors.Is(err, domainerror.ErrTokenIncorrect):
		return []string{ReplyTokenIncorrect}, metrics.OutcomeRejected
	case errors.Is(err, domainerror.ErrNickNotFound), errors.Is(err, domainerror.ErrNickNotPending):
		// Nothing is said about nicks that cannot be authenticated.
		return nil, metrics.OutcomeRejected
	default:
		return h.failure(CommandAuth, sender, err)
	}
}

func (h *Handler) identify(ctx context.Context, sender Sender, r IdentifyRequest) ([]string, string) {
	_, err := h.identifyNick.Handle(ctx, command.IdentifyNick{
		Nick:     sender.Nick,
		Password: r.Password,
	})
	switch {
	case err == nil:
		return nil, metrics.OutcomeOK
	case errors.Is(err, domainerror.ErrNickNotFound):
		return []string{ReplyNotRegistered}, metrics.OutcomeRejected
	case errors.Is(err, domainerror.ErrCredentialMismatch):
		return []string{ReplyWrongPassword}, metrics.OutcomeRejected
	default:
		return h.failure(CommandIdentify, sender, err)
	}
}

func (h *Handler) failure(cmd string, sender Sender, err error) ([]string, string) {
	h.logger.Error("command failed",
		log.String("command", cmd),
		log.String("from", sender.Nick),
		log.String("error", err.Error()),
	)
	return []string{ReplyError}, metrics.OutcomeError
}
