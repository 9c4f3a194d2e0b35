package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xsj/overwatch-pkg/log"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/domain/event"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/inbound/command"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/lock"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

// authenticateNickHandler implements command.AuthenticateNickHandler.
type authenticateNickHandler struct {
	nickRepo  repository.NickRepository
	locker    lock.NickLocker
	publisher messaging.EventPublisher
	policy    model.ExpiryPolicy
	clock     Clock
	logger    log.Logger
}

// NewAuthenticateNickHandler creates a new AuthenticateNickHandler.
func NewAuthenticateNickHandler(
	nickRepo repository.NickRepository,
	locker lock.NickLocker,
	publisher messaging.EventPublisher,
	policy model.ExpiryPolicy,
	clock Clock,
	logger log.Logger,
) command.AuthenticateNickHandler {
	if clock == nil {
		clock = time.Now
	}
	return &authenticateNickHandler{
		nickRepo:  nickRepo,
		locker:    locker,
		publisher: publisher,
		policy:    policy,
		clock:     clock,
		logger:    logger,
	}
}

func (h *authenticateNickHandler) Handle(ctx context.Context, cmd command.AuthenticateNick) (command.AuthenticateNickResult, error) {
	nick := model.NormalizeNick(cmd.Nick)
	if nick == "" {
		return command.AuthenticateNickResult{}, domainerror.ErrNickRequired
	}

	unlock, err := h.locker.Lock(ctx, nick)
	if err != nil {
		return command.AuthenticateNickResult{}, fmt.Errorf("failed to lock nick %s: %w", nick, err)
	}
	defer unlock()

	now := h.clock()

	record, err := h.nickRepo.FindByNick(ctx, nick)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return command.AuthenticateNickResult{}, domainerror.ErrNickNotFound
		}
		return command.AuthenticateNickResult{}, fmt.Errorf("failed to find nick %s: %w", nick, err)
	}

	if !h.policy.IsPending(record, now) {
		return command.AuthenticateNickResult{}, domainerror.ErrNickNotPending
	}

	// No attempt limit: a wrong token can be retried until the auth window closes.
	if !model.VerifyToken(record, cmd.Token) {
		h.publish(ctx, event.NewNickAuthFailed(nick, "token mismatch"))
		return command.AuthenticateNickResult{}, domainerror.ErrTokenIncorrect
	}

	active := record.Activate(now)
	if err := h.nickRepo.Save(ctx, active); err != nil {
		return command.AuthenticateNickResult{}, fmt.Errorf("failed to save nick %s: %w", nick, err)
	}

	h.logger.Info("nick activated", log.String("nick", nick))
	h.publish(ctx, event.NewNickActivated(nick, active.Owner()))

	return command.AuthenticateNickResult{Nick: nick}, nil
}

func (h *authenticateNickHandler) publish(ctx context.Context, evt event.Event) {
	if err := h.publisher.Publish(ctx, evt); err != nil {
		h.logger.Warn("failed to publish event",
			log.String("event_type", evt.EventType()),
			log.String("error", err.Error()),
		)
	}
}
