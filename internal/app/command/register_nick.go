package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xsj/overwatch-pkg/log"
	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-nickserv/internal/app/service"
	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/domain/event"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/inbound/command"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/lock"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

// Clock returns the current time. Handlers take one so tests can pin "now".
type Clock func() time.Time

// registerNickHandler implements command.RegisterNickHandler.
type registerNickHandler struct {
	nickRepo     repository.NickRepository
	locker       lock.NickLocker
	confirmation service.ConfirmationService
	publisher    messaging.EventPublisher
	policy       model.ExpiryPolicy
	clock        Clock
	logger       log.Logger
}

// NewRegisterNickHandler creates a new RegisterNickHandler.
func NewRegisterNickHandler(
	nickRepo repository.NickRepository,
	locker lock.NickLocker,
	confirmation service.ConfirmationService,
	publisher messaging.EventPublisher,
	policy model.ExpiryPolicy,
	clock Clock,
	logger log.Logger,
) command.RegisterNickHandler {
	if clock == nil {
		clock = time.Now
	}
	return &registerNickHandler{
		nickRepo:     nickRepo,
		locker:       locker,
		confirmation: confirmation,
		publisher:    publisher,
		policy:       policy,
		clock:        clock,
		logger:       logger,
	}
}

func (h *registerNickHandler) Handle(ctx context.Context, cmd command.RegisterNick) (command.RegisterNickResult, error) {
	nick := model.NormalizeNick(cmd.Nick)
	if nick == "" {
		return command.RegisterNickResult{}, domainerror.ErrNickRequired
	}

	email, err := types.NewEmail(cmd.Email)
	if err != nil {
		return command.RegisterNickResult{}, domainerror.ErrEmailInvalid
	}

	// find -> decide -> create/replace must not interleave with another request for this nick
	unlock, err := h.locker.Lock(ctx, nick)
	if err != nil {
		return command.RegisterNickResult{}, fmt.Errorf("failed to lock nick %s: %w", nick, err)
	}
	defer unlock()

	now := h.clock()

	existing, err := h.nickRepo.FindByNick(ctx, nick)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return command.RegisterNickResult{}, fmt.Errorf("failed to find nick %s: %w", nick, err)
	}

	reclaim := err == nil
	if reclaim && !h.policy.IsDeletable(existing, now) {
		return command.RegisterNickResult{}, domainerror.ErrNickAlreadyRegistered
	}

	record, err := model.NewNickRecord(nick, cmd.Owner, cmd.Password, now)
	if err != nil {
		return command.RegisterNickResult{}, err
	}

	if reclaim {
		err = h.nickRepo.Replace(ctx, nick, record)
	} else {
		err = h.nickRepo.Create(ctx, record)
	}
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return command.RegisterNickResult{}, domainerror.ErrNickAlreadyRegistered
		}
		return command.RegisterNickResult{}, fmt.Errorf("failed to store nick %s: %w", nick, err)
	}

	h.logger.Info("nick registered",
		log.String("nick", nick),
		log.String("owner", record.Owner()),
		log.Any("reclaimed", reclaim),
	)

	// The record is committed; a failed delivery leaves it pending.
	token := model.DeriveToken(record)
	sent := true
	if err := h.confirmation.SendConfirmation(ctx, nick, email.String(), token); err != nil {
		sent = false
		h.logger.Error("confirmation mail failed",
			log.String("nick", nick),
			log.String("error", err.Error()),
		)
	}

	var evt event.Event = event.NewNickRegistered(nick, record.Owner())
	if reclaim {
		evt = event.NewNickReclaimed(nick, existing.Owner(), record.Owner())
	}
	if err := h.publisher.Publish(ctx, evt); err != nil {
		h.logger.Warn("failed to publish event",
			log.String("event_type", evt.EventType()),
			log.String("error", err.Error()),
		)
	}

	return command.RegisterNickResult{
		Nick:             nick,
		Reclaimed:        reclaim,
		AuthWindowHours:  h.policy.AuthWindowHours(),
		NotificationSent: sent,
	}, nil
}
