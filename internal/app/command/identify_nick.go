package command

import (
	"context"
	"errors"
	"fmt"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/inbound/command"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

// identifyNickHandler implements command.IdentifyNickHandler.
type identifyNickHandler struct {
	nickRepo repository.NickRepository
}

// NewIdentifyNickHandler creates a new IdentifyNickHandler.
func NewIdentifyNickHandler(nickRepo repository.NickRepository) command.IdentifyNickHandler {
	return &identifyNickHandler{
		nickRepo: nickRepo,
	}
}

// Handle compares the password only. Marking the connection as identified
// is not defined for this network, so a match changes nothing.
func (h *identifyNickHandler) Handle(ctx context.Context, cmd command.IdentifyNick) (command.IdentifyNickResult, error) {
	nick := model.NormalizeNick(cmd.Nick)
	if nick == "" {
		return command.IdentifyNickResult{}, domainerror.ErrNickRequired
	}

	record, err := h.nickRepo.FindByNick(ctx, nick)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return command.IdentifyNickResult{}, domainerror.ErrNickNotFound
		}
		return command.IdentifyNickResult{}, fmt.Errorf("failed to find nick %s: %w", nick, err)
	}

	if !record.MatchesCredential(cmd.Password) {
		return command.IdentifyNickResult{}, domainerror.ErrCredentialMismatch
	}

	return command.IdentifyNickResult{Nick: nick}, nil
}
