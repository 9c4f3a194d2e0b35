package command_test

import (
	"context"
	"errors"
	"testing"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/port/inbound/command"
)

func TestIdentifyNickHandler(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	f.mustRegister(t, "alice", "alice_u", "hunter2")

	t.Run("correct password", func(t *testing.T) {
		result, err := f.identify.Handle(ctx, command.IdentifyNick{Nick: "ALICE", Password: "hunter2"})
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if result.Nick != "alice" {
			t.Errorf("Nick = %v, want alice", result.Nick)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.identify.Handle(ctx, command.IdentifyNick{Nick: "alice", Password: "hunter3"})
		if !errors.Is(err, domainerror.ErrCredentialMismatch) {
			t.Fatalf("Handle() error = %v, want ErrCredentialMismatch", err)
		}
	})

	t.Run("unknown nick", func(t *testing.T) {
		_, err := f.identify.Handle(ctx, command.IdentifyNick{Nick: "bob", Password: "hunter2"})
		if !errors.Is(err, domainerror.ErrNickNotFound) {
			t.Fatalf("Handle() error = %v, want ErrNickNotFound", err)
		}
	})

	t.Run("does not modify the record", func(t *testing.T) {
		before := f.record(t, "alice")
		saves := f.repo.Calls.Save

		if _, err := f.identify.Handle(ctx, command.IdentifyNick{Nick: "alice", Password: "hunter2"}); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}

		after := f.record(t, "alice")
		if after.State() != before.State() || after.ActiveAtUnix() != before.ActiveAtUnix() {
			t.Error("IDENTIFY should not change the record")
		}
		if f.repo.Calls.Save != saves {
			t.Error("IDENTIFY should not save")
		}
	})
}
