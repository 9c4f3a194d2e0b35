// Package repotest holds behaviour checks shared by every NickRepository adapter.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// RunNickRepository runs the shared checks against repositories built by newRepo.
// newRepo must return an empty repository on every call.
func RunNickRepository(t *testing.T, newRepo func(t *testing.T) repository.NickRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("find missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByNick(ctx, "nobody")
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("FindByNick() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("create then find", func(t *testing.T) {
		repo := newRepo(t)
		record := mustRecord(t, "alice", "alice@host", epoch)

		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := repo.FindByNick(ctx, "alice")
		if err != nil {
			t.Fatalf("FindByNick() error = %v", err)
		}
		assertSameRecord(t, got, record)
	})

	t.Run("create conflict", func(t *testing.T) {
		repo := newRepo(t)
		first := mustRecord(t, "alice", "alice@host", epoch)
		second := mustRecord(t, "alice", "mallory@host", epoch.Add(time.Minute))

		if err := repo.Create(ctx, first); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		err := repo.Create(ctx, second)
		if !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("second Create() error = %v, want ErrConflict", err)
		}

		got, err := repo.FindByNick(ctx, "alice")
		if err != nil {
			t.Fatalf("FindByNick() error = %v", err)
		}
		if got.Owner() != "alice@host" {
			t.Errorf("Owner = %v, want alice@host", got.Owner())
		}
	})

	t.Run("save activation", func(t *testing.T) {
		repo := newRepo(t)
		record := mustRecord(t, "alice", "alice@host", epoch)
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		active := record.Activate(epoch.Add(time.Hour))
		if err := repo.Save(ctx, active); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := repo.FindByNick(ctx, "alice")
		if err != nil {
			t.Fatalf("FindByNick() error = %v", err)
		}
		if !got.IsActive() {
			t.Error("record should be active")
		}
		if got.ActiveAtUnix() != epoch.Add(time.Hour).Unix() {
			t.Errorf("ActiveAtUnix = %v, want %v", got.ActiveAtUnix(), epoch.Add(time.Hour).Unix())
		}
		if got.CreatedAtUnix() != epoch.Unix() {
			t.Errorf("CreatedAtUnix = %v, want %v", got.CreatedAtUnix(), epoch.Unix())
		}
	})

	t.Run("save missing", func(t *testing.T) {
		repo := newRepo(t)
		record := mustRecord(t, "ghost", "ghost@host", epoch)

		err := repo.Save(ctx, record.Activate(epoch))
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("Save() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("replace", func(t *testing.T) {
		repo := newRepo(t)
		old := mustRecord(t, "alice", "alice@host", epoch).Activate(epoch)
		if err := repo.Create(ctx, old); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		later := epoch.Add(100 * 24 * time.Hour)
		fresh := mustRecord(t, "alice", "bob@host", later)
		if err := repo.Replace(ctx, "alice", fresh); err != nil {
			t.Fatalf("Replace() error = %v", err)
		}

		got, err := repo.FindByNick(ctx, "alice")
		if err != nil {
			t.Fatalf("FindByNick() error = %v", err)
		}
		assertSameRecord(t, got, fresh)
		if got.IsActive() {
			t.Error("replaced record should be pending")
		}
	})

	t.Run("replace rejects a different nick", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.Create(ctx, mustRecord(t, "alice", "alice@host", epoch)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		err := repo.Replace(ctx, "alice", mustRecord(t, "bob", "bob@host", epoch))
		if !errors.Is(err, domainerror.ErrNickMismatch) {
			t.Fatalf("Replace() error = %v, want ErrNickMismatch", err)
		}
		if _, err := repo.FindByNick(ctx, "alice"); err != nil {
			t.Errorf("alice should survive a rejected Replace, got %v", err)
		}
	})

	t.Run("nicks are independent", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.Create(ctx, mustRecord(t, "alice", "alice@host", epoch)); err != nil {
			t.Fatalf("Create(alice) error = %v", err)
		}
		if err := repo.Create(ctx, mustRecord(t, "bob", "bob@host", epoch)); err != nil {
			t.Fatalf("Create(bob) error = %v", err)
		}

		got, err := repo.FindByNick(ctx, "bob")
		if err != nil {
			t.Fatalf("FindByNick() error = %v", err)
		}
		if got.Owner() != "bob@host" {
			t.Errorf("Owner = %v, want bob@host", got.Owner())
		}
	})
}

func mustRecord(t *testing.T, nick, owner string, now time.Time) model.NickRecord {
	t.Helper()
	record, err := model.NewNickRecord(nick, owner, "hunter2", now)
	if err != nil {
		t.Fatalf("NewNickRecord() error = %v", err)
	}
	return record
}

func assertSameRecord(t *testing.T, got, want model.NickRecord) {
	t.Helper()
	if got.Nick() != want.Nick() {
		t.Errorf("Nick = %v, want %v", got.Nick(), want.Nick())
	}
	if got.Owner() != want.Owner() {
		t.Errorf("Owner = %v, want %v", got.Owner(), want.Owner())
	}
	if got.Credential() != want.Credential() {
		t.Errorf("Credential = %v, want %v", got.Credential(), want.Credential())
	}
	if got.State() != want.State() {
		t.Errorf("State = %v, want %v", got.State(), want.State())
	}
	if got.CreatedAtUnix() != want.CreatedAtUnix() {
		t.Errorf("CreatedAtUnix = %v, want %v", got.CreatedAtUnix(), want.CreatedAtUnix())
	}
	if got.ActiveAtUnix() != want.ActiveAtUnix() {
		t.Errorf("ActiveAtUnix = %v, want %v", got.ActiveAtUnix(), want.ActiveAtUnix())
	}
}
