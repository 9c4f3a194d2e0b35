package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/repotest"
	"github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/sqlite"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

func TestNickRepository(t *testing.T) {
	repotest.RunNickRepository(t, func(t *testing.T) repository.NickRepository {
		db, err := sqlite.Open(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		t.Cleanup(func() { db.Close() })
		return sqlite.NewNickRepository(db)
	})
}

func TestNickRepository_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nickserv.db")
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	record, err := model.NewNickRecord("alice", "alice_u", "hunter2", created)
	if err != nil {
		t.Fatalf("NewNickRecord() error = %v", err)
	}
	if err := sqlite.NewNickRepository(db).Create(ctx, record); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	db.Close()

	db, err = sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	got, err := sqlite.NewNickRepository(db).FindByNick(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByNick() error = %v", err)
	}
	if got.Owner() != "alice_u" {
		t.Errorf("Owner = %v, want alice_u", got.Owner())
	}
	if !got.MatchesCredential("hunter2") {
		t.Error("credential should survive a reopen")
	}
	if got.CreatedAtUnix() != created.Unix() {
		t.Errorf("CreatedAtUnix = %v, want %v", got.CreatedAtUnix(), created.Unix())
	}
}
