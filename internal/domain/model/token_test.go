package model_test

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
)

func TestDeriveToken(t *testing.T) {
	r := model.ReconstructNickRecord("alice", "alice_u", "cred", model.NickStatePending, 1700000000, 0)

	t.Run("is deterministic", func(t *testing.T) {
		if model.DeriveToken(r) != model.DeriveToken(r) {
			t.Error("expected identical tokens for identical records")
		}
	})

	t.Run("is fixed-length hex", func(t *testing.T) {
		token := model.DeriveToken(r)
		if len(token) != 64 {
			t.Errorf("len(token) = %d, want 64", len(token))
		}
		if _, err := hex.DecodeString(token); err != nil {
			t.Errorf("token is not hex: %v", err)
		}
	})

	t.Run("changes with every input field", func(t *testing.T) {
		base := model.DeriveToken(r)
		variants := map[string]model.NickRecord{
			"createdAt":  model.ReconstructNickRecord("alice", "alice_u", "cred", model.NickStatePending, 1700000001, 0),
			"owner":      model.ReconstructNickRecord("alice", "alice_v", "cred", model.NickStatePending, 1700000000, 0),
			"credential": model.ReconstructNickRecord("alice", "alice_u", "cred2", model.NickStatePending, 1700000000, 0),
		}
		for field, v := range variants {
			if model.DeriveToken(v) == base {
				t.Errorf("changing %s did not change the token", field)
			}
		}
	})

	t.Run("ignores state and activeAt", func(t *testing.T) {
		active := r.Activate(r.CreatedAt().Add(time.Hour))
		if model.DeriveToken(active) != model.DeriveToken(r) {
			t.Error("activation should not change the token")
		}
	})
}

func TestVerifyToken(t *testing.T) {
	r := mustNewNick(t, "bob", "bob_u", "secret", epoch)
	token := model.DeriveToken(r)

	if !model.VerifyToken(r, token) {
		t.Error("expected derived token to verify")
	}
	if model.VerifyToken(r, "") {
		t.Error("empty token should not verify")
	}
	if model.VerifyToken(r, token[:len(token)-1]) {
		t.Error("truncated token should not verify")
	}
	altered := []byte(token)
	if altered[0] == 'a' {
		altered[0] = 'b'
	} else {
		altered[0] = 'a'
	}
	if model.VerifyToken(r, string(altered)) {
		t.Error("altered token should not verify")
	}

	other := mustNewNick(t, "bob", "bob_u", "secret", epoch.Add(time.Second))
	if model.VerifyToken(other, token) {
		t.Error("token from a previous registration should not verify")
	}
}
