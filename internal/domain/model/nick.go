package model

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/0xsj/overwatch-pkg/security"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
)

// NickState represents where a claimed nick is in its lifecycle.
type NickState string

const (
	NickStatePending NickState = "pending"
	NickStateActive  NickState = "active"
)

func (s NickState) String() string {
	return string(s)
}

func (s NickState) IsValid() bool {
	switch s {
	case NickStatePending, NickStateActive:
		return true
	default:
		return false
	}
}

var nickFolder = cases.Fold()

// NormalizeNick returns the case-folded registry key for a nick.
func NormalizeNick(nick string) string {
	return nickFolder.String(strings.TrimSpace(nick))
}

// NickRecord is a claimed nick. It is a value type: transitions return a
// modified copy and never touch the receiver.
type NickRecord struct {
	nick       string
	owner      string
	credential string
	state      NickState
	createdAt  time.Time
	activeAt   time.Time
}

// NewNickRecord creates a pending record for nick, claimed by owner at now.
// The password is stored as a bcrypt hash of its SHA-256 digest, so passwords
// of any length are accepted.
func NewNickRecord(nick, owner, password string, now time.Time) (NickRecord, error) {
	nick = NormalizeNick(nick)
	if nick == "" {
		return NickRecord{}, domainerror.ErrNickRequired
	}
	if owner == "" {
		return NickRecord{}, domainerror.ErrOwnerRequired
	}
	if password == "" {
		return NickRecord{}, domainerror.ErrCredentialRequired
	}

	hash, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	if err != nil {
		return NickRecord{}, fmt.Errorf("failed to hash password: %w", err)
	}

	return NickRecord{
		nick:       nick,
		owner:      owner,
		credential: string(hash),
		state:      NickStatePending,
		createdAt:  now.Truncate(time.Second),
	}, nil
}

// ReconstructNickRecord creates a NickRecord from persisted data (bypasses validation).
// Timestamps are epoch seconds; an activeAt of 0 means never activated.
func ReconstructNickRecord(
	nick string,
	owner string,
	credential string,
	state NickState,
	createdAt int64,
	activeAt int64,
) NickRecord {
	r := NickRecord{
		nick:       nick,
		owner:      owner,
		credential: credential,
		state:      state,
		createdAt:  time.Unix(createdAt, 0),
	}
	if activeAt > 0 {
		r.activeAt = time.Unix(activeAt, 0)
	}
	return r
}

// Getters

func (r NickRecord) Nick() string         { return r.nick }
func (r NickRecord) Owner() string        { return r.owner }
func (r NickRecord) Credential() string   { return r.credential }
func (r NickRecord) State() NickState     { return r.state }
func (r NickRecord) CreatedAt() time.Time { return r.createdAt }
func (r NickRecord) ActiveAt() time.Time  { return r.activeAt }

// CreatedAtUnix returns the creation time in epoch seconds.
func (r NickRecord) CreatedAtUnix() int64 {
	return r.createdAt.Unix()
}

// ActiveAtUnix returns the activation time in epoch seconds, 0 if never activated.
func (r NickRecord) ActiveAtUnix() int64 {
	if r.activeAt.IsZero() {
		return 0
	}
	return r.activeAt.Unix()
}

// Queries

func (r NickRecord) IsActive() bool {
	return r.state == NickStateActive
}

func (r NickRecord) IsZero() bool {
	return r.nick == ""
}

// MatchesCredential reports whether password is the one chosen at registration.
func (r NickRecord) MatchesCredential(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(r.credential), prehash(password)) == nil
}

// prehash keeps bcrypt input at 64 bytes, under its 72 byte limit.
func prehash(password string) []byte {
	return []byte(security.SHA256Hex([]byte(password)))
}

// Transitions

// Activate moves a record to the active state and touches it.
func (r NickRecord) Activate(now time.Time) NickRecord {
	r.state = NickStateActive
	return r.Touch(now)
}

// Touch refreshes activeAt. A record that is not active always carries a zero activeAt.
func (r NickRecord) Touch(now time.Time) NickRecord {
	if r.state != NickStateActive {
		r.activeAt = time.Time{}
		return r
	}
	r.activeAt = now.Truncate(time.Second)
	return r
}
