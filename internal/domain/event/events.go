package event

import (
	"time"

	"github.com/0xsj/overwatch-pkg/types"
)

// Event is a change to a nick record worth telling the rest of the network about.
type Event interface {
	EventID() types.ID
	EventType() string
	OccurredAt() time.Time
	// Nick is the case-folded nick the event is about.
	Nick() string
}

// Event types
const (
	EventTypeNickRegistered = "nick.registered"
	EventTypeNickReclaimed  = "nick.reclaimed"
	EventTypeNickActivated  = "nick.activated"
	EventTypeNickAuthFailed = "nick.auth_failed"
)

type base struct {
	id         types.ID
	eventType  string
	occurredAt time.Time
	nick       string
}

func newBase(eventType, nick string) base {
	return base{
		id:         types.NewID(),
		eventType:  eventType,
		occurredAt: time.Now().UTC(),
		nick:       nick,
	}
}

func (b base) EventID() types.ID     { return b.id }
func (b base) EventType() string     { return b.eventType }
func (b base) OccurredAt() time.Time { return b.occurredAt }
func (b base) Nick() string          { return b.nick }
