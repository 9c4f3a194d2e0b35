package event

// NickRegistered is emitted when a free nick is claimed and left pending.
type NickRegistered struct {
	base
	Owner string `json:"owner"`
}

func NewNickRegistered(nick, owner string) NickRegistered {
	return NickRegistered{base: newBase(EventTypeNickRegistered, nick), Owner: owner}
}

// NickReclaimed is emitted when an expired nick is replaced by a new pending claim.
type NickReclaimed struct {
	base
	PreviousOwner string `json:"previous_owner"`
	Owner         string `json:"owner"`
}

func NewNickReclaimed(nick, previousOwner, owner string) NickReclaimed {
	return NickReclaimed{
		base:          newBase(EventTypeNickReclaimed, nick),
		PreviousOwner: previousOwner,
		Owner:         owner,
	}
}

// NickActivated is emitted when a pending nick is confirmed with its token.
type NickActivated struct {
	base
	Owner string `json:"owner"`
}

func NewNickActivated(nick, owner string) NickActivated {
	return NickActivated{base: newBase(EventTypeNickActivated, nick), Owner: owner}
}

// NickAuthFailed is emitted when AUTH is attempted with the wrong token.
type NickAuthFailed struct {
	base
	Reason string `json:"reason"`
}

func NewNickAuthFailed(nick, reason string) NickAuthFailed {
	return NickAuthFailed{base: newBase(EventTypeNickAuthFailed, nick), Reason: reason}
}
