package model

import "time"

// ExpiryPolicy decides when a claimed nick may be overwritten.
// All predicates are pure functions of the record and the supplied time.
type ExpiryPolicy struct {
	// AuthTimeout is how long a pending nick accepts AUTH after REGISTER.
	AuthTimeout time.Duration
	// NickTimeout is how long an active nick may sit untouched before it can be reclaimed.
	NickTimeout time.Duration
}

// NewExpiryPolicy builds a policy from the configured hour and day counts.
func NewExpiryPolicy(authTimeoutHours, nickTimeoutDays int) ExpiryPolicy {
	return ExpiryPolicy{
		AuthTimeout: time.Duration(authTimeoutHours) * time.Hour,
		NickTimeout: time.Duration(nickTimeoutDays) * 24 * time.Hour,
	}
}

// DefaultExpiryPolicy returns the 24 hour / 90 day policy.
func DefaultExpiryPolicy() ExpiryPolicy {
	return NewExpiryPolicy(24, 90)
}

// IsPending reports whether r is pending and still inside its auth window.
// At exactly AuthTimeout the window is closed.
func (p ExpiryPolicy) IsPending(r NickRecord, now time.Time) bool {
	return r.state == NickStatePending && now.Sub(r.createdAt) < p.AuthTimeout
}

// IsExpired reports whether r is active and has been inactive for longer than NickTimeout.
// A record that was never activated is never expired.
func (p ExpiryPolicy) IsExpired(r NickRecord, now time.Time) bool {
	return r.state == NickStateActive && now.Sub(r.activeAt) > p.NickTimeout
}

// IsDeletable reports whether a new REGISTER may replace r.
// A pending record whose auth window lapsed is not deletable.
func (p ExpiryPolicy) IsDeletable(r NickRecord, now time.Time) bool {
	return p.IsExpired(r, now) && !p.IsPending(r, now)
}

// AuthWindowHours returns AuthTimeout in whole hours, for user-facing text.
func (p ExpiryPolicy) AuthWindowHours() int {
	return int(p.AuthTimeout / time.Hour)
}
