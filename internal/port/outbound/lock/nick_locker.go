package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired before the context ended.
var ErrLockTimeout = errors.New("timed out acquiring nick lock")

// NickLocker serializes read-modify-write sequences on a single nick.
// Locks on different nicks never contend.
type NickLocker interface {
	// Lock blocks until the caller holds the lock for nick or ctx ends.
	// The returned unlock func is safe to call more than once.
	Lock(ctx context.Context, nick string) (unlock func(), err error)
}
