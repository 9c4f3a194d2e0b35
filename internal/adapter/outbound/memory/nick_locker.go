package memory

import (
	"context"
	"sync"

	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/lock"
)

// NickLocker implements lock.NickLocker for a single process.
// Each held nick owns a one-slot channel; entries are dropped once no caller references them.
type NickLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewNickLocker creates a new NickLocker.
func NewNickLocker() *NickLocker {
	return &NickLocker{
		locks: make(map[string]*keyLock),
	}
}

var _ lock.NickLocker = (*NickLocker)(nil)

func (l *NickLocker) Lock(ctx context.Context, nick string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[nick]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[nick] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(nick, kl)
		return nil, lock.ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(nick, kl)
		})
	}, nil
}

func (l *NickLocker) release(nick string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, nick)
	}
}

// Held returns the number of nicks with a holder or waiter.
func (l *NickLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
