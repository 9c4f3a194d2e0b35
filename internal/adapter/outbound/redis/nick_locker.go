package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/0xsj/overwatch-pkg/log"
	"github.com/0xsj/overwatch-pkg/security"

	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/lock"
)

const (
	nickLockKeyPrefix = "nickserv:lock:"

	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 25 * time.Millisecond
)

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only while the key still carries our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// NickLockerConfig holds lease settings for the Redis locker.
type NickLockerConfig struct {
	// TTL bounds how long a crashed holder keeps the nick locked.
	// A live holder renews the lease every TTL/3 until it unlocks.
	TTL time.Duration
	// RetryWait is the pause between acquisition attempts.
	RetryWait time.Duration
	// Logger receives lease renewal failures. Optional.
	Logger log.Logger
}

// nickLocker implements lock.NickLocker with SET NX leases.
type nickLocker struct {
	client *redis.Client
	config NickLockerConfig
}

// NewNickLocker creates a new NickLocker.
func NewNickLocker(client *redis.Client, config NickLockerConfig) lock.NickLocker {
	if config.TTL <= 0 {
		config.TTL = defaultLockTTL
	}
	if config.RetryWait <= 0 {
		config.RetryWait = defaultRetryWait
	}
	return &nickLocker{
		client: client,
		config: config,
	}
}

func (l *nickLocker) Lock(ctx context.Context, nick string) (func(), error) {
	token, err := security.RandomHex(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock token: %w", err)
	}

	key := nickLockKey(nick)
	ticker := time.NewTicker(l.config.RetryWait)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.config.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, lock.ErrLockTimeout
			}
			return nil, fmt.Errorf("failed to acquire nick lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, lock.ErrLockTimeout
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go l.keepAlive(nick, key, token, stop, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-stopped

			ctx, cancel := context.WithTimeout(context.Background(), l.config.TTL)
			defer cancel()
			n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
			switch {
			case err != nil:
				// Expiry releases the lease.
				l.warn("failed to release nick lock", nick, err)
			case n == 0:
				l.warn("nick lock was lost before release", nick, nil)
			}
		})
	}, nil
}

// keepAlive renews the lease until stop is closed or the lease is gone.
func (l *nickLocker) keepAlive(nick, key, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	interval := l.config.TTL / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.config.TTL.Milliseconds()).Int()
		cancel()
		if err != nil {
			l.warn("failed to renew nick lock", nick, err)
			continue
		}
		if n == 0 {
			l.warn("nick lock was lost while held", nick, nil)
			return
		}
	}
}

func (l *nickLocker) warn(msg, nick string, err error) {
	if l.config.Logger == nil {
		return
	}
	fields := []log.Field{log.String("nick", nick)}
	if err != nil {
		fields = append(fields, log.String("error", err.Error()))
	}
	l.config.Logger.Warn(msg, fields...)
}

// Key helper

func nickLockKey(nick string) string {
	return nickLockKeyPrefix + nick
}
