package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/lock"
)

const (
	advisoryLockSQL   = `SELECT pg_advisory_lock(hashtext($1))`
	advisoryUnlockSQL = `SELECT pg_advisory_unlock(hashtext($1))`
)

// nickLocker implements lock.NickLocker with session advisory locks, so
// several bot processes sharing one database serialize on the same nick.
type nickLocker struct {
	pool *pgxpool.Pool
}

// NewNickLocker creates a new NickLocker.
func NewNickLocker(pool *pgxpool.Pool) lock.NickLocker {
	return &nickLocker{
		pool: pool,
	}
}

func (l *nickLocker) Lock(ctx context.Context, nick string) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, advisoryLockSQL, nick); err != nil {
		// A cancelled wait leaves the connection in an unknown state.
		conn.Conn().Close(context.Background())
		conn.Release()
		if ctx.Err() != nil {
			return nil, lock.ErrLockTimeout
		}
		return nil, fmt.Errorf("failed to take advisory lock: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if _, err := conn.Exec(context.Background(), advisoryUnlockSQL, nick); err != nil {
				// Closing the session drops every advisory lock it holds.
				conn.Conn().Close(context.Background())
			}
			conn.Release()
		})
	}, nil
}
