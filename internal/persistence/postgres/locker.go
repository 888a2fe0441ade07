package postgres

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
)

// Locker serialises syncs across replicas with session-level advisory locks. The pooled
// connection that took the lock is held until release.
type Locker struct {
	pool *pgxpool.Pool
}

// NewLocker constructs a Locker.
func NewLocker(pool *pgxpool.Pool) *Locker {
	return &Locker{pool: pool}
}

// TryLock implements domain.SyncLocker.
func (l *Locker) TryLock(ctx context.Context, key string) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtextextended($1, 0))`, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, err
	}
	if !acquired {
		conn.Release()
		return nil, domain.ErrSyncInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key); err != nil {
				log.Printf("advisory unlock %s: %v", key, err)
				// Drop the session so the lock cannot leak back into the pool.
				_ = conn.Conn().Close(unlockCtx)
			}
			conn.Release()
		})
	}, nil
}
