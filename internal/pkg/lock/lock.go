// Package lock provides exclusive, expiring leases keyed by name.
// Scheduling runs use it to keep one commit or clear per term at a time.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrLockHeld is returned when another holder owns the key
var ErrLockHeld = errors.New("lock is held by another run")

// ErrLockLost is returned by Extend when the lease expired and the key moved on
var ErrLockLost = errors.New("lock lease was lost")

// DefaultTTL applies when Acquire is called without a ttl
const DefaultTTL = 2 * time.Minute

// Lease is an acquired lock. Release is safe to call more than once.
type Lease interface {
	Key() string
	// Extend pushes the expiry to ttl from now while the lease is still ours.
	Extend(ctx context.Context, ttl time.Duration) error
	Release(ctx context.Context) error
}

// Locker hands out leases. Acquire never blocks waiting for a holder.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// LocalLocker keeps leases in process memory. Used when no redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localEntry
	now  func() time.Time
}

type localEntry struct {
	token   string
	expires time.Time
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held: make(map[string]localEntry),
		now:  time.Now,
	}
}

// Acquire takes key for ttl. An expired holder is replaced.
func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrLockHeld
	}

	token := uuid.NewString()
	l.held[key] = localEntry{token: token, expires: now.Add(ttl)}
	return &localLease{locker: l, key: key, token: token}, nil
}

type localLease struct {
	locker *LocalLocker
	key    string
	token  string
	once   sync.Once
}

func (l *localLease) Key() string { return l.key }

func (l *localLease) Extend(_ context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()

	now := l.locker.now()
	e, ok := l.locker.held[l.key]
	if !ok || e.token != l.token || !now.Before(e.expires) {
		return ErrLockLost
	}
	e.expires = now.Add(ttl)
	l.locker.held[l.key] = e
	return nil
}

func (l *localLease) Release(context.Context) error {
	l.once.Do(func() {
		l.locker.mu.Lock()
		defer l.locker.mu.Unlock()
		if e, ok := l.locker.held[l.key]; ok && e.token == l.token {
			delete(l.locker.held, l.key)
		}
	})
	return nil
}
