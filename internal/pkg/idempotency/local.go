package idempotency

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	state     State
	expiresAt time.Time
}

// Local tracks state in process memory. It is only correct for a single replica.
type Local struct {
	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

// NewLocal returns an in-memory tracker.
func NewLocal() *Local {
	return &Local{entries: make(map[string]localEntry), now: time.Now}
}

// Exec runs fn unless key is in progress or completed.
func (l *Local) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := newExecOptions(opts)

	if err := l.acquire(key, o.lockDuration); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		l.mu.Lock()
		delete(l.entries, key)
		l.mu.Unlock()
		return err
	}

	l.mu.Lock()
	l.entries[key] = localEntry{state: StateCompleted, expiresAt: l.now().Add(o.stateTTL)}
	l.mu.Unlock()
	return nil
}

func (l *Local) acquire(key string, lock time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok && now.Before(e.expiresAt) {
		return stateError(e.state)
	}

	for k, e := range l.entries {
		if !now.Before(e.expiresAt) {
			delete(l.entries, k)
		}
	}

	l.entries[key] = localEntry{state: StateInProgress, expiresAt: now.Add(lock)}
	return nil
}
