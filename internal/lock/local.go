// Package lock provides the per-purchase-order mutual exclusion used by the engine:
// an in-process keyed lock and a Redis-backed lock for multi-instance deployments.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTimeout is returned when a lock could not be obtained within the wait bound.
var ErrTimeout = errors.New("lock wait timed out")

// Local is a keyed mutex for a single process. Waiters give up after wait.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

// NewLocal returns a Local lock whose waiters give up after wait. Zero waits until ctx is done.
func NewLocal(wait time.Duration) *Local {
	return &Local{held: make(map[string]chan struct{}), wait: wait}
}

func (l *Local) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	var deadline <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			mine := make(chan struct{})
			l.held[key] = mine
			l.mu.Unlock()
			return l.releaser(key, mine), nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-deadline:
			return nil, fmt.Errorf("%s: %w", key, ErrTimeout)
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", key, ctx.Err())
		}
	}
}

func (l *Local) releaser(key string, mine chan struct{}) func(context.Context) error {
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			if l.held[key] == mine {
				delete(l.held, key)
			}
			l.mu.Unlock()
			close(mine)
		})
		return nil
	}
}
