package messaging

import (
	"context"
	"sync"
)

// Lifecycle tracks the running stream of a subscriber so that Unsubscribe can stop it
// from another goroutine, before or after Subscribe starts
type Lifecycle struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

// Begin derives the stream context. ok is false once Stop has been called
func (l *Lifecycle) Begin(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return nil, nil, false
	}

	streamCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	return streamCtx, cancel, true
}

func (l *Lifecycle) IsStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

// Stop cancels the running stream. It reports false when already stopped
func (l *Lifecycle) Stop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return false
	}
	l.stopped = true
	if l.cancel != nil {
		l.cancel()
	}
	return true
}

// ExitErr is the error a stream returns once its context is done:
// nil after Stop, the context error otherwise
func (l *Lifecycle) ExitErr(ctx context.Context) error {
	if l.IsStopped() {
		return nil
	}
	return ctx.Err()
}
