// Package gate provides a one-shot readiness barrier and a deadline-guarded
// await that forces readiness when the barrier takes too long to open.
package gate

import (
	"context"
	"sync"
	"time"
)

// Gate is a single-fire readiness signal. It starts closed and, once opened,
// stays open for the lifetime of the process.
type Gate struct {
	done        chan struct{}
	once        sync.Once
	mu          sync.Mutex
	subscribers []func()
}

// New creates a closed gate
func New() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Ready reports whether the gate has been opened
func (g *Gate) Ready() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the gate opens
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Open fires the gate. Only the first call has an effect; it reports whether
// this call was the one that opened it.
func (g *Gate) Open() bool {
	opened := false
	g.once.Do(func() {
		g.mu.Lock()
		subscribers := g.subscribers
		g.subscribers = nil
		close(g.done)
		g.mu.Unlock()

		for _, fn := range subscribers {
			fn()
		}
		opened = true
	})
	return opened
}

// Subscribe registers fn to run once the gate opens. If the gate is already
// open fn runs immediately on the calling goroutine.
func (g *Gate) Subscribe(fn func()) {
	g.mu.Lock()
	if !g.Ready() {
		g.subscribers = append(g.subscribers, fn)
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	fn()
}

// Wait blocks until the gate opens or ctx is done
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitOrForce waits for g to open for at most timeout. If the timer wins,
// force runs and the gate is opened afterwards, so callers never block
// longer than timeout plus the duration of force. The returned bool reports
// whether force was invoked by this call.
func AwaitOrForce(ctx context.Context, g *Gate, timeout time.Duration, force func()) (bool, error) {
	if g.Ready() {
		return false, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-g.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
	}

	// another waiter may have forced it while the timer fired
	if g.Ready() {
		return false, nil
	}
	force()
	g.Open()
	return true, nil
}
