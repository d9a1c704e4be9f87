package session

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
)

// Handle tracks one generation within a session
type Handle struct {
	generation int
	ing        *ingest.Ingester
	cancel     context.CancelFunc

	mu        sync.RWMutex
	cancelled bool
	err       error
	done      chan struct{}
}

func newHandle(generation int, cancel context.CancelFunc, ing *ingest.Ingester) *Handle {
	return &Handle{
		generation: generation,
		ing:        ing,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Generation is the 1-based index of this generation in its session
func (h *Handle) Generation() int {
	return h.generation
}

// Cancel stops the generation at its next await point
func (h *Handle) Cancel() {
	h.mu.Lock()
	h.cancelled = true
	h.mu.Unlock()

	h.ing.Cancel()
	h.cancel()
}

// State returns the generation state. A cancel request is reflected
// immediately, before the stream loop has noticed it.
func (h *Handle) State() ingest.State {
	state := h.ing.State()

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.cancelled && !state.Terminal() {
		return ingest.StateCancelled
	}
	return state
}

// Streaming reports whether the generation is consuming its stream
func (h *Handle) Streaming() bool {
	return h.State() == ingest.StateStreaming
}

// Err returns the *ingest.TransportError of a failed generation, or nil
func (h *Handle) Err() error {
	return h.ing.Err()
}

// Stats returns the ingest counters
func (h *Handle) Stats() ingest.Stats {
	return h.ing.Stats()
}

// Duration returns how long the generation ran, or has run so far
func (h *Handle) Duration() time.Duration {
	return h.ing.Duration()
}

// Done is closed once the generation's goroutine has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the generation ends or ctx is done. It returns nil for
// completed and cancelled generations and the transport error otherwise.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

func (h *Handle) finish(runErr error) {
	h.mu.Lock()
	if h.ing.State() == ingest.StateErrored {
		h.err = runErr
	}
	h.mu.Unlock()
	close(h.done)
}
