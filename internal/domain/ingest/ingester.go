package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/patch"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/types"
)

// State is the lifecycle state of one ingest run
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateComplete  State = "complete"
	StateErrored   State = "errored"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool {
	return s == StateComplete || s == StateErrored || s == StateCancelled
}

// Stats counts what one run consumed
type Stats struct {
	Chunks   int `json:"chunks"`
	Lines    int `json:"lines"`
	Applied  int `json:"applied"`
	Rejected int `json:"rejected"`
	Skipped  int `json:"skipped"` // blank lines
}

// ErrAlreadyStarted is returned when Run is called twice on one Ingester
var ErrAlreadyStarted = errors.New("ingest: already started")

// Option configures an Ingester
type Option func(*Ingester)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(i *Ingester) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithMaxLineBytes bounds a single line; longer lines are rejected
func WithMaxLineBytes(n int) Option {
	return func(i *Ingester) {
		i.maxLine = n
	}
}

// WithStateListener is called after every state transition, outside locks
func WithStateListener(fn func(State)) Option {
	return func(i *Ingester) {
		i.onState = fn
	}
}

// Ingester feeds one text stream into a tree store. It is single use:
// one Ingester per generation.
type Ingester struct {
	store   *tree.Store
	logger  *zap.Logger
	maxLine int
	onState func(State)

	mu              sync.RWMutex
	state           State
	err             error
	stats           Stats
	started         bool
	cancelRequested bool
	cancel          context.CancelFunc
	startedAt       time.Time
	finishedAt      time.Time
	done            chan struct{}
}

// New creates an idle ingester writing into store
func New(store *tree.Store, opts ...Option) *Ingester {
	i := &Ingester{
		store:  store,
		logger: zap.NewNop(),
		state:  StateIdle,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run consumes src until it ends, fails or ctx is cancelled. It returns nil
// on completion, a *TransportError when the source fails, and the context
// error on cancellation. The tree is never rolled back.
func (i *Ingester) Run(ctx context.Context, src Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	i.mu.Lock()
	if i.started {
		i.mu.Unlock()
		return ErrAlreadyStarted
	}
	i.started = true
	i.cancel = cancel
	i.startedAt = time.Now()
	if i.cancelRequested {
		cancel()
	}
	i.mu.Unlock()

	buf := NewLineBuffer(i.maxLine)
	for {
		chunk, err := src.Next(ctx)
		if ctx.Err() != nil {
			// Anything delivered after cancellation is dropped
			return i.finish(StateCancelled, ctx.Err())
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if line, ok := buf.Flush(); ok {
					i.handleLine(line)
				}
				return i.finish(StateComplete, nil)
			}
			return i.finish(StateErrored, &TransportError{Err: err})
		}

		i.mu.Lock()
		i.stats.Chunks++
		first := i.state == StateIdle
		if first {
			i.state = StateStreaming
		}
		i.mu.Unlock()
		if first {
			i.notify(StateStreaming)
		}

		for _, line := range buf.Write(chunk) {
			if ctx.Err() != nil {
				return i.finish(StateCancelled, ctx.Err())
			}
			i.handleLine(line)
		}
	}
}

// Cancel stops the run at its next await point. Calling Cancel before Run
// makes Run return immediately as cancelled.
func (i *Ingester) Cancel() {
	i.mu.Lock()
	i.cancelRequested = true
	cancel := i.cancel
	i.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// State returns the current state
func (i *Ingester) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Streaming reports whether chunks are currently being consumed: true from
// the first chunk until a terminal state.
func (i *Ingester) Streaming() bool {
	return i.State() == StateStreaming
}

// Err returns the terminal error: a *TransportError for errored runs, nil otherwise
func (i *Ingester) Err() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.err
}

// Stats returns a copy of the counters
func (i *Ingester) Stats() Stats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.stats
}

// Duration returns how long the run took, or has taken so far
func (i *Ingester) Duration() time.Duration {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.startedAt.IsZero() {
		return 0
	}
	if i.finishedAt.IsZero() {
		return time.Since(i.startedAt)
	}
	return i.finishedAt.Sub(i.startedAt)
}

// Done is closed when the run reaches a terminal state
func (i *Ingester) Done() <-chan struct{} {
	return i.done
}

func (i *Ingester) handleLine(line Line) {
	i.mu.Lock()
	i.stats.Lines++
	i.mu.Unlock()

	if line.TooLong {
		i.store.RecordRejection(tree.Rejection{
			Kind:   types.DiagnosticParse,
			Reason: fmt.Sprintf("%s: line %d exceeds the line size limit", patch.ReasonTooLong, line.Number),
		})
		i.count(func(s *Stats) { s.Rejected++ })
		return
	}

	p, err := patch.ParseLine(line.Text)
	if err != nil {
		var parseErr *patch.ParseError
		if errors.As(err, &parseErr) && parseErr.Soft() {
			i.count(func(s *Stats) { s.Skipped++ })
			return
		}
		i.logger.Debug("Skipping unparseable line",
			zap.Int("line", line.Number),
			zap.Error(err))
		i.store.RecordParseRejection(err)
		i.count(func(s *Stats) { s.Rejected++ })
		return
	}

	if i.store.Apply(p) {
		i.count(func(s *Stats) { s.Applied++ })
	} else {
		i.count(func(s *Stats) { s.Rejected++ })
	}
}

func (i *Ingester) count(fn func(*Stats)) {
	i.mu.Lock()
	fn(&i.stats)
	i.mu.Unlock()
}

func (i *Ingester) finish(state State, err error) error {
	i.mu.Lock()
	i.state = state
	if state == StateErrored {
		i.err = err
	}
	i.finishedAt = time.Now()
	stats := i.stats
	i.mu.Unlock()

	switch state {
	case StateErrored:
		i.logger.Warn("Stream failed", zap.Error(err), zap.Int("applied", stats.Applied))
	default:
		i.logger.Debug("Stream finished",
			zap.String("state", string(state)),
			zap.Int("lines", stats.Lines),
			zap.Int("applied", stats.Applied),
			zap.Int("rejected", stats.Rejected))
	}

	close(i.done)
	i.notify(state)
	return err
}

func (i *Ingester) notify(state State) {
	if i.onState != nil {
		i.onState(state)
	}
}
