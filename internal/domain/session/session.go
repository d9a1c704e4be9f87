package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/patch"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/types"
)

// ErrClosed is returned when starting a generation on a closed session
var ErrClosed = errors.New("session: closed")

// Input is what a generation is asked to produce
type Input struct {
	Prompt  string            `json:"prompt"`
	Context map[string]string `json:"context,omitempty"`
}

// Generator opens the text stream for one generation. The returned source
// must stop when ctx is cancelled.
type Generator interface {
	Generate(ctx context.Context, in Input) (ingest.Source, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, in Input) (ingest.Source, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, in Input) (ingest.Source, error) {
	return f(ctx, in)
}

// Observer receives session activity. Every field is optional.
type Observer struct {
	Started  func(s *Session, in Input)
	Finished func(s *Session, state ingest.State, stats ingest.Stats, d time.Duration)
	Applied  func(s *Session, p patch.Patch)
	Rejected func(s *Session, rej tree.Rejection)
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver installs activity callbacks
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

// WithMaxLineBytes bounds a single stream line
func WithMaxLineBytes(n int) Option {
	return func(s *Session) {
		s.maxLine = n
	}
}

// Info is a point-in-time summary of a session
type Info struct {
	ID          string       `json:"id"`
	Status      ingest.State `json:"status"`
	Revision    uint64       `json:"revision"`
	Generations int          `json:"generations"`
	Prompt      string       `json:"prompt,omitempty"`
	Stats       ingest.Stats `json:"stats"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Session owns one tree store and drives at most one generation at a time
// into it. Sessions share nothing mutable with each other.
type Session struct {
	id       string
	gen      Generator
	store    *tree.Store
	logger   *zap.Logger
	observer Observer
	maxLine  int

	ctx   context.Context
	close context.CancelFunc

	// startMu serializes Start, Clear and Close
	startMu sync.Mutex

	mu          sync.RWMutex
	current     *Handle
	input       Input
	generations int
	createdAt   time.Time
	updatedAt   time.Time
}

// New creates an idle session. The catalog is shared read-only.
func New(id string, cat *catalog.Catalog, gen Generator, opts ...Option) *Session {
	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		gen:       gen,
		logger:    zap.NewNop(),
		ctx:       ctx,
		close:     cancel,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", id))
	s.store = tree.NewStore(cat,
		tree.WithLogger(s.logger),
		tree.WithHooks(tree.Hooks{
			Applied: func(p patch.Patch, _ uint64) {
				s.touch()
				if s.observer.Applied != nil {
					s.observer.Applied(s, p)
				}
			},
			Rejected: func(rej tree.Rejection) {
				if s.observer.Rejected != nil {
					s.observer.Rejected(s, rej)
				}
			},
		}),
	)
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Store returns the session's tree store
func (s *Session) Store() *tree.Store {
	return s.store
}

// Start begins a new generation. Any in-flight generation is cancelled and
// awaited first, then the tree is reset: a new prompt builds a new tree.
//
// The generation runs until its source ends, ctx is cancelled, Cancel is
// called or the session is closed. Failures to open the stream are reported
// through the handle as an errored generation, not as an error here.
func (s *Session) Start(ctx context.Context, in Input) (*Handle, error) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.ctx.Err() != nil {
		return nil, ErrClosed
	}

	s.stopCurrent()
	s.store.Clear()

	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)

	s.mu.Lock()
	s.generations++
	h := newHandle(s.generations, cancel, ingest.New(s.store,
		ingest.WithLogger(s.logger),
		ingest.WithMaxLineBytes(s.maxLine),
	))
	s.current = h
	s.input = in
	s.updatedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("Generation started", zap.Int("generation", h.generation))
	if s.observer.Started != nil {
		s.observer.Started(s, in)
	}

	src, err := s.open(runCtx, in)
	go func() {
		defer stop()
		defer cancel()
		if err != nil {
			src = failingSource(err)
		}
		runErr := h.ing.Run(runCtx, src)
		s.finished(h)
		h.finish(runErr)
	}()
	return h, nil
}

func (s *Session) open(ctx context.Context, in Input) (src ingest.Source, err error) {
	if s.gen == nil {
		return nil, fmt.Errorf("no generator configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panicked: %v", r)
		}
	}()
	return s.gen.Generate(ctx, in)
}

func failingSource(err error) ingest.Source {
	return ingest.SourceFunc(func(context.Context) (string, error) {
		return "", err
	})
}

func (s *Session) finished(h *Handle) {
	s.touch()
	state, stats, d := h.State(), h.Stats(), h.Duration()

	fields := []zap.Field{
		zap.Int("generation", h.generation),
		zap.String("state", string(state)),
		zap.Int("applied", stats.Applied),
		zap.Int("rejected", stats.Rejected),
		zap.Duration("duration", d),
	}
	if state == ingest.StateErrored {
		s.logger.Warn("Generation failed", append(fields, zap.Error(h.Err()))...)
	} else {
		s.logger.Info("Generation finished", fields...)
	}

	if s.observer.Finished != nil {
		s.observer.Finished(s, state, stats, d)
	}
}

// OnRevision registers cb to run after every tree mutation, in order. The
// callback runs on the generation's goroutine: it may read the session and
// call Cancel, but must not call Start, Clear or Close.
func (s *Session) OnRevision(cb func(revision uint64)) func() {
	return s.store.OnRevision(cb)
}

// Tree returns a snapshot of the current tree
func (s *Session) Tree() tree.UITree {
	return s.store.Snapshot()
}

// Current returns a snapshot together with its revision
func (s *Session) Current() (tree.UITree, uint64) {
	return s.store.Current()
}

// Cancel stops the in-flight generation. The tree keeps everything applied
// so far and the session stops streaming immediately. It does not wait for
// the generation's goroutine; use Wait for that.
func (s *Session) Cancel() {
	if h := s.handle(); h != nil {
		h.Cancel()
	}
}

// Clear cancels any generation and empties the tree
func (s *Session) Clear() {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.stopCurrent()
	s.store.Clear()
	s.touch()
}

// Close cancels any generation and rejects further starts
func (s *Session) Close() {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.close()
	s.stopCurrent()
}

// Wait blocks until the current generation reaches a terminal state or ctx
// is done. It returns the generation's error.
func (s *Session) Wait(ctx context.Context) error {
	h := s.handle()
	if h == nil {
		return nil
	}
	return h.Wait(ctx)
}

// Status returns the state of the current generation, or idle
func (s *Session) Status() ingest.State {
	if h := s.handle(); h != nil {
		return h.State()
	}
	return ingest.StateIdle
}

// Streaming reports whether a generation is consuming its stream
func (s *Session) Streaming() bool {
	return s.Status() == ingest.StateStreaming
}

// Err returns the transport error of the current generation, if it failed
func (s *Session) Err() error {
	if h := s.handle(); h != nil {
		return h.Err()
	}
	return nil
}

// Diagnostics returns the recovered errors of the current tree, followed by
// the transport failure when the generation errored
func (s *Session) Diagnostics() []types.Diagnostic {
	diags := s.store.Diagnostics()
	if err := s.Err(); err != nil {
		diags = append(diags, types.Diagnostic{
			Kind:    types.DiagnosticTransport,
			Message: err.Error(),
		})
	}
	return diags
}

// Info summarizes the session
func (s *Session) Info() Info {
	h := s.handle()

	s.mu.RLock()
	info := Info{
		ID:          s.id,
		Status:      ingest.StateIdle,
		Generations: s.generations,
		Prompt:      s.input.Prompt,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	s.mu.RUnlock()

	info.Revision = s.store.Revision()
	if h != nil {
		info.Status = h.State()
		info.Stats = h.Stats()
		if err := h.Err(); err != nil {
			info.Error = err.Error()
		}
	}
	return info
}

// UpdatedAt returns the time of the last activity
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func (s *Session) handle() *Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Session) touch() {
	s.mu.Lock()
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// stopCurrent cancels the current generation and waits for it; startMu
// must be held
func (s *Session) stopCurrent() {
	h := s.handle()
	if h == nil {
		return
	}
	h.Cancel()
	<-h.Done()
}
