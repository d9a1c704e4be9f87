package render

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/utils"
)

// ComponentFunc renders one element given its already rendered children
type ComponentFunc[T any] func(el tree.UIElement, children []T) T

// Registry maps element type names to component functions. It is supplied
// by the host; the renderer never mutates it.
type Registry[T any] map[string]ComponentFunc[T]

// Stats counts the work done by one Render call
type Stats struct {
	Rendered int `json:"rendered"` // component functions invoked
	Reused   int `json:"reused"`   // cached outputs returned unchanged
	Skipped  int `json:"skipped"`  // missing or cyclic child references
}

// Result is the outcome of one Render call
type Result[T any] struct {
	Output      T
	Empty       bool // root unset or not yet present; Output is the placeholder
	Diagnostics []types.Diagnostic
	Stats       Stats
	Duration    time.Duration
}

// Option configures a Renderer
type Option[T any] func(*Renderer[T])

// WithPlaceholder sets the output used while the tree has no renderable root
func WithPlaceholder[T any](fn func() T) Option[T] {
	return func(r *Renderer[T]) {
		r.placeholder = fn
	}
}

// WithUnknown sets the output used for elements whose type has no component
func WithUnknown[T any](fn func(el tree.UIElement) T) Option[T] {
	return func(r *Renderer[T]) {
		r.unknown = fn
	}
}

// WithLogger sets the logger
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(r *Renderer[T]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type entry[T any] struct {
	fingerprint string
	children    []uint64
	version     uint64
	output      T
}

// Renderer turns a UITree into host output. It keeps the previous output
// of every element keyed by element key and reuses it when neither the
// element nor any rendered descendant changed. A Renderer is safe for
// concurrent use; calls are serialized.
type Renderer[T any] struct {
	mu          sync.Mutex
	registry    Registry[T]
	placeholder func() T
	unknown     func(el tree.UIElement) T
	hasher      *utils.Hasher
	logger      *zap.Logger

	cache   map[string]*entry[T]
	version uint64
}

// New creates a renderer over a host registry
func New[T any](registry Registry[T], opts ...Option[T]) *Renderer[T] {
	r := &Renderer[T]{
		registry: registry,
		hasher:   utils.DefaultHasher(),
		logger:   zap.NewNop(),
		cache:    make(map[string]*entry[T]),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// pass holds the state of one Render call
type pass[T any] struct {
	tree     tree.UITree
	visiting map[string]bool
	reached  map[string]bool
	diags    []types.Diagnostic
	stats    Stats
}

// Render renders t from its root. It never panics on malformed trees: a
// missing root yields the placeholder, unknown types yield the unknown
// placeholder plus a diagnostic, and missing or cyclic children are skipped.
func (r *Renderer[T]) Render(t tree.UITree) Result[T] {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	p := &pass[T]{
		tree:     t,
		visiting: make(map[string]bool),
		reached:  make(map[string]bool),
	}

	var res Result[T]
	if _, ok := t.RootElement(); !ok {
		res.Empty = true
		res.Output = r.emptyOutput()
	} else {
		out, _, _ := r.renderKey(p, t.Root)
		res.Output = out
	}

	r.evict(p.reached)

	res.Diagnostics = p.diags
	res.Stats = p.stats
	res.Duration = time.Since(start)

	r.logger.Debug("Rendered tree",
		zap.Int("rendered", res.Stats.Rendered),
		zap.Int("reused", res.Stats.Reused),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Int("diagnostics", len(res.Diagnostics)))
	return res
}

// Reset drops every cached output; the next Render rebuilds everything
func (r *Renderer[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*entry[T])
}

// Cached returns the number of elements with a cached output
func (r *Renderer[T]) Cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Renderer[T]) renderKey(p *pass[T], key string) (T, uint64, bool) {
	var zero T

	if p.visiting[key] {
		p.stats.Skipped++
		p.diags = append(p.diags, types.Diagnostic{
			Kind:    types.DiagnosticPath,
			Key:     key,
			Message: "cycle in children; repeated reference skipped",
		})
		return zero, 0, false
	}

	el, ok := p.tree.Elements[key]
	if !ok {
		// Dangling references render as nothing
		p.stats.Skipped++
		return zero, 0, false
	}

	p.visiting[key] = true
	defer delete(p.visiting, key)
	p.reached[key] = true

	outputs := make([]T, 0, len(el.Children))
	versions := make([]uint64, 0, len(el.Children))
	for _, child := range el.Children {
		out, version, ok := r.renderKey(p, child)
		if !ok {
			continue
		}
		outputs = append(outputs, out)
		versions = append(versions, version)
	}

	component, known := r.registry[el.Type]
	if !known {
		p.diags = append(p.diags, types.Diagnostic{
			Kind:    types.DiagnosticUnknownType,
			Key:     key,
			Message: fmt.Sprintf("no component registered for type %q", el.Type),
		})
	}

	fp := r.fingerprint(el)
	if cached, ok := r.cache[key]; ok && fp != "" && cached.fingerprint == fp && slices.Equal(cached.children, versions) {
		p.stats.Reused++
		return cached.output, cached.version, true
	}

	var out T
	if known {
		out = component(el, outputs)
	} else {
		out = r.unknownOutput(el)
	}
	p.stats.Rendered++

	r.version++
	r.cache[key] = &entry[T]{
		fingerprint: fp,
		children:    versions,
		version:     r.version,
		output:      out,
	}
	return out, r.version, true
}

// fingerprint identifies an element's own content. An empty fingerprint
// disables reuse for that element.
func (r *Renderer[T]) fingerprint(el tree.UIElement) string {
	fp, err := r.hasher.HashCanonical(map[string]any{
		"type":     el.Type,
		"props":    el.Props,
		"children": el.Children,
	})
	if err != nil {
		r.logger.Debug("Element not fingerprintable", zap.String("key", el.Key), zap.Error(err))
		return ""
	}
	return fp
}

func (r *Renderer[T]) evict(reached map[string]bool) {
	for key := range r.cache {
		if !reached[key] {
			delete(r.cache, key)
		}
	}
}

func (r *Renderer[T]) emptyOutput() T {
	if r.placeholder != nil {
		return r.placeholder()
	}
	var zero T
	return zero
}

func (r *Renderer[T]) unknownOutput(el tree.UIElement) T {
	if r.unknown != nil {
		return r.unknown(el)
	}
	var zero T
	return zero
}
