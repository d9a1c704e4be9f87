package tree

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/patch"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/types"
)

// DefaultMaxRejections bounds the rejection log; older entries are dropped first
const DefaultMaxRejections = 1000

// Hooks observe store activity. Both run outside the store lock.
type Hooks struct {
	Applied  func(p patch.Patch, revision uint64)
	Rejected func(r Rejection)
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for rejection and lifecycle messages
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxRejections bounds the number of retained rejections
func WithMaxRejections(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRejections = n
		}
	}
}

// WithHooks installs activity hooks (metrics, tracing)
func WithHooks(h Hooks) Option {
	return func(s *Store) {
		s.hooks = h
	}
}

// Store owns one UITree and applies patches to it in arrival order
type Store struct {
	mu            sync.RWMutex
	cat           *catalog.Catalog
	tree          UITree
	revision      uint64
	rejections    []Rejection
	dropped       int
	maxRejections int

	// emitMu serializes revision callbacks so they observe apply order
	emitMu  sync.Mutex
	subsMu  sync.RWMutex
	subs    map[int]func(uint64)
	nextSub int

	hooks  Hooks
	logger *zap.Logger
}

// NewStore creates an empty store. A nil catalog disables prop and type
// validation; elements of any type are then accepted.
func NewStore(cat *catalog.Catalog, opts ...Option) *Store {
	s := &Store{
		cat:           cat,
		tree:          New(),
		maxRejections: DefaultMaxRejections,
		subs:          make(map[int]func(uint64)),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the store validates against (may be nil)
func (s *Store) Catalog() *catalog.Catalog {
	return s.cat
}

// Apply applies one patch. It returns false when the patch was rejected;
// the rejection is recorded and the tree is left unchanged.
func (s *Store) Apply(p patch.Patch) bool {
	s.mu.Lock()
	err := s.applyLocked(p)
	if err != nil {
		rej := rejectionFor(p, err)
		s.recordLocked(rej)
		s.mu.Unlock()

		s.logger.Debug("Patch rejected",
			zap.String("kind", string(rej.Kind)),
			zap.String("path", p.Path),
			zap.String("reason", rej.Reason))
		if s.hooks.Rejected != nil {
			s.hooks.Rejected(rej)
		}
		return false
	}

	s.revision++
	rev := s.revision
	s.emitMu.Lock()
	s.mu.Unlock()

	if s.hooks.Applied != nil {
		s.hooks.Applied(p, rev)
	}
	s.emitLocked(rev)
	s.emitMu.Unlock()
	return true
}

// RecordParseRejection records a line the parser rejected
func (s *Store) RecordParseRejection(err error) {
	s.RecordRejection(parseRejection(err))
}

// RecordRejection records a rejection produced outside the store
func (s *Store) RecordRejection(rej Rejection) {
	s.mu.Lock()
	s.recordLocked(rej)
	s.mu.Unlock()

	if s.hooks.Rejected != nil {
		s.hooks.Rejected(rej)
	}
}

// Clear resets the tree and the rejection log. It counts as a revision.
func (s *Store) Clear() {
	s.mu.Lock()
	s.tree = New()
	s.rejections = nil
	s.dropped = 0
	s.revision++
	rev := s.revision
	s.emitMu.Lock()
	s.mu.Unlock()

	s.emitLocked(rev)
	s.emitMu.Unlock()
}

// Revision returns the number of successful mutations so far
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Snapshot returns a deep copy of the current tree
func (s *Store) Snapshot() UITree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Clone()
}

// Current returns a deep copy of the tree together with its revision
func (s *Store) Current() (UITree, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Clone(), s.revision
}

// Element returns a copy of one element
func (s *Store) Element(key string) (UIElement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.tree.Elements[key]
	if !ok {
		return UIElement{}, false
	}
	return el.Clone(), true
}

// Rejections returns the retained rejections in arrival order
func (s *Store) Rejections() []Rejection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rejection, len(s.rejections))
	copy(out, s.rejections)
	return out
}

// DroppedRejections returns how many rejections were evicted from the log
func (s *Store) DroppedRejections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Diagnostics returns the rejections as shared diagnostics
func (s *Store) Diagnostics() []types.Diagnostic {
	rejections := s.Rejections()
	out := make([]types.Diagnostic, len(rejections))
	for i, r := range rejections {
		out[i] = r.Diagnostic()
	}
	return out
}

// OnRevision registers fn to run after every successful mutation, in
// mutation order. fn runs outside the store lock and may read the store,
// but must not mutate it. The returned func unsubscribes.
func (s *Store) OnRevision(fn func(revision uint64)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// emitLocked runs subscribers; emitMu must be held
func (s *Store) emitLocked(rev uint64) {
	s.subsMu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.subsMu.RUnlock()

	sort.Ints(ids)
	for _, id := range ids {
		s.subsMu.RLock()
		fn, ok := s.subs[id]
		s.subsMu.RUnlock()
		if ok {
			fn(rev)
		}
	}
}

func (s *Store) recordLocked(rej Rejection) {
	if len(s.rejections) >= s.maxRejections {
		s.rejections = s.rejections[1:]
		s.dropped++
	}
	s.rejections = append(s.rejections, rej)
}

func (s *Store) applyLocked(p patch.Patch) error {
	if !p.Op.Valid() {
		return pathErrorf(p.Path, "unsupported op %q", p.Op)
	}
	segs, err := patch.SplitPath(p.Path)
	if err != nil {
		return &PathError{Path: p.Path, Reason: err.Error()}
	}

	switch segs[0] {
	case patch.SegmentRoot:
		if len(segs) != 1 {
			return &PathError{Path: p.Path, Reason: ReasonUnknownTarget}
		}
		return s.applyRoot(p)

	case patch.SegmentElements:
		if len(segs) < 2 || segs[1] == "" {
			return pathErrorf(p.Path, "missing element key")
		}
		if len(segs) == 2 {
			return s.applyElement(p, segs[1])
		}
		return s.applyField(p, segs[1], segs[2:])

	default:
		return &PathError{Path: p.Path, Reason: ReasonUnknownTarget}
	}
}

func (s *Store) applyRoot(p patch.Patch) error {
	if p.Op == patch.OpRemove {
		s.tree.Root = ""
		return nil
	}
	switch v := p.Value.(type) {
	case nil:
		s.tree.Root = ""
	case string:
		s.tree.Root = v
	default:
		return pathErrorf(p.Path, "root must be a string or null, got %s", jsonKind(p.Value))
	}
	return nil
}

func (s *Store) applyElement(p patch.Patch, key string) error {
	if p.Op == patch.OpRemove {
		if _, ok := s.tree.Elements[key]; !ok {
			return &PathError{Path: p.Path, Reason: ReasonElementNotFound}
		}
		delete(s.tree.Elements, key)
		return nil
	}

	el, err := decodeElement(p.Value)
	if err != nil {
		return &catalog.SchemaError{
			Type: typeHint(p.Value),
			Violations: []catalog.Violation{{
				Field:   "element",
				Code:    catalog.ViolationWrongType,
				Message: err.Error(),
			}},
		}
	}
	if el.Key == "" {
		el.Key = key
	} else if el.Key != key {
		return pathErrorf(p.Path, "element key %q does not match path", el.Key)
	}

	if err := s.validate(el); err != nil {
		return err
	}
	s.tree.Elements[key] = el
	return nil
}

// applyField mutates part of an existing element. The mutation runs on a
// copy and is committed only if the result validates.
func (s *Store) applyField(p patch.Patch, key string, segs []string) error {
	current, ok := s.tree.Elements[key]
	if !ok {
		return &PathError{Path: p.Path, Reason: ReasonElementNotFound}
	}
	el := current.Clone()

	var err error
	switch segs[0] {
	case patch.SegmentProps:
		err = applyProps(&el, p, segs[1:])
	case patch.SegmentChildren:
		err = applyChildren(&el, p, segs[1:])
	case patch.SegmentType:
		if len(segs) != 1 || p.Op != patch.OpSet {
			return pathErrorf(p.Path, "type can only be replaced")
		}
		typ, ok := p.Value.(string)
		if !ok || typ == "" {
			return pathErrorf(p.Path, "type must be a non-empty string")
		}
		el.Type = typ
	default:
		return &PathError{Path: p.Path, Reason: ReasonUnknownTarget}
	}
	if err != nil {
		return err
	}

	if err := s.validateField(el, segs); err != nil {
		return err
	}
	s.tree.Elements[key] = el
	return nil
}

// validateField checks an element after a field mutation. A single
// top-level prop is checked on its own; the rest of the element was valid
// when it was committed.
func (s *Store) validateField(el UIElement, segs []string) error {
	if s.cat == nil {
		return nil
	}
	if segs[0] == patch.SegmentProps && len(segs) == 2 {
		return s.cat.ValidateProp(el.Type, segs[1], el.Props[segs[1]])
	}
	return s.validate(el)
}

func applyProps(el *UIElement, p patch.Patch, segs []string) error {
	if len(segs) == 0 {
		if p.Op == patch.OpRemove {
			el.Props = map[string]any{}
			return nil
		}
		switch v := p.Value.(type) {
		case nil:
			el.Props = map[string]any{}
		case map[string]any:
			el.Props = cloneMap(v)
		default:
			return pathErrorf(p.Path, "props must be an object, got %s", jsonKind(p.Value))
		}
		return nil
	}

	var (
		updated any
		err     error
	)
	if p.Op == patch.OpRemove {
		updated, err = removePointer(el.Props, segs)
	} else {
		updated, err = setPointer(el.Props, segs, cloneValue(p.Value))
	}
	if err != nil {
		return &PathError{Path: p.Path, Reason: err.Error()}
	}
	el.Props = updated.(map[string]any)
	return nil
}

func applyChildren(el *UIElement, p patch.Patch, segs []string) error {
	switch len(segs) {
	case 0:
		if p.Op == patch.OpRemove || p.Value == nil {
			el.Children = nil
			return nil
		}
		children, err := decodeChildren(p.Value)
		if err != nil {
			return &PathError{Path: p.Path, Reason: err.Error()}
		}
		el.Children = children
		return nil

	case 1:
		if p.Op == patch.OpSet {
			child, ok := p.Value.(string)
			if !ok || child == "" {
				return pathErrorf(p.Path, "child must be a non-empty string key")
			}
			if segs[0] == "-" {
				el.Children = append(el.Children, child)
				return nil
			}
			idx, err := arrayIndex(segs[0], len(el.Children))
			if err != nil {
				return &PathError{Path: p.Path, Reason: err.Error()}
			}
			el.Children[idx] = child
			return nil
		}
		idx, err := arrayIndex(segs[0], len(el.Children))
		if err != nil {
			return &PathError{Path: p.Path, Reason: err.Error()}
		}
		el.Children = append(el.Children[:idx:idx], el.Children[idx+1:]...)
		return nil

	default:
		return &PathError{Path: p.Path, Reason: ReasonUnknownTarget}
	}
}

// validate checks an element against the catalog, when one is configured
func (s *Store) validate(el UIElement) error {
	if s.cat == nil {
		return nil
	}

	var schemaErr *catalog.SchemaError
	if err := s.cat.ValidateProps(el.Type, el.Props); err != nil {
		if !errors.As(err, &schemaErr) || schemaErr.Has(catalog.ViolationUnknownType) {
			return err
		}
	}
	if len(el.Children) > 0 && !s.cat.HasChildren(el.Type) {
		if schemaErr == nil {
			schemaErr = &catalog.SchemaError{Type: el.Type}
		}
		schemaErr.Violations = append(schemaErr.Violations, catalog.Violation{
			Field:   "children",
			Code:    catalog.ViolationChildrenNotAllowed,
			Message: fmt.Sprintf("%s does not accept children", el.Type),
		})
	}
	if schemaErr != nil {
		return schemaErr
	}
	return nil
}

func typeHint(value any) string {
	if obj, ok := value.(map[string]any); ok {
		if typ, ok := obj["type"].(string); ok {
			return typ
		}
	}
	return "element"
}
