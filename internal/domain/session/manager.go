package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/id"
)

// Stats summarizes the sessions a manager holds
type Stats struct {
	Total       int        `json:"total"`
	Idle        int        `json:"idle"`
	Streaming   int        `json:"streaming"`
	Complete    int        `json:"complete"`
	Errored     int        `json:"errored"`
	Cancelled   int        `json:"cancelled"`
	Created     uint64     `json:"created"`
	Pruned      uint64     `json:"pruned"`
	LastCreated *time.Time `json:"last_created,omitempty"`
}

// Manager handles session lifecycles
type Manager struct {
	sessions sync.Map
	cat      *catalog.Catalog
	gen      Generator
	opts     []Option
	logger   *zap.Logger

	mu          sync.RWMutex
	onRemove    []func(sid string)
	created     uint64
	pruned      uint64
	lastCreated *time.Time
}

// NewManager creates a session manager. opts are applied to every session
// it creates.
func NewManager(cat *catalog.Catalog, gen Generator, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cat:    cat,
		gen:    gen,
		opts:   opts,
		logger: logger,
	}
}

// Catalog returns the shared catalog
func (m *Manager) Catalog() *catalog.Catalog {
	return m.cat
}

// Create registers a new idle session
func (m *Manager) Create() *Session {
	sid := string(id.NewSessionID())
	opts := append([]Option{WithLogger(m.logger)}, m.opts...)
	s := New(sid, m.cat, m.gen, opts...)
	m.sessions.Store(sid, s)

	now := time.Now()
	m.mu.Lock()
	m.created++
	m.lastCreated = &now
	m.mu.Unlock()

	m.logger.Debug("Session created", zap.String("session_id", sid))
	return s
}

// Start creates a session and begins its first generation
func (m *Manager) Start(ctx context.Context, in Input) (*Session, *Handle, error) {
	s := m.Create()
	h, err := s.Start(ctx, in)
	if err != nil {
		m.Delete(s.ID())
		return nil, nil, err
	}
	return s, h, nil
}

// Get returns a session by id
func (m *Manager) Get(sid string) (*Session, bool) {
	v, ok := m.sessions.Load(sid)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// List returns a summary of every session, oldest first
func (m *Manager) List() []Info {
	var infos []Info
	m.sessions.Range(func(_, value interface{}) bool {
		infos = append(infos, value.(*Session).Info())
		return true
	})

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Delete closes and removes a session
func (m *Manager) Delete(sid string) bool {
	v, ok := m.sessions.LoadAndDelete(sid)
	if !ok {
		return false
	}
	v.(*Session).Close()

	m.mu.RLock()
	hooks := m.onRemove
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(sid)
	}

	m.logger.Debug("Session deleted", zap.String("session_id", sid))
	return true
}

// OnRemove registers fn to run after a session is deleted, pruned or
// closed with the manager
func (m *Manager) OnRemove(fn func(sid string)) {
	m.mu.Lock()
	m.onRemove = append(m.onRemove, fn)
	m.mu.Unlock()
}

// Prune removes sessions idle for longer than maxAge. Streaming sessions
// are never pruned.
func (m *Manager) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	var stale []string
	m.sessions.Range(func(key, value interface{}) bool {
		s := value.(*Session)
		if !s.Streaming() && s.UpdatedAt().Before(cutoff) {
			stale = append(stale, key.(string))
		}
		return true
	})

	removed := 0
	for _, sid := range stale {
		if m.Delete(sid) {
			removed++
		}
	}

	if removed > 0 {
		m.mu.Lock()
		m.pruned += uint64(removed)
		m.mu.Unlock()
		m.logger.Info("Pruned idle sessions", zap.Int("count", removed))
	}
	return removed
}

// RunPruner prunes every interval until ctx is done
func (m *Manager) RunPruner(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune(maxAge)
		}
	}
}

// Close closes every session
func (m *Manager) Close() {
	m.sessions.Range(func(key, _ interface{}) bool {
		m.Delete(key.(string))
		return true
	})
}

// Stats returns session manager statistics
func (m *Manager) Stats() Stats {
	var stats Stats
	m.sessions.Range(func(_, value interface{}) bool {
		stats.Total++
		switch value.(*Session).Status() {
		case ingest.StateIdle:
			stats.Idle++
		case ingest.StateStreaming:
			stats.Streaming++
		case ingest.StateComplete:
			stats.Complete++
		case ingest.StateErrored:
			stats.Errored++
		case ingest.StateCancelled:
			stats.Cancelled++
		}
		return true
	})

	// Read timestamp pointer under lock to prevent data races
	m.mu.RLock()
	stats.Created = m.created
	stats.Pruned = m.pruned
	stats.LastCreated = m.lastCreated
	m.mu.RUnlock()

	return stats
}
