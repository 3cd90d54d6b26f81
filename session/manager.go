package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/claims-web/storage"
)

// ErrNoSessionID is returned when a browser session ID is empty
var ErrNoSessionID = errors.New("browser session id is required")

// Manager owns one Store per browser session. Stores are restored from
// durable storage exactly once, before Get hands them out.
type Manager struct {
	mu      sync.Mutex
	backend storage.Store
	opts    []Option
	now     func() time.Time
	stores  map[string]*entry
}

type entry struct {
	ready    chan struct{}
	store    *Store
	err      error
	lastUsed time.Time // Guarded by Manager.mu
}

// NewManager creates a manager whose stores share backend, each under its own namespace
func NewManager(backend storage.Store, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		opts:    opts,
		now:     time.Now,
		stores:  make(map[string]*entry),
	}
	// Stores and the manager share a clock
	probe := &Store{}
	for _, opt := range opts {
		opt(probe)
	}
	if probe.now != nil {
		m.now = probe.now
	}
	return m
}

// Storage returns the durable key-value view of one browser session
func (m *Manager) Storage(sessionID string) storage.Store {
	return storage.Namespace(m.backend, sessionID)
}

// Get returns the restored Store for sessionID. The first call for an ID runs
// RestoreSession to completion; concurrent callers wait for it.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}

	m.mu.Lock()
	e, ok := m.stores[sessionID]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		m.stores[sessionID] = e
	}
	e.lastUsed = m.now()
	m.mu.Unlock()
	if !ok {
		m.restore(ctx, sessionID, e)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.store, nil
}

func (m *Manager) restore(ctx context.Context, sessionID string, e *entry) {
	defer close(e.ready)

	store := NewStore(m.Storage(sessionID), m.opts...)
	if err := store.RestoreSession(ctx); err != nil {
		// Do not cache the failure, the next request retries
		m.mu.Lock()
		delete(m.stores, sessionID)
		m.mu.Unlock()
		e.err = err
		return
	}
	e.store = store
}

// Invalidate re-syncs an already loaded store with durable storage. It is a
// no-op for sessions that were never loaded; they restore from storage anyway.
func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	e, ok := m.stores[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	if e.store == nil {
		return nil
	}
	return e.store.Sync(ctx)
}

// Sweep forgets stores that have not been handed out for idle. Their durable
// state stays and is restored on the next Get. The number forgotten is
// returned.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-idle)
	forgotten := 0
	for id, e := range m.stores {
		select {
		case <-e.ready:
		default:
			continue // Still restoring
		}
		if e.lastUsed.Before(cutoff) {
			delete(m.stores, id)
			forgotten++
		}
	}
	return forgotten
}

// Len returns the number of loaded stores
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
