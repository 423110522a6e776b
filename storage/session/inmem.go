package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
)

type inmemEntry struct {
	state     session.State
	expiresAt time.Time
}

// InmemBackend keeps sessions in memory; for tests and single-instance development.
type InmemBackend struct {
	mu      sync.RWMutex
	entries map[string]inmemEntry
	closed  bool
}

var _ Backend = (*InmemBackend)(nil)

func NewInmemBackend() *InmemBackend {
	return &InmemBackend{entries: make(map[string]inmemEntry)}
}

func (b *InmemBackend) Get(_ context.Context, id string) (session.State, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return session.State{}, false, ErrBackendClosed
	}
	e, ok := b.entries[id]
	if !ok || !core.NowFunc().Before(e.expiresAt) {
		return session.State{}, false, nil
	}
	return e.state, true, nil
}

func (b *InmemBackend) Put(_ context.Context, id string, st session.State, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBackendClosed
	}
	b.entries[id] = inmemEntry{state: st, expiresAt: expiresAt}
	return nil
}

func (b *InmemBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBackendClosed
	}
	delete(b.entries, id)
	return nil
}

func (b *InmemBackend) Purge(_ context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for id, e := range b.entries {
		if !now.Before(e.expiresAt) {
			delete(b.entries, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many sessions are held, expired ones included.
func (b *InmemBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Close drops every session; later calls fail with ErrBackendClosed.
func (b *InmemBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.entries = make(map[string]inmemEntry)
	return nil
}
