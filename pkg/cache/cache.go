// Package cache memoizes title lookups so repeated scans skip the card database.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

// Store maps normalized query text to a previously computed payload.
// Implementations are safe for concurrent use; concurrent Puts of the same key
// resolve last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Key normalizes title into a cache key: case folded, whitespace collapsed.
func Key(title string) string {
	// a Caser keeps state, so each call gets its own
	return cases.Fold().String(strings.Join(strings.Fields(title), " "))
}

// Entry is one cached lookup as reported by Admin.
type Entry struct {
	Key       string
	Payload   []byte
	Hits      int64
	UpdatedAt time.Time
}

// Admin is implemented by stores that can be inspected and pruned.
type Admin interface {
	Entries(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) (int64, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	e.Hits++
	return append([]byte(nil), e.Payload...), true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &Entry{Key: key}
		m.entries[key] = e
	}
	e.Payload = append([]byte(nil), value...)
	e.UpdatedAt = time.Now()
	return nil
}

// Len returns the number of cached keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries returns a snapshot sorted by key.
func (m *Memory) Entries(context.Context) ([]Entry, error) {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		c := *e
		c.Payload = append([]byte(nil), e.Payload...)
		out = append(out, c)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	delete(m.entries, key)
	return ok, nil
}

func (m *Memory) Clear(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.entries))
	m.entries = make(map[string]*Entry)
	return n, nil
}

func (m *Memory) Close() error { return nil }
