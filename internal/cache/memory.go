// Package cache provides the key/value backends behind the bot.Cache
// contract: an in-process map with lazy TTL eviction and a Redis-backed
// store for deployments that need persistence across restarts.
package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   string
	expires time.Time
}

// Memory is an in-process cache. Expired entries are evicted lazily on read;
// there is no background sweeper.
type Memory struct {
	prefix  string
	primary bool
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory creates an in-process cache. All keys are namespaced under
// prefix so a shared test helper can host several instances.
func NewMemory(prefix string, primary bool) *Memory {
	return &Memory{
		prefix:  prefix,
		primary: primary,
		now:     time.Now,
		entries: map[string]memoryEntry{},
	}
}

func (m *Memory) Name() string  { return "memory" }
func (m *Memory) Primary() bool { return m.primary }

func (m *Memory) Setup(context.Context) error { return nil }
func (m *Memory) Stop() error                 { return nil }

func (m *Memory) key(key string) string {
	if m.prefix == "" {
		return key
	}
	return m.prefix + ":" + key
}

// Set stores a value. A zero expiry keeps the entry until overwritten.
func (m *Memory) Set(_ context.Context, key, value string, expiry time.Duration) error {
	entry := memoryEntry{value: value}
	if expiry > 0 {
		entry.expires = m.now().Add(expiry)
	}
	m.mu.Lock()
	m.entries[m.key(key)] = entry
	m.mu.Unlock()
	return nil
}

// Get returns the value for key, evicting it first if its TTL has lapsed.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[m.key(key)]
	if !ok {
		return "", false, nil
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		delete(m.entries, m.key(key))
		return "", false, nil
	}
	return entry.value, true, nil
}
