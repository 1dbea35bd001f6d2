package session

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache used in tests and single-node dev
// setups where Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	data      map[string]any
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *MemoryCache) Put(_ context.Context, sessionID string, entry map[string]any) error {
	copied := make(map[string]any, len(entry))
	for k, v := range entry {
		copied[k] = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = memoryEntry{data: copied, expiresAt: time.Now().Add(m.ttl)}
	return nil
}

func (m *MemoryCache) Get(_ context.Context, sessionID string) (map[string]any, error) {
	m.mu.RLock()
	e, ok := m.entries[sessionID]
	m.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	copied := make(map[string]any, len(e.data))
	for k, v := range e.data {
		copied[k] = v
	}
	return copied, nil
}

func (m *MemoryCache) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

var _ Cache = (*MemoryCache)(nil)
var _ Cache = (*RedisCache)(nil)
