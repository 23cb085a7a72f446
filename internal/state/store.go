package state

import (
	"context"
	"strconv"
	"sync"
	"time"

	"shrot-bot/pkg/redis"
)

// TTLStore is a key/value store where every key expires. Redis in production, memory
// when no Redis address is configured.
type TTLStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Del(ctx context.Context, key string) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

var (
	_ TTLStore = (*redis.Client)(nil)
	_ TTLStore = (*MemoryStore)(nil)
)

type memoryItem struct {
	value   []byte
	expires time.Time
}

// MemoryStore is a process-local TTLStore. Expired keys are invisible immediately and
// removed by Sweep.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryItem{value: clone(value), expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.live(key)
	if !ok {
		return nil, false, nil
	}
	return clone(item.value), true, nil
}

func (m *MemoryStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(key); ok {
		return false, nil
	}
	m.items[key] = memoryItem{value: clone(value), expires: m.now().Add(ttl)}
	return true, nil
}

// Incr keeps the expiry set by the first increment, like the Redis backend.
func (m *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.live(key)
	var n int64
	if ok {
		parsed, err := strconv.ParseInt(string(item.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	} else {
		item.expires = m.now().Add(ttl)
	}
	n++
	item.value = []byte(strconv.FormatInt(n, 10))
	m.items[key] = item
	return n, nil
}

// Sweep drops expired keys and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for key, item := range m.items {
		if !now.Before(item.expires) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *MemoryStore) live(key string) (memoryItem, bool) {
	item, ok := m.items[key]
	if !ok {
		return memoryItem{}, false
	}
	if !m.now().Before(item.expires) {
		delete(m.items, key)
		return memoryItem{}, false
	}
	return item, true
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
