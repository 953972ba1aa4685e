package cache

import (
	"context"
	"sync"

	"github.com/shaiso/Conveyor/internal/telemetry"
)

// MemoryCache — процесс-локальная реализация Cache.
//
// Используется в тестах и при отключённом кэшировании не даёт
// гарантий между рестартами, но сохраняет семантику внутри процесса.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key][]byte
	hits    int64
	misses  int64
}

// NewMemoryCache создаёт пустой in-memory кэш.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[Key][]byte)}
}

// Get возвращает закэшированный результат или ErrNotFound.
func (c *MemoryCache) Get(_ context.Context, key Key) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	if !ok {
		c.misses++
		telemetry.CacheMisses.WithLabelValues(string(key.Operation)).Inc()
		return nil, ErrNotFound
	}

	c.hits++
	telemetry.CacheHits.WithLabelValues(string(key.Operation)).Inc()

	// Копия, чтобы вызывающий не мог изменить содержимое кэша.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put записывает результат.
func (c *MemoryCache) Put(_ context.Context, key Key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries[key] = stored
	return nil
}

// Stats возвращает статистику кэша.
func (c *MemoryCache) Stats(_ context.Context) (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Entries: int64(len(c.entries)),
		Hits:    c.hits,
		Misses:  c.misses,
	}, nil
}

// Clear удаляет все записи и возвращает их количество.
func (c *MemoryCache) Clear(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := int64(len(c.entries))
	c.entries = make(map[Key][]byte)
	return count, nil
}
