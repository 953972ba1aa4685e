package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// MemoryStore — процесс-локальная реализация Store.
//
// Применяется при отключённом checkpointing: engine работает с тем же
// контрактом, но снимки не переживают рестарт процесса.
// Снимок хранится в сериализованном виде, поэтому Load возвращает
// независимую копию состояния — как и durable-реализация.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]memorySnapshot
}

type memorySnapshot struct {
	sequence  int64
	stateJSON []byte
	createdAt time.Time
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]memorySnapshot)}
}

// Save сохраняет снимок как текущий для thread'а.
func (s *MemoryStore) Save(_ context.Context, threadID string, state *domain.WorkflowState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshots[threadID]
	s.snapshots[threadID] = memorySnapshot{
		sequence:  prev.sequence + 1,
		stateJSON: stateJSON,
		createdAt: time.Now(),
	}
	return nil
}

// Load возвращает последний снимок thread'а или ErrNotFound.
func (s *MemoryStore) Load(_ context.Context, threadID string) (*Checkpoint, error) {
	s.mu.RLock()
	snap, ok := s.snapshots[threadID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	var state domain.WorkflowState
	if err := json.Unmarshal(snap.stateJSON, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}

	return &Checkpoint{
		ThreadID:  threadID,
		Sequence:  snap.sequence,
		State:     &state,
		CreatedAt: snap.createdAt,
	}, nil
}

// Delete удаляет снимок thread'а.
func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, threadID)
	return nil
}
