package checkpoint

import (
	"context"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Checkpoint — снимок состояния workflow для одного thread.
type Checkpoint struct {
	// ThreadID — идентификатор run.
	ThreadID string `json:"thread_id"`

	// Sequence — номер снимка; строго растёт при каждом Save.
	Sequence int64 `json:"sequence"`

	// State — состояние workflow на момент снимка.
	State *domain.WorkflowState `json:"state"`

	// CreatedAt — время записи снимка.
	CreatedAt time.Time `json:"created_at"`
}

// Store — хранилище последнего снимка состояния per thread.
//
// Save атомарно заменяет текущий снимок thread'а. Load возвращает
// ErrNotFound, если для thread'а снимков нет. Delete используется
// при явном сбросе run, не при нормальном завершении.
type Store interface {
	Save(ctx context.Context, threadID string, state *domain.WorkflowState) error
	Load(ctx context.Context, threadID string) (*Checkpoint, error)
	Delete(ctx context.Context, threadID string) error
}
