package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/domain"
)

// PostgresStore — durable-реализация Store на Postgres.
//
// Снимок заменяется одним UPSERT-стейтментом: Postgres гарантирует
// атомарность, поэтому читатель видит либо старый, либо новый снимок,
// никогда — частичный. Sequence инкрементируется тем же стейтментом.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище и инициализирует схему.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("init checkpoint schema: %w", err)
	}
	return s, nil
}

// initSchema создаёт таблицу снимков, если её ещё нет.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id  TEXT PRIMARY KEY,
			sequence   BIGINT NOT NULL,
			state      JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// Save атомарно сохраняет снимок как текущий для thread'а.
func (s *PostgresStore) Save(ctx context.Context, threadID string, state *domain.WorkflowState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	query := `
		INSERT INTO checkpoints (thread_id, sequence, state, created_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (thread_id) DO UPDATE SET
			sequence = checkpoints.sequence + 1,
			state = EXCLUDED.state,
			created_at = EXCLUDED.created_at
	`
	if _, err := s.pool.Exec(ctx, query, threadID, stateJSON, time.Now()); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load возвращает последний снимок thread'а или ErrNotFound.
func (s *PostgresStore) Load(ctx context.Context, threadID string) (*Checkpoint, error) {
	query := `
		SELECT thread_id, sequence, state, created_at
		FROM checkpoints
		WHERE thread_id = $1
	`
	var cp Checkpoint
	var stateJSON []byte

	err := s.pool.QueryRow(ctx, query, threadID).Scan(&cp.ThreadID, &cp.Sequence, &stateJSON, &cp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	var state domain.WorkflowState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	cp.State = &state

	return &cp, nil
}

// Delete удаляет снимок thread'а. Отсутствие снимка ошибкой не считается.
func (s *PostgresStore) Delete(ctx context.Context, threadID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM checkpoints WHERE thread_id = $1`, threadID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
