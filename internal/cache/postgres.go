package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/telemetry"
)

// PostgresCache — durable-реализация Cache на Postgres.
//
// Хранит по одной записи на ключ (content_hash, operation, model_tag);
// повторный Put перезаписывает значение (ON CONFLICT DO UPDATE).
// Счётчики hits/misses живут в памяти процесса — они нужны для
// наблюдаемости, а не для корректности.
type PostgresCache struct {
	pool *pgxpool.Pool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewPostgresCache создаёт кэш и инициализирует схему.
func NewPostgresCache(ctx context.Context, pool *pgxpool.Pool) (*PostgresCache, error) {
	c := &PostgresCache{pool: pool}
	if err := c.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return c, nil
}

// initSchema создаёт таблицу кэша, если её ещё нет.
func (c *PostgresCache) initSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS content_cache (
			content_hash TEXT NOT NULL,
			operation    TEXT NOT NULL,
			model_tag    TEXT NOT NULL,
			value        BYTEA NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (content_hash, operation, model_tag)
		)
	`)
	return err
}

// Get возвращает закэшированный результат или ErrNotFound.
func (c *PostgresCache) Get(ctx context.Context, key Key) ([]byte, error) {
	query := `
		SELECT value FROM content_cache
		WHERE content_hash = $1 AND operation = $2 AND model_tag = $3
	`
	var value []byte
	err := c.pool.QueryRow(ctx, query, key.ContentHash, key.Operation, key.ModelTag).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		c.misses.Add(1)
		telemetry.CacheMisses.WithLabelValues(string(key.Operation)).Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cache entry: %w", err)
	}

	c.hits.Add(1)
	telemetry.CacheHits.WithLabelValues(string(key.Operation)).Inc()
	return value, nil
}

// Put записывает результат. Запись идемпотентна: повторный Put
// по тому же ключу перезаписывает значение.
func (c *PostgresCache) Put(ctx context.Context, key Key, value []byte) error {
	query := `
		INSERT INTO content_cache (content_hash, operation, model_tag, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (content_hash, operation, model_tag) DO UPDATE SET
			value = EXCLUDED.value,
			created_at = EXCLUDED.created_at
	`
	_, err := c.pool.Exec(ctx, query, key.ContentHash, key.Operation, key.ModelTag, value, time.Now())
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Stats возвращает статистику кэша.
func (c *PostgresCache) Stats(ctx context.Context) (Stats, error) {
	var entries int64
	if err := c.pool.QueryRow(ctx, `SELECT COUNT(*) FROM content_cache`).Scan(&entries); err != nil {
		return Stats{}, fmt.Errorf("count cache entries: %w", err)
	}
	return Stats{
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear удаляет все записи и возвращает их количество.
func (c *PostgresCache) Clear(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM content_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
