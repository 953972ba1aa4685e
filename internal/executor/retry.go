package executor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry configuration.
const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
)

// RetryConfig — политика retry для внешних вызовов одного документа.
//
// Транзиентные ошибки (таймаут, rate limit, кривой ответ модели)
// повторяются с exponential backoff; исчерпание попыток превращает
// ошибку в постоянную для данного документа.
type RetryConfig struct {
	// MaxAttempts — максимальное число попыток (включая первую).
	MaxAttempts int

	// InitialDelay — задержка перед первым retry.
	InitialDelay time.Duration

	// MaxDelay — верхняя граница задержки.
	MaxDelay time.Duration
}

// RetryConfigFromEnv читает политику retry из окружения:
// LLM_MAX_RETRIES и LLM_RETRY_DELAY (в секундах).
func RetryConfigFromEnv() RetryConfig {
	cfg := RetryConfig{
		MaxAttempts:  defaultMaxAttempts,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
	}

	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("LLM_RETRY_DELAY"); v != "" {
		if sec, err := strconv.ParseFloat(v, 64); err == nil && sec > 0 {
			cfg.InitialDelay = time.Duration(sec * float64(time.Second))
		}
	}
	return cfg
}

// withRetry выполняет op с exponential backoff согласно политике.
//
// После исчерпания попыток возвращается ErrRetryExhausted с последней
// ошибкой внутри. Отмена контекста прерывает попытки сразу.
func withRetry(ctx context.Context, cfg RetryConfig, op func() error) error {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	bo := backoff.NewExponentialBackOff()
	if cfg.InitialDelay > 0 {
		bo.InitialInterval = cfg.InitialDelay
	}
	if cfg.MaxDelay > 0 {
		bo.MaxInterval = cfg.MaxDelay
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxAttempts-1)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrRetryExhausted, err)
	}
	return nil
}
