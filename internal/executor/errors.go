package executor

import (
	"context"
	"errors"
)

// Ошибки executor'ов.
var (
	// ErrEmptyDocument — из PDF не извлечено ни одного символа текста.
	ErrEmptyDocument = errors.New("no text content extracted")

	// ErrUnparsableResponse — ответ модели не удалось разобрать.
	ErrUnparsableResponse = errors.New("unparsable model response")

	// ErrRetryExhausted — все попытки внешнего вызова исчерпаны.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrNotPending — решение подано для документа, не ожидающего проверки.
	ErrNotPending = errors.New("document is not pending review")
)

// infraError помечает ошибку инфраструктуры (кэш, хранилище).
// Такие ошибки прерывают узел целиком, в отличие от ошибок
// отдельных документов, которые локализуются.
type infraError struct {
	err error
}

func (e *infraError) Error() string { return e.err.Error() }

func (e *infraError) Unwrap() error { return e.err }

// infra оборачивает ошибку как инфраструктурную.
func infra(err error) error {
	return &infraError{err: err}
}

// isInfraErr проверяет, является ли ошибка инфраструктурной
// либо следствием отмены контекста.
func isInfraErr(err error) bool {
	var ie *infraError
	if errors.As(err, &ie) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
