package engine

import "errors"

// Ошибки engine.
var (
	// ErrCheckpointIO — не удалось записать checkpoint.
	// Фатально: run прерывается, последний успешный checkpoint не меняется.
	ErrCheckpointIO = errors.New("checkpoint write failed")

	// ErrNotAwaitingInput — решения поданы, когда run не ждёт проверки.
	ErrNotAwaitingInput = errors.New("workflow is not awaiting human input")

	// ErrNodeFailed — узел завершился невосстановимой ошибкой.
	ErrNodeFailed = errors.New("workflow node failed")
)
