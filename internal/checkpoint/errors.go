package checkpoint

import "errors"

// Ошибки хранилища снимков.
var (
	// ErrNotFound — для thread'а нет ни одного снимка.
	ErrNotFound = errors.New("checkpoint not found")
)
