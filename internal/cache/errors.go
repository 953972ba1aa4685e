package cache

import "errors"

// Ошибки кэша.
var (
	// ErrNotFound — запись по ключу отсутствует.
	ErrNotFound = errors.New("cache entry not found")
)
