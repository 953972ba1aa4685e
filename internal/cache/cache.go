package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Operation — вид кэшируемой операции.
type Operation string

const (
	// OpExtract — извлечение содержимого (текст, summary, сущности).
	OpExtract Operation = "extract"

	// OpClassify — классификация документа.
	OpClassify Operation = "classify"
)

// Key — ключ кэша.
//
// ModelTag обязателен: смена модели или промпта меняет тег
// и тем самым инвалидирует устаревшие результаты.
type Key struct {
	ContentHash string
	Operation   Operation
	ModelTag    string
}

// Stats — статистика кэша.
//
// Entries — количество записей в хранилище; Hits и Misses —
// счётчики обращений за время жизни процесса.
type Stats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Cache — memoization-хранилище результатов внешних вызовов.
//
// Get возвращает ErrNotFound при отсутствии записи. Put идемпотентен:
// повторная запись по тому же ключу перезаписывает значение.
// Put вызывается только с полным успешным результатом, никогда с частичным.
type Cache interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, value []byte) error
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) (int64, error)
}

// HashFile вычисляет SHA-256 хэш содержимого файла.
// Файл читается потоково, целиком в память не загружается.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes вычисляет SHA-256 хэш байтового содержимого.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
