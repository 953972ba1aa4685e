// Package cache реализует content-addressed кэш результатов
// дорогих пер-документных операций (извлечение, классификация).
//
// Ключ кэша — (хэш содержимого, вид операции, тег модели).
// Для фиксированного тега модели ключ полностью определяет результат,
// поэтому повторный вызов внешней операции для того же содержимого
// не выполняется — в том числе после рестарта процесса.
//
// Реализации:
//   - postgres.go — durable-хранилище на Postgres (основное)
//   - memory.go   — процесс-локальное хранилище для тестов
package cache
