// Package checkpoint реализует durable-хранилище снимков состояния workflow.
//
// Для каждого thread хранится только последний снимок; номер
// последовательности строго растёт при каждом Save. Запись атомарна:
// конкурентный или последующий Load никогда не видит частичный снимок.
//
// Реализации:
//   - postgres.go — durable-хранилище на Postgres (основное)
//   - memory.go   — процесс-локальное хранилище для режима
//     с отключённым checkpointing и для тестов
package checkpoint
