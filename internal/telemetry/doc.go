// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики (кэш, LLM-вызовы, длительность узлов)
//
// Метрики экспортируются на /metrics endpoint во время выполнения run.
package telemetry
