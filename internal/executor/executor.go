package executor

import (
	"context"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Default configuration values.
const (
	defaultWorkers = 4
)

// Executor — интерфейс узла workflow.
//
// Execute обрабатывает batch целиком и мутирует документы на месте.
// Узел — барьер: Execute возвращает управление только когда каждый
// документ либо обработан, либо помечен failed. Порядок документов
// в state.Documents не меняется.
//
// Execute безопасно вызывать повторно: документы, чьи результаты
// уже есть в content cache, не порождают новых внешних вызовов.
type Executor interface {
	Name() string
	Execute(ctx context.Context, state *domain.WorkflowState) error
}

// LLM — узкий интерфейс языковой модели, нужный executor'ам.
//
// Tag идентифицирует модель и версию промптов; входит в ключи кэша.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Tag() string
}
