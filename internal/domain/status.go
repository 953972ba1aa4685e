package domain

// RunStatus — статус выполнения workflow.
//
// Жизненный цикл:
//
//	RUNNING → AWAITING_HUMAN_INPUT → RUNNING → COMPLETED
//	        ↘ FAILED (из любого состояния)
type RunStatus string

const (
	// RunStatusRunning — workflow выполняется.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusAwaitingHumanInput — workflow приостановлен и ждёт
	// решений человека по документам из pending_review.
	RunStatusAwaitingHumanInput RunStatus = "AWAITING_HUMAN_INPUT"

	// RunStatusCompleted — workflow успешно завершён, отчёт сгенерирован.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusFailed — workflow завершился с ошибкой.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// DocumentStatus — статус обработки отдельного документа.
//
// Ошибка одного документа не прерывает batch: документ помечается
// соответствующим статусом и остаётся в итоговом отчёте.
type DocumentStatus string

const (
	// DocStatusOK — документ успешно прошёл все этапы.
	DocStatusOK DocumentStatus = "ok"

	// DocStatusExtractionFailed — извлечение текста не удалось
	// (нечитаемый PDF или исчерпаны retry LLM-вызова).
	DocStatusExtractionFailed DocumentStatus = "extraction_failed"

	// DocStatusClassificationFailed — классификация не удалась.
	DocStatusClassificationFailed DocumentStatus = "classification_failed"
)

// IsFailed возвращает true, если обработка документа завершилась ошибкой.
func (s DocumentStatus) IsFailed() bool {
	return s == DocStatusExtractionFailed || s == DocStatusClassificationFailed
}
