package domain

import (
	"github.com/google/uuid"
)

// Node — узел конечного автомата workflow.
//
// Последовательность:
//
//	EXTRACTING → CLASSIFYING → DECIDING_REVIEW → AWAITING_HUMAN_INPUT → GENERATING → DONE
//	                                           ↘ GENERATING (если проверка не нужна)
//
// Любая ошибка узла ведёт в FAILED (терминальный).
type Node string

const (
	// NodeExtracting — извлечение текста и метаданных из PDF.
	NodeExtracting Node = "EXTRACTING"

	// NodeClassifying — классификация извлечённых документов.
	NodeClassifying Node = "CLASSIFYING"

	// NodeDecidingReview — вычисление множества документов для ручной проверки.
	NodeDecidingReview Node = "DECIDING_REVIEW"

	// NodeAwaitingHumanInput — ожидание решений человека.
	// Единственная точка неограниченной по времени приостановки.
	NodeAwaitingHumanInput Node = "AWAITING_HUMAN_INPUT"

	// NodeGenerating — генерация итогового отчёта.
	NodeGenerating Node = "GENERATING"

	// NodeDone — workflow завершён.
	NodeDone Node = "DONE"

	// NodeFailed — workflow завершился с ошибкой.
	NodeFailed Node = "FAILED"
)

// IsTerminal возвращает true для финальных узлов.
func (n Node) IsTerminal() bool {
	return n == NodeDone || n == NodeFailed
}

// DocumentError — ошибка уровня документа, накопленная за время workflow.
// Такие ошибки не прерывают batch и попадают в итоговый отчёт.
type DocumentError struct {
	// Node — узел, на котором произошла ошибка.
	Node Node `json:"node"`

	// Document — имя файла документа.
	Document string `json:"document"`

	// Message — текст ошибки.
	Message string `json:"message"`
}

// WorkflowState — полное состояние одного workflow run.
//
// Состояние сериализуется целиком в каждый checkpoint; восстановление
// из последнего checkpoint'а даёт состояние, неотличимое от
// непрерывного выполнения.
type WorkflowState struct {
	// ThreadID — внешний идентификатор run (ключ возобновления).
	ThreadID string `json:"thread_id"`

	// Node — узел, который должен выполниться следующим.
	Node Node `json:"node"`

	// Status — статус run.
	Status RunStatus `json:"status"`

	// Documents — упорядоченный список документов batch.
	// Порядок задаётся при создании и никогда не меняется.
	Documents []*Document `json:"documents"`

	// PendingReview — упорядоченный список ID документов,
	// ожидающих решения человека. Непуст только в AWAITING_HUMAN_INPUT.
	PendingReview []uuid.UUID `json:"pending_review,omitempty"`

	// Errors — накопленные ошибки уровня документов.
	Errors []DocumentError `json:"errors,omitempty"`

	// ReportPath — путь к сгенерированному отчёту.
	ReportPath string `json:"report_path,omitempty"`

	// Error — текст фатальной ошибки при Status == FAILED.
	Error string `json:"error,omitempty"`
}

// NewWorkflowState создаёт начальное состояние для нового run.
func NewWorkflowState(threadID string, docs []*Document) *WorkflowState {
	return &WorkflowState{
		ThreadID:  threadID,
		Node:      NodeExtracting,
		Status:    RunStatusRunning,
		Documents: docs,
	}
}

// DocumentByID возвращает документ по ID или nil.
func (s *WorkflowState) DocumentByID(id uuid.UUID) *Document {
	for _, d := range s.Documents {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// DocumentByName возвращает документ по имени файла или nil.
func (s *WorkflowState) DocumentByName(name string) *Document {
	for _, d := range s.Documents {
		if d.FileName == name {
			return d
		}
	}
	return nil
}

// IsPending проверяет, ожидает ли документ решения человека.
func (s *WorkflowState) IsPending(id uuid.UUID) bool {
	for _, p := range s.PendingReview {
		if p == id {
			return true
		}
	}
	return false
}

// RemovePending убирает документ из списка ожидающих проверки,
// сохраняя порядок остальных.
func (s *WorkflowState) RemovePending(id uuid.UUID) {
	remaining := s.PendingReview[:0]
	for _, p := range s.PendingReview {
		if p != id {
			remaining = append(remaining, p)
		}
	}
	s.PendingReview = remaining
}

// AddError добавляет ошибку уровня документа.
func (s *WorkflowState) AddError(node Node, document, message string) {
	s.Errors = append(s.Errors, DocumentError{
		Node:     node,
		Document: document,
		Message:  message,
	})
}

// MarkFailed переводит workflow в терминальное состояние FAILED.
func (s *WorkflowState) MarkFailed(err string) {
	s.Node = NodeFailed
	s.Status = RunStatusFailed
	s.Error = err
}

// MarkCompleted переводит workflow в терминальное состояние DONE.
func (s *WorkflowState) MarkCompleted() {
	s.Node = NodeDone
	s.Status = RunStatusCompleted
}
