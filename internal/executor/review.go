package executor

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
)

// ReviewGate — узел ручной проверки.
//
// Единственный узел с неограниченной задержкой завершения: workflow
// приостанавливается в AWAITING_HUMAN_INPUT, а решения приходят извне
// через Apply. Невалидное решение не потребляет элемент pending_review —
// документ остаётся в списке и будет запрошен повторно.
type ReviewGate struct {
	logger *slog.Logger
}

// NewReviewGate создаёт ReviewGate.
func NewReviewGate(logger *slog.Logger) *ReviewGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewGate{logger: logger}
}

// Name возвращает имя узла.
func (g *ReviewGate) Name() string { return "review" }

// Apply применяет набор решений к документам из pending_review.
//
// Возвращает количество применённых решений и список ошибок по
// отклонённым решениям. Отклонённые документы остаются в pending_review;
// порядок оставшихся не меняется.
func (g *ReviewGate) Apply(state *domain.WorkflowState, decisions map[uuid.UUID]domain.ReviewDecision) (int, []error) {
	applied := 0
	var rejected []error

	for id, decision := range decisions {
		if !state.IsPending(id) {
			rejected = append(rejected, fmt.Errorf("%w: %s", ErrNotPending, id))
			continue
		}

		doc := state.DocumentByID(id)
		if doc == nil {
			rejected = append(rejected, fmt.Errorf("%w: %s", ErrNotPending, id))
			continue
		}

		if err := decision.Validate(); err != nil {
			rejected = append(rejected, fmt.Errorf("%s: %w", doc.FileName, err))
			continue
		}

		decision.Apply(doc)
		state.RemovePending(id)
		applied++

		g.logger.Info("review decision applied",
			"document", doc.FileName,
			"kind", decision.Kind,
			"category", doc.Category,
		)
	}

	return applied, rejected
}
