package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/checkpoint"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/executor"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// defaultReviewThreshold — порог уверенности для ручной проверки.
// Документы с уверенностью ниже порога (или неизвестной категорией)
// отправляются человеку; уверенность, равная порогу, проходит.
const defaultReviewThreshold = 0.60

// Engine — конечный автомат workflow.
//
// Engine выполняет узлы последовательно в одной логической нити
// управления; два узла никогда не выполняются конкурентно.
// Checkpoint пишет только engine — после барьера узла, никогда
// из воркеров внутри узла.
type Engine struct {
	extractor  executor.Executor
	classifier executor.Executor
	reporter   executor.Executor
	gate       *executor.ReviewGate

	checkpoints checkpoint.Store
	publisher   *mq.Publisher

	threshold float64
	logger    *slog.Logger
}

// Config — конфигурация Engine.
type Config struct {
	Extractor  executor.Executor
	Classifier executor.Executor
	Reporter   executor.Executor
	Gate       *executor.ReviewGate

	Checkpoints checkpoint.Store

	// Publisher — необязательный издатель событий run'а.
	// При nil события не публикуются.
	Publisher *mq.Publisher

	// Threshold — порог уверенности (0 — взять из окружения
	// REVIEW_CONFIDENCE_THRESHOLD или значение по умолчанию 0.60).
	Threshold float64

	Logger *slog.Logger
}

// New создаёт Engine.
func New(cfg Config) *Engine {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = thresholdFromEnv()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gate := cfg.Gate
	if gate == nil {
		gate = executor.NewReviewGate(logger)
	}

	return &Engine{
		extractor:   cfg.Extractor,
		classifier:  cfg.Classifier,
		reporter:    cfg.Reporter,
		gate:        gate,
		checkpoints: cfg.Checkpoints,
		publisher:   cfg.Publisher,
		threshold:   threshold,
		logger:      logger,
	}
}

// thresholdFromEnv читает порог из REVIEW_CONFIDENCE_THRESHOLD.
func thresholdFromEnv() float64 {
	if v := os.Getenv("REVIEW_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			return f
		}
	}
	return defaultReviewThreshold
}

// Run выполняет workflow от текущего узла state до терминального
// состояния либо до приостановки на ручную проверку.
//
// Возвращает nil при DONE и при AWAITING_HUMAN_INPUT; в последнем
// случае state.PendingReview содержит документы, ждущие решений.
func (e *Engine) Run(ctx context.Context, state *domain.WorkflowState) error {
	logger := telemetry.WithThreadID(e.logger, state.ThreadID)

	for {
		switch state.Node {
		case domain.NodeExtracting:
			if err := e.runNode(ctx, logger, e.extractor, state, domain.NodeClassifying); err != nil {
				return err
			}

		case domain.NodeClassifying:
			if err := e.runNode(ctx, logger, e.classifier, state, domain.NodeDecidingReview); err != nil {
				return err
			}

		case domain.NodeDecidingReview:
			suspended, err := e.decideReview(ctx, logger, state)
			if err != nil {
				return err
			}
			if suspended {
				return nil
			}

		case domain.NodeAwaitingHumanInput:
			// Решения приходят через ApplyDecisions; здесь делать нечего.
			return nil

		case domain.NodeGenerating:
			if err := e.generate(ctx, logger, state); err != nil {
				return err
			}
			return nil

		case domain.NodeDone, domain.NodeFailed:
			return nil

		default:
			return fmt.Errorf("unknown workflow node: %s", state.Node)
		}
	}
}

// runNode выполняет узел-барьер и записывает checkpoint перед
// переходом к следующему узлу.
func (e *Engine) runNode(ctx context.Context, logger *slog.Logger, exec executor.Executor, state *domain.WorkflowState, next domain.Node) error {
	logger.Info("node started", "node", state.Node, "documents", len(state.Documents))

	start := time.Now()
	err := exec.Execute(ctx, state)
	telemetry.NodeDuration.WithLabelValues(exec.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		return e.fail(ctx, logger, state, fmt.Errorf("%w: %s: %w", ErrNodeFailed, exec.Name(), err))
	}

	logger.Info("node complete", "node", state.Node, "duration", time.Since(start))

	state.Node = next
	return e.save(ctx, state)
}

// decideReview вычисляет множество документов для ручной проверки
// и выбирает следующий узел. Возвращает true, если run приостановлен.
func (e *Engine) decideReview(ctx context.Context, logger *slog.Logger, state *domain.WorkflowState) (bool, error) {
	var pending []uuid.UUID
	for _, doc := range state.Documents {
		if doc.NeedsReview(e.threshold) {
			pending = append(pending, doc.ID)
		}
	}

	if len(pending) == 0 {
		logger.Info("no documents need review", "threshold", e.threshold)
		state.PendingReview = nil
		state.Node = domain.NodeGenerating
		return false, e.save(ctx, state)
	}

	// Checkpoint пишется до приостановки: прерванная сессия проверки
	// возобновится ровно с этим подмножеством.
	state.PendingReview = pending
	state.Node = domain.NodeAwaitingHumanInput
	state.Status = domain.RunStatusAwaitingHumanInput
	if err := e.save(ctx, state); err != nil {
		return false, err
	}

	logger.Info("awaiting human review",
		"pending", len(pending),
		"threshold", e.threshold,
	)
	e.publishReviewRequested(ctx, state)

	return true, nil
}

// ApplyDecisions применяет решения человека и, если pending_review
// исчерпан, продолжает выполнение до терминального состояния.
//
// Отклонённые решения возвращаются списком rejected; соответствующие
// документы остаются в pending_review и будут запрошены повторно.
// Состояние с применёнными решениями checkpoint'ится в любом случае.
func (e *Engine) ApplyDecisions(ctx context.Context, state *domain.WorkflowState, decisions map[uuid.UUID]domain.ReviewDecision) (rejected []error, err error) {
	if state.Status != domain.RunStatusAwaitingHumanInput {
		return nil, ErrNotAwaitingInput
	}

	logger := telemetry.WithThreadID(e.logger, state.ThreadID)

	applied, rejected := e.gate.Apply(state, decisions)
	logger.Info("review decisions processed",
		"applied", applied,
		"rejected", len(rejected),
		"remaining", len(state.PendingReview),
	)

	if len(state.PendingReview) == 0 {
		state.PendingReview = nil
		state.Node = domain.NodeGenerating
		state.Status = domain.RunStatusRunning
	}

	if err := e.save(ctx, state); err != nil {
		return rejected, err
	}

	if state.Status == domain.RunStatusRunning {
		return rejected, e.Run(ctx, state)
	}
	return rejected, nil
}

// generate выполняет генерацию отчёта и завершает run.
func (e *Engine) generate(ctx context.Context, logger *slog.Logger, state *domain.WorkflowState) error {
	logger.Info("node started", "node", state.Node)

	start := time.Now()
	err := e.reporter.Execute(ctx, state)
	telemetry.NodeDuration.WithLabelValues(e.reporter.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		return e.fail(ctx, logger, state, fmt.Errorf("%w: %s: %w", ErrNodeFailed, e.reporter.Name(), err))
	}

	state.MarkCompleted()
	if err := e.save(ctx, state); err != nil {
		return err
	}

	telemetry.RunsTotal.WithLabelValues(string(domain.RunStatusCompleted)).Inc()
	logger.Info("workflow complete", "report", state.ReportPath)
	e.publishRunFinished(ctx, state)

	return nil
}

// fail переводит run в FAILED.
//
// Состояние помечается failed в памяти, но последний успешный
// checkpoint не перезаписывается — он нужен для диагностики
// и повторного запуска после устранения причины.
func (e *Engine) fail(ctx context.Context, logger *slog.Logger, state *domain.WorkflowState, err error) error {
	state.MarkFailed(err.Error())

	telemetry.RunsTotal.WithLabelValues(string(domain.RunStatusFailed)).Inc()
	logger.Error("workflow failed", "error", err)
	e.publishRunFinished(ctx, state)

	return err
}

// save записывает checkpoint. Ошибка записи фатальна.
func (e *Engine) save(ctx context.Context, state *domain.WorkflowState) error {
	if err := e.checkpoints.Save(ctx, state.ThreadID, state); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointIO, err)
	}
	return nil
}

// publishReviewRequested публикует событие о приостановке на проверку.
func (e *Engine) publishReviewRequested(ctx context.Context, state *domain.WorkflowState) {
	if e.publisher == nil {
		return
	}

	files := make([]string, 0, len(state.PendingReview))
	for _, id := range state.PendingReview {
		if doc := state.DocumentByID(id); doc != nil {
			files = append(files, doc.FileName)
		}
	}

	if err := e.publisher.PublishReviewRequested(ctx, state.ThreadID, files); err != nil {
		e.logger.Warn("failed to publish review.requested", "error", err)
	}
}

// publishRunFinished публикует событие о завершении run.
func (e *Engine) publishRunFinished(ctx context.Context, state *domain.WorkflowState) {
	if e.publisher == nil {
		return
	}

	payload := mq.RunFinishedPayload{
		ThreadID:   state.ThreadID,
		Status:     string(state.Status),
		ReportPath: state.ReportPath,
		Error:      state.Error,
	}
	if err := e.publisher.PublishRunFinished(ctx, payload); err != nil {
		e.logger.Warn("failed to publish run.finished", "error", err)
	}
}
