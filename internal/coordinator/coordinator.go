package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/checkpoint"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Ошибки coordinator.
var (
	// ErrNoDocuments — в каталоге нет ни одного PDF-файла.
	ErrNoDocuments = errors.New("no PDF documents found in input directory")

	// ErrThreadNotFound — для thread_id нет сохранённого состояния.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrUnknownDocument — решение подано для файла, которого нет в batch.
	ErrUnknownDocument = errors.New("unknown document")
)

// Coordinator управляет жизненным циклом workflow run'ов.
type Coordinator struct {
	engine      *engine.Engine
	checkpoints checkpoint.Store
	logger      *slog.Logger
}

// New создаёт Coordinator.
func New(eng *engine.Engine, store checkpoint.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		engine:      eng,
		checkpoints: store,
		logger:      logger,
	}
}

// RunParams — параметры запуска batch.
type RunParams struct {
	// ThreadID — идентификатор run. Пустой — сгенерировать новый.
	ThreadID string

	// InputDir — каталог с PDF-файлами.
	InputDir string

	// Limit — максимальное число документов (0 — без ограничения).
	Limit int
}

// Run запускает или возобновляет workflow.
//
// Если для thread_id есть checkpoint, выполнение продолжается с него —
// содержимое InputDir при этом игнорируется, batch фиксируется при
// первом запуске. Новый run собирает batch из InputDir: файлы *.pdf
// в лексикографическом порядке имён.
func (c *Coordinator) Run(ctx context.Context, params RunParams) (*domain.WorkflowState, error) {
	threadID := params.ThreadID
	if threadID == "" {
		threadID = uuid.New().String()
	}

	logger := telemetry.WithThreadID(c.logger, threadID)

	state, err := c.loadOrCreate(ctx, logger, threadID, params)
	if err != nil {
		return nil, err
	}

	if state.Status.IsTerminal() {
		logger.Info("thread already finished", "status", state.Status)
		return state, nil
	}

	if err := c.engine.Run(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

// loadOrCreate возвращает состояние из checkpoint'а либо собирает новое.
func (c *Coordinator) loadOrCreate(ctx context.Context, logger *slog.Logger, threadID string, params RunParams) (*domain.WorkflowState, error) {
	cp, err := c.checkpoints.Load(ctx, threadID)
	if err == nil {
		logger.Info("resuming from checkpoint",
			"node", cp.State.Node,
			"sequence", cp.Sequence,
		)
		return cp.State, nil
	}
	if !errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	docs, err := discoverDocuments(params.InputDir, params.Limit)
	if err != nil {
		return nil, err
	}

	logger.Info("starting new run",
		"input_dir", params.InputDir,
		"documents", len(docs),
	)
	return domain.NewWorkflowState(threadID, docs), nil
}

// discoverDocuments собирает batch из каталога: файлы *.pdf
// в лексикографическом порядке имён, не более limit штук.
func discoverDocuments(inputDir string, limit int) ([]*domain.Document, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	if len(names) == 0 {
		return nil, ErrNoDocuments
	}

	docs := make([]*domain.Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, domain.NewDocument(filepath.Join(inputDir, name), name))
	}
	return docs, nil
}

// Status возвращает последний checkpoint thread'а, не выполняя workflow.
func (c *Coordinator) Status(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error) {
	cp, err := c.checkpoints.Load(ctx, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return cp, nil
}

// ApplyDecisions применяет решения ручной проверки, поданные по именам
// файлов, и продолжает workflow, если pending_review исчерпан.
//
// Решение для файла, отсутствующего в batch, попадает в rejected и
// не мешает остальным.
func (c *Coordinator) ApplyDecisions(ctx context.Context, threadID string, decisions map[string]domain.ReviewDecision) (*domain.WorkflowState, []error, error) {
	cp, err := c.checkpoints.Load(ctx, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}
		return nil, nil, fmt.Errorf("load checkpoint: %w", err)
	}
	state := cp.State

	byID := make(map[uuid.UUID]domain.ReviewDecision, len(decisions))
	var rejected []error
	for name, decision := range decisions {
		doc := state.DocumentByName(name)
		if doc == nil {
			rejected = append(rejected, fmt.Errorf("%w: %s", ErrUnknownDocument, name))
			continue
		}
		byID[doc.ID] = decision
	}

	gateRejected, err := c.engine.ApplyDecisions(ctx, state, byID)
	rejected = append(rejected, gateRejected...)
	if err != nil {
		return state, rejected, err
	}
	return state, rejected, nil
}

// Reset удаляет сохранённое состояние thread'а.
// Следующий Run с этим thread_id начнёт workflow заново.
func (c *Coordinator) Reset(ctx context.Context, threadID string) error {
	if err := c.checkpoints.Delete(ctx, threadID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	c.logger.Info("thread reset", "thread_id", threadID)
	return nil
}
