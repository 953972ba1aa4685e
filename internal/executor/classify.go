package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Conveyor/internal/cache"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/llm"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// classificationPayload — формат записи в content cache для OpClassify.
// Кэшируется только результат AI: решения человека к содержимому
// не привязаны и в кэш не попадают.
type classificationPayload struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier — узел классификации документов.
//
// Классифицирует документы со статусом ok; документы, не прошедшие
// извлечение, пропускаются и сохраняют свой failed-статус.
type Classifier struct {
	cache   cache.Cache
	llm     LLM
	workers int
	retry   RetryConfig
	logger  *slog.Logger
}

// ClassifierConfig — конфигурация Classifier.
type ClassifierConfig struct {
	Cache   cache.Cache
	LLM     LLM
	Workers int
	Retry   RetryConfig
	Logger  *slog.Logger
}

// NewClassifier создаёт Classifier.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		cache:   cfg.Cache,
		llm:     cfg.LLM,
		workers: workers,
		retry:   cfg.Retry,
		logger:  logger,
	}
}

// Name возвращает имя узла.
func (c *Classifier) Name() string { return "classify" }

// Execute классифицирует все документы batch со статусом ok.
func (c *Classifier) Execute(ctx context.Context, state *domain.WorkflowState) error {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, doc := range state.Documents {
		if doc.Status != domain.DocStatusOK {
			continue
		}

		g.Go(func() error {
			err := c.classifyOne(gctx, doc)
			if err == nil {
				return nil
			}
			if isInfraErr(err) {
				return err
			}

			mu.Lock()
			doc.MarkClassificationFailed(err.Error())
			state.AddError(domain.NodeClassifying, doc.FileName, err.Error())
			mu.Unlock()

			c.logger.Warn("document classification failed",
				"document", doc.FileName,
				"error", err,
			)
			return nil
		})
	}

	return g.Wait()
}

// classifyOne классифицирует один документ.
func (c *Classifier) classifyOne(ctx context.Context, doc *domain.Document) error {
	key := cache.Key{ContentHash: doc.ContentHash, Operation: cache.OpClassify, ModelTag: c.llm.Tag()}

	value, err := c.cache.Get(ctx, key)
	if err == nil {
		var payload classificationPayload
		if jsonErr := json.Unmarshal(value, &payload); jsonErr == nil {
			applyClassification(doc, &payload)
			c.logger.Debug("classification cache hit",
				"document", doc.FileName,
				"category", payload.Category,
			)
			return nil
		}
		c.logger.Warn("corrupt cache entry, re-classifying", "document", doc.FileName)
	} else if !errors.Is(err, cache.ErrNotFound) {
		return infra(fmt.Errorf("cache get: %w", err))
	}

	payload, err := c.classify(ctx, doc)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	if err := c.cache.Put(ctx, key, encoded); err != nil {
		return infra(fmt.Errorf("cache put: %w", err))
	}

	applyClassification(doc, payload)
	return nil
}

// classify запрашивает у модели категорию документа.
func (c *Classifier) classify(ctx context.Context, doc *domain.Document) (*classificationPayload, error) {
	prompt := llm.ClassificationPrompt(
		domain.Categories,
		doc.FileName,
		doc.Summary,
		doc.KeyEntities,
		doc.RawText,
	)

	var parsed classificationPayload
	err := withRetry(ctx, c.retry, func() error {
		telemetry.LLMCalls.WithLabelValues(string(cache.OpClassify)).Inc()

		response, genErr := c.llm.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}

		raw := llm.ExtractJSON(response)
		if raw == "" {
			return ErrUnparsableResponse
		}
		return json.Unmarshal([]byte(raw), &parsed)
	})
	if err != nil {
		return nil, err
	}

	// Категория вне таксономии трактуется как неизвестная
	if !domain.IsValidCategory(parsed.Category) {
		parsed.Category = domain.CategoryUnknown
	}
	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	return &parsed, nil
}

// applyClassification переносит результат классификации в документ.
func applyClassification(doc *domain.Document, payload *classificationPayload) {
	doc.Category = payload.Category
	doc.Confidence = payload.Confidence
	doc.Reasoning = payload.Reasoning
}
