package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Conveyor/internal/cache"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/llm"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// extractionPayload — формат записи в content cache для OpExtract.
type extractionPayload struct {
	PageCount   int      `json:"page_count"`
	Text        string   `json:"text"`
	Summary     string   `json:"summary"`
	KeyEntities []string `json:"key_entities"`
}

// extractionResponse — структура JSON-ответа модели на суммаризацию.
type extractionResponse struct {
	Summary     string   `json:"summary"`
	KeyEntities []string `json:"key_entities"`
}

// Extractor — узел извлечения содержимого из PDF.
//
// Для каждого документа: хэширует содержимое файла, проверяет кэш,
// при промахе извлекает текст, считает страницы и запрашивает у модели
// summary и ключевые сущности. Полный результат кладётся в кэш одной
// записью — частичные результаты не кэшируются.
type Extractor struct {
	cache   cache.Cache
	llm     LLM
	workers int
	retry   RetryConfig
	logger  *slog.Logger
}

// ExtractorConfig — конфигурация Extractor.
type ExtractorConfig struct {
	Cache   cache.Cache
	LLM     LLM
	Workers int
	Retry   RetryConfig
	Logger  *slog.Logger
}

// NewExtractor создаёт Extractor.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cache:   cfg.Cache,
		llm:     cfg.LLM,
		workers: workers,
		retry:   cfg.Retry,
		logger:  logger,
	}
}

// Name возвращает имя узла.
func (e *Extractor) Name() string { return "extract" }

// Execute извлекает содержимое всех документов batch.
//
// Ошибки отдельных документов локализуются: документ помечается
// extraction_failed, batch продолжается. Ошибку возвращают только
// отказы кэша — без него нельзя гарантировать единственность
// внешних вызовов.
func (e *Extractor) Execute(ctx context.Context, state *domain.WorkflowState) error {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, doc := range state.Documents {
		g.Go(func() error {
			err := e.extractOne(gctx, doc)
			if err == nil {
				return nil
			}
			if isInfraErr(err) {
				return err
			}

			mu.Lock()
			doc.MarkExtractionFailed(err.Error())
			state.AddError(domain.NodeExtracting, doc.FileName, err.Error())
			mu.Unlock()

			e.logger.Warn("document extraction failed",
				"document", doc.FileName,
				"error", err,
			)
			return nil
		})
	}

	return g.Wait()
}

// extractOne обрабатывает один документ.
func (e *Extractor) extractOne(ctx context.Context, doc *domain.Document) error {
	hash, err := cache.HashFile(doc.FilePath)
	if err != nil {
		return fmt.Errorf("hash file: %w", err)
	}
	doc.ContentHash = hash

	key := cache.Key{ContentHash: hash, Operation: cache.OpExtract, ModelTag: e.llm.Tag()}

	value, err := e.cache.Get(ctx, key)
	if err == nil {
		var payload extractionPayload
		if jsonErr := json.Unmarshal(value, &payload); jsonErr == nil {
			applyExtraction(doc, &payload)
			e.logger.Debug("extraction cache hit", "document", doc.FileName)
			return nil
		}
		// Нечитаемая запись — считаем промахом, результат перезапишется
		e.logger.Warn("corrupt cache entry, re-extracting", "document", doc.FileName)
	} else if !errors.Is(err, cache.ErrNotFound) {
		return infra(fmt.Errorf("cache get: %w", err))
	}

	payload, err := e.extract(ctx, doc)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	if err := e.cache.Put(ctx, key, encoded); err != nil {
		return infra(fmt.Errorf("cache put: %w", err))
	}

	applyExtraction(doc, payload)
	return nil
}

// extract читает PDF и запрашивает у модели summary и сущности.
func (e *Extractor) extract(ctx context.Context, doc *domain.Document) (*extractionPayload, error) {
	data, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	text, err := extractText(data)
	if err != nil {
		return nil, err
	}

	pageCount, err := api.PageCountFile(doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	prompt := llm.ExtractionPrompt(doc.FileName, text)

	var parsed extractionResponse
	err = withRetry(ctx, e.retry, func() error {
		telemetry.LLMCalls.WithLabelValues(string(cache.OpExtract)).Inc()

		response, genErr := e.llm.Generate(ctx, prompt)
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

	return &extractionPayload{
		PageCount:   pageCount,
		Text:        text,
		Summary:     parsed.Summary,
		KeyEntities: parsed.KeyEntities,
	}, nil
}

// applyExtraction переносит результат извлечения в документ.
func applyExtraction(doc *domain.Document, payload *extractionPayload) {
	doc.PageCount = payload.PageCount
	doc.RawText = payload.Text
	doc.Summary = payload.Summary
	doc.KeyEntities = payload.KeyEntities
}

// extractText извлекает текст из PDF постранично.
// Нечитаемые страницы пропускаются; пустой итоговый текст — ошибка.
func extractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}
