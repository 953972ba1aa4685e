package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

const defaultOutputDir = "./output_reports"

// reportDocument — одна строка итогового отчёта.
type reportDocument struct {
	FileName           string  `json:"file_name"`
	PageCount          int     `json:"page_count,omitempty"`
	Category           string  `json:"category,omitempty"`
	Confidence         float64 `json:"confidence,omitempty"`
	Summary            string  `json:"summary,omitempty"`
	Reasoning          string  `json:"reasoning,omitempty"`
	HumanReviewed      bool    `json:"human_reviewed"`
	OriginalAICategory string  `json:"original_ai_category,omitempty"`
	Status             string  `json:"status"`
	FailureReason      string  `json:"failure_reason,omitempty"`
}

// categorySummary — агрегат по одной категории.
type categorySummary struct {
	Count         int      `json:"count"`
	AvgConfidence float64  `json:"avg_confidence"`
	Documents     []string `json:"documents"`
}

// report — итоговый отчёт по batch.
//
// Содержит все документы batch, включая не прошедшие обработку —
// частичные результаты никогда не выбрасываются молча.
type report struct {
	ThreadID    string                     `json:"thread_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Documents   []reportDocument           `json:"documents"`
	Summary     map[string]categorySummary `json:"summary"`
	Errors      []domain.DocumentError     `json:"errors,omitempty"`
}

// Reporter — узел генерации итогового отчёта.
type Reporter struct {
	outputDir string
	logger    *slog.Logger
}

// ReporterConfig — конфигурация Reporter.
type ReporterConfig struct {
	// OutputDir — каталог для отчётов (по умолчанию ./output_reports,
	// переопределяется переменной OUTPUT_REPORT_DIR).
	OutputDir string
	Logger    *slog.Logger
}

// NewReporter создаёт Reporter.
func NewReporter(cfg ReporterConfig) *Reporter {
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = os.Getenv("OUTPUT_REPORT_DIR")
	}
	if outputDir == "" {
		outputDir = defaultOutputDir
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{outputDir: outputDir, logger: logger}
}

// Name возвращает имя узла.
func (r *Reporter) Name() string { return "report" }

// Execute генерирует отчёт и записывает путь в state.ReportPath.
//
// Файл пишется во временное имя и переименовывается: читатель
// никогда не видит недописанный отчёт.
func (r *Reporter) Execute(_ context.Context, state *domain.WorkflowState) error {
	rep := buildReport(state)

	encoded, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("report_%s_%s.json", state.ThreadID, time.Now().Format("20060102_150405"))
	path := filepath.Join(r.outputDir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}

	state.ReportPath = path

	for _, doc := range state.Documents {
		telemetry.DocumentsProcessed.WithLabelValues(string(doc.Status)).Inc()
	}

	r.logger.Info("report generated",
		"path", path,
		"documents", len(state.Documents),
	)
	return nil
}

// buildReport собирает отчёт из состояния workflow.
// Порядок документов в отчёте совпадает с порядком во входном batch.
func buildReport(state *domain.WorkflowState) *report {
	rep := &report{
		ThreadID:    state.ThreadID,
		GeneratedAt: time.Now(),
		Summary:     make(map[string]categorySummary),
		Errors:      state.Errors,
	}

	totals := make(map[string]float64)

	for _, doc := range state.Documents {
		rep.Documents = append(rep.Documents, reportDocument{
			FileName:           doc.FileName,
			PageCount:          doc.PageCount,
			Category:           doc.Category,
			Confidence:         doc.Confidence,
			Summary:            doc.Summary,
			Reasoning:          doc.Reasoning,
			HumanReviewed:      doc.HumanReviewed,
			OriginalAICategory: doc.OriginalAICategory,
			Status:             string(doc.Status),
			FailureReason:      doc.Error,
		})

		if doc.Status != domain.DocStatusOK {
			continue
		}

		cs := rep.Summary[doc.Category]
		cs.Count++
		cs.Documents = append(cs.Documents, doc.FileName)
		rep.Summary[doc.Category] = cs
		totals[doc.Category] += doc.Confidence
	}

	for category, cs := range rep.Summary {
		cs.AvgConfidence = math.Round(totals[category]/float64(cs.Count)*100) / 100
		rep.Summary[category] = cs
	}

	return rep
}
