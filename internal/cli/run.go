package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/coordinator"
	"github.com/shaiso/Conveyor/internal/domain"
)

// NewRunCmd создаёт команду запуска batch-обработки.
func NewRunCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	var inputDir string
	var threadID string
	var limit int
	var workers int
	var noCache bool
	var noCheckpointing bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a directory of PDF documents",
		Long: `Process a directory of PDF documents: extract content, classify,
collect documents for human review and generate a report.

An interrupted run resumes from its last checkpoint when started
again with the same --thread-id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFn()
			out := outputFn()
			ctx := cmd.Context()

			app, err := newApp(ctx, logger, appOptions{
				noCache:         noCache,
				noCheckpointing: noCheckpointing,
				workers:         workers,
			})
			if err != nil {
				return err
			}
			defer app.Close()

			serveMetrics(logger)

			state, err := app.Coordinator.Run(ctx, coordinator.RunParams{
				ThreadID: threadID,
				InputDir: inputDir,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			printRunOutcome(out, state)
			if state.Status == domain.RunStatusFailed {
				return fmt.Errorf("run failed: %s", state.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputDir, "input-dir", "./input_documents", "Directory with PDF files")
	cmd.Flags().StringVar(&threadID, "thread-id", "", "Thread ID for resuming (generated if empty)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of documents to process")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent documents per stage")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the durable content cache")
	cmd.Flags().BoolVar(&noCheckpointing, "no-checkpointing", false, "Disable checkpointing (run is not resumable)")

	return cmd
}

// serveMetrics поднимает /metrics и /healthz, если задан METRICS_PORT.
// Для разового batch-запуска endpoint не обязателен.
func serveMetrics(logger *slog.Logger) {
	port := os.Getenv("METRICS_PORT")
	if port == "" {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		logger.Info("metrics listening", "addr", ":"+port)
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			logger.Error("metrics server error", "error", err)
		}
	}()
}

// printRunOutcome выводит итог run: отчёт, список на проверку или ошибку.
func printRunOutcome(out *Output, state *domain.WorkflowState) {
	switch state.Status {
	case domain.RunStatusCompleted:
		out.Success(fmt.Sprintf("Run completed: %s", state.ThreadID))
		out.Success(fmt.Sprintf("Report: %s", state.ReportPath))

	case domain.RunStatusAwaitingHumanInput:
		out.Success(fmt.Sprintf("Run %s is awaiting human review (%d documents)",
			state.ThreadID, len(state.PendingReview)))
		out.Success(fmt.Sprintf("Submit decisions with: conveyor review --thread-id %s --decision FILE=CATEGORY",
			state.ThreadID))

		headers := []string{"FILE", "CATEGORY", "CONFIDENCE"}
		rows := make([][]string, 0, len(state.PendingReview))
		for _, id := range state.PendingReview {
			if doc := state.DocumentByID(id); doc != nil {
				rows = append(rows, []string{
					doc.FileName,
					doc.Category,
					fmt.Sprintf("%.2f", doc.Confidence),
				})
			}
		}
		out.Print(headers, rows, state)

	case domain.RunStatusFailed:
		out.Error(fmt.Sprintf("Run %s failed: %s", state.ThreadID, state.Error))
	}
}
