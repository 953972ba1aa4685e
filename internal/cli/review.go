package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/domain"
)

// NewReviewCmd создаёт команду подачи решений ручной проверки.
func NewReviewCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	var threadID string
	var reclassify []string
	var confirmUnknown []string
	var skip []string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Submit human review decisions",
		Long: `Submit review decisions for documents awaiting human input.

Decision forms:
  --decision FILE=CATEGORY   reclassify the document
  --confirm-unknown FILE     confirm the document as not relevant
  --skip FILE                keep the AI classification as-is

When all pending documents are resolved, the run continues to the
report and finishes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFn()
			out := outputFn()
			ctx := cmd.Context()

			decisions, err := parseDecisions(reclassify, confirmUnknown, skip)
			if err != nil {
				return err
			}
			if len(decisions) == 0 {
				return fmt.Errorf("no decisions given")
			}

			app, err := newApp(ctx, logger, appOptions{})
			if err != nil {
				return err
			}
			defer app.Close()

			state, rejected, err := app.Coordinator.ApplyDecisions(ctx, threadID, decisions)
			if err != nil {
				return err
			}

			for _, rej := range rejected {
				out.Error(rej.Error())
			}

			printRunOutcome(out, state)
			if state.Status == domain.RunStatusFailed {
				return fmt.Errorf("run failed: %s", state.Error)
			}
			if len(rejected) > 0 {
				return fmt.Errorf("%d decision(s) rejected", len(rejected))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&threadID, "thread-id", "", "Thread ID of the suspended run")
	cmd.Flags().StringSliceVar(&reclassify, "decision", nil, "Reclassify as FILE=CATEGORY (repeatable)")
	cmd.Flags().StringSliceVar(&confirmUnknown, "confirm-unknown", nil, "Confirm FILE as not relevant (repeatable)")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "Keep AI classification for FILE (repeatable)")
	cmd.MarkFlagRequired("thread-id")

	return cmd
}

// parseDecisions переводит флаги в решения по именам файлов.
// Два решения по одному файлу — ошибка.
func parseDecisions(reclassify, confirmUnknown, skip []string) (map[string]domain.ReviewDecision, error) {
	decisions := make(map[string]domain.ReviewDecision)

	add := func(file string, d domain.ReviewDecision) error {
		if _, dup := decisions[file]; dup {
			return fmt.Errorf("conflicting decisions for %q", file)
		}
		decisions[file] = d
		return nil
	}

	for _, kv := range reclassify {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid decision format %q, expected FILE=CATEGORY", kv)
		}
		if err := add(parts[0], domain.ReviewDecision{
			Kind:     domain.DecisionReclassify,
			Category: parts[1],
		}); err != nil {
			return nil, err
		}
	}
	for _, file := range confirmUnknown {
		if err := add(file, domain.ReviewDecision{Kind: domain.DecisionConfirmUnknown}); err != nil {
			return nil, err
		}
	}
	for _, file := range skip {
		if err := add(file, domain.ReviewDecision{Kind: domain.DecisionSkip}); err != nil {
			return nil, err
		}
	}

	return decisions, nil
}
