package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewStatusCmd создаёт команду просмотра состояния thread'а.
func NewStatusCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status THREAD_ID",
		Short: "Show thread status from its last checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFn()
			out := outputFn()
			ctx := cmd.Context()

			app, err := newStorageApp(ctx, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			cp, err := app.Coordinator.Status(ctx, args[0])
			if err != nil {
				return err
			}

			state := cp.State
			out.Print(
				[]string{"THREAD_ID", "NODE", "STATUS", "DOCUMENTS", "PENDING_REVIEW", "SEQUENCE", "UPDATED"},
				[][]string{{
					state.ThreadID,
					string(state.Node),
					string(state.Status),
					fmt.Sprintf("%d", len(state.Documents)),
					fmt.Sprintf("%d", len(state.PendingReview)),
					fmt.Sprintf("%d", cp.Sequence),
					cp.CreatedAt.Format("2006-01-02 15:04:05"),
				}},
				cp,
			)

			if len(state.PendingReview) > 0 && !out.IsJSON() {
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
				out.Success("Awaiting review:")
				out.Print(headers, rows, nil)
			}
			return nil
		},
	}
}
