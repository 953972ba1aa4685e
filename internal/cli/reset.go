package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewResetCmd создаёт команду сброса состояния thread'а.
func NewResetCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reset THREAD_ID",
		Short: "Forget the saved state of a thread",
		Long: `Delete the checkpoint of a thread. The next run with the same
thread ID starts from scratch. Cached extraction and classification
results are kept: they are keyed by content, not by thread.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFn()
			out := outputFn()
			ctx := cmd.Context()

			app, err := newStorageApp(ctx, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Coordinator.Reset(ctx, args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Thread reset: %s", args[0]))
			return nil
		},
	}
}
