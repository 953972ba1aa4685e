package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewCacheCmd создаёт группу команд для управления content cache.
func NewCacheCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the content cache",
	}

	cmd.AddCommand(
		newCacheStatsCmd(loggerFn, outputFn),
		newCacheClearCmd(loggerFn, outputFn),
	)

	return cmd
}

func newCacheStatsCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFn()
			out := outputFn()
			ctx := cmd.Context()

			app, err := newStorageApp(ctx, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.Cache.Stats(ctx)
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ENTRIES", "HITS", "MISSES"},
				[][]string{{
					fmt.Sprintf("%d", stats.Entries),
					fmt.Sprintf("%d", stats.Hits),
					fmt.Sprintf("%d", stats.Misses),
				}},
				stats,
			)
			return nil
		},
	}
}

func newCacheClearCmd(loggerFn func() *slog.Logger, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFn()
			out := outputFn()
			ctx := cmd.Context()

			app, err := newStorageApp(ctx, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			removed, err := app.Cache.Clear(ctx)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Cache cleared: %d entries removed", removed))
			return nil
		},
	}
}
