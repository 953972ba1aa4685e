// Conveyor — инструмент командной строки для batch-обработки
// ипотечных PDF-документов: извлечение содержимого, классификация,
// ручная проверка сомнительных результатов и итоговый отчёт.
//
// Использование:
//
//	conveyor [--json] <command> [flags]
//
// Команды:
//
//	run       Запуск или возобновление обработки каталога PDF
//	status    Состояние thread'а по последнему checkpoint'у
//	review    Подача решений ручной проверки
//	reset     Сброс сохранённого состояния thread'а
//	cache     Управление content cache
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/cli"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Conveyor — mortgage document processing pipeline",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	loggerFn := func() *slog.Logger { return telemetry.SetupLogger() }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRunCmd(loggerFn, outputFn),
		cli.NewStatusCmd(loggerFn, outputFn),
		cli.NewReviewCmd(loggerFn, outputFn),
		cli.NewResetCmd(loggerFn, outputFn),
		cli.NewCacheCmd(loggerFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
