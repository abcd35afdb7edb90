package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/l1jgo/webstats/internal/persist"
	"github.com/l1jgo/webstats/internal/webstats"
	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportOutput string
	exportSince  time.Duration
	exportLimit  int
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the sample history to a Parquet file",
		Long: `Write the persisted stats samples (online, unique, items, mobiles,
guilds, memory) to a Parquet file for offline analysis.

Example:
  webstats export -o history.parquet --since 168h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport()
		},
	}
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "webstats_history.parquet", "output file")
	cmd.Flags().DurationVar(&exportSince, "since", 24*time.Hour, "export samples newer than this")
	cmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum number of samples (0 = all)")
	return cmd
}

func runExport() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	samples, err := persist.NewStatsRepo(db).LoadHistory(ctx, time.Now().Add(-exportSince), exportLimit)
	if err != nil {
		return err
	}
	if err := writeParquet(exportOutput, samples); err != nil {
		return err
	}
	log.Info("統計歷史已匯出", zap.String("file", exportOutput), zap.Int("samples", len(samples)))
	return nil
}

func writeParquet(path string, samples []webstats.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[webstats.Sample](file)
	if _, err := writer.Write(samples); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return file.Close()
}
