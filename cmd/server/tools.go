package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"restoran-pos/internal/archive"
	"restoran-pos/internal/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func archiveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive-history",
		Short: "Copy the full stock history to the configured blob store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return archiveHistory(cmd.Context(), opts)
		},
	}
}

func archiveHistory(ctx context.Context, opts *globalOptions) (err error) {
	rt, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.close(); err == nil {
			err = cerr
		}
	}()

	store, err := archive.Open(ctx, rt.cfg)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	info, err := archive.New(store, rt.log).Archive(ctx, rt.pos.Settings().StoreName, rt.pos.History(), time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("archived %s (%d bytes)\n", info.Key, info.Size)
	return nil
}

func exportReportCmd(opts *globalOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-report",
		Short: "Write stock levels and history to an XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportReport(cmd.Context(), opts, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "stock-report.xlsx", "Output file")
	return cmd
}

func exportReport(ctx context.Context, opts *globalOptions, out string) (err error) {
	rt, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.close(); err == nil {
			err = cerr
		}
	}()

	loc, err := rt.cfg.Location()
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	s := rt.pos.Snapshot()
	if err := report.WriteStock(f, s.StockItems, s.History, report.Options{
		LowStockThreshold: rt.cfg.LowStockThreshold,
		Location:          loc,
	}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}
	rt.log.Info("report written", zap.String("path", out), zap.Int("history", len(s.History)))
	return nil
}
