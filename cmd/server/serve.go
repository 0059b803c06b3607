package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"restoran-pos/internal/api"
	"restoran-pos/internal/archive"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *globalOptions) (err error) {
	rt, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.close(); err == nil {
			err = cerr
		}
	}()

	// The archive is optional for serving; a broken blob config only
	// disables the archive endpoints.
	var archiver *archive.Archiver
	if store, serr := archive.Open(ctx, rt.cfg); serr != nil {
		rt.log.Warn("history archive disabled", zap.Error(serr))
	} else {
		archiver = archive.New(store, rt.log)
	}

	app, err := api.NewApp(api.Deps{
		POS:      rt.pos,
		Archiver: archiver,
		Config:   rt.cfg,
		Metrics:  rt.metrics,
		Logger:   rt.log,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		rt.log.Info("server listening", zap.String("port", rt.cfg.HTTPPort), zap.String("version", Version))
		errCh <- app.Listen(":" + rt.cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
