package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"restoran-pos/internal/config"
	"restoran-pos/internal/database"
	"restoran-pos/internal/logging"
	"restoran-pos/internal/metrics"
	"restoran-pos/internal/pos"
	"restoran-pos/internal/storage"
	"restoran-pos/internal/storage/sqlite"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

type globalOptions struct {
	configPath string
	logLevel   string
}

// env is the state every command works on.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	pos     *pos.Controller
	closeGw func() error
}

func bootstrap(ctx context.Context, opts *globalOptions) (*env, error) {
	if opts.configPath != "" {
		if err := os.Setenv("POS_CONFIG_FILE", opts.configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	gw, closeGw, err := openGateway(cfg)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	log.Info("storage opened", zap.String("driver", cfg.StorageDriver))

	m := metrics.New()
	p := pos.Open(ctx, gw, pos.Options{
		Logger:            log,
		Metrics:           m,
		LowStockThreshold: cfg.LowStockThreshold,
		WriteTimeout:      time.Duration(cfg.PersistTimeout) * time.Second,
	})
	return &env{cfg: cfg, log: log, metrics: m, pos: p, closeGw: closeGw}, nil
}

func openGateway(cfg *config.Config) (storage.Gateway, func() error, error) {
	switch storage.Driver(cfg.StorageDriver) {
	case storage.DriverMemory:
		return storage.NewMemory(), func() error { return nil }, nil
	case storage.DriverSQLite:
		st, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return st, st.Close, nil
	case storage.DriverPostgres:
		gw, err := database.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return gw, gw.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", cfg.StorageDriver)
	}
}

// close flushes pending writes before releasing the gateway.
func (r *env) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := r.pos.Close(ctx)
	if err != nil {
		r.log.Warn("flush on shutdown failed", zap.Error(err))
	}
	if cerr := r.closeGw(); cerr != nil {
		r.log.Warn("close storage failed", zap.Error(cerr))
		if err == nil {
			err = cerr
		}
	}
	_ = r.log.Sync()
	return err
}
