package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/cwbudde/wavfx/internal/config"
	"github.com/cwbudde/wavfx/internal/logger"
	"github.com/cwbudde/wavfx/pipeline"
	"github.com/cwbudde/wavfx/preset"
	"github.com/cwbudde/wavfx/relocate"
)

// app holds everything a subcommand needs, built from the configuration.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	store     preset.Store
	processor *pipeline.Processor
	registry  *prometheus.Registry
	closers   []io.Closer
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if opts.metricsFile != "" {
		cfg.Metrics.Textfile = opts.metricsFile
	}

	logOut := opts.stderr

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log, registry: prometheus.NewRegistry()}

	metrics, err := pipeline.NewMetrics(a.registry)
	if err != nil {
		return nil, err
	}

	a.store, err = a.newStore()
	if err != nil {
		return nil, err
	}

	a.processor, err = pipeline.New(pipeline.Config{
		ScratchDir:    cfg.ScratchDir,
		Relocator:     newRelocator(cfg.Relocate),
		CopyIn:        cfg.Relocate.CopyIn,
		MaxConcurrent: cfg.MaxJobs,
		Logger:        log,
		Metrics:       metrics,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) newStore() (preset.Store, error) {
	switch a.cfg.Preset.Backend {
	case config.BackendFile:
		return preset.NewFileStore(a.cfg.Preset.Path), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: a.cfg.Preset.RedisAddr})
		a.closers = append(a.closers, client)

		return preset.NewRedisStore(client, preset.WithKey(a.cfg.Preset.RedisKey)), nil
	case config.BackendMemory:
		return preset.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown preset backend %q", config.ErrInvalidConfig, a.cfg.Preset.Backend)
	}
}

func newRelocator(cfg config.RelocateConfig) relocate.Relocator {
	if cfg.Mode == config.RelocateShell {
		return relocate.Shell{Path: cfg.Shell, Args: cfg.Args, Stdin: cfg.Stdin}
	}

	return relocate.Local{}
}

// Close writes the metrics textfile, if configured, and releases store
// connections. It is safe on a nil app.
func (a *app) Close() error {
	if a == nil {
		return nil
	}

	var first error

	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
			first = fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}

	a.closers = nil

	return first
}
