package main

import (
	"codetransform/internal/config"
	"codetransform/internal/generator"
	"codetransform/internal/scheduler"
	"codetransform/internal/scratch"
	"codetransform/internal/server"
	"codetransform/internal/source"
	"codetransform/internal/transformer"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return err
	}

	scratchManager, err := scratch.New(cfg.ScratchDir, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize scratch dir",
			"error", err,
			"scratchDir", cfg.ScratchDir)

		return err
	}
	log.InfoContext(ctx, "Scratch dir is initialized",
		"scratchDir", scratchManager.Root())

	aggregator := source.NewAggregator(
		source.NewFileFetcher(&http.Client{Timeout: cfg.FileFetchTimeout}, cfg.MaxArchiveBytes),
		source.NewArchiveFlattener(&http.Client{}, scratchManager, source.ArchiveConfig{
			UserAgent:     cfg.ArchiveUserAgent,
			Patterns:      cfg.ArchivePatterns,
			MaxBytes:      cfg.MaxArchiveBytes,
			MaxConcurrent: cfg.MaxConcurrentArchives,
			Timeout:       cfg.ArchiveFetchTimeout,
		}, log),
		log,
	)

	gen, err := initGenerator(ctx, cfg)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize generator",
			"error", err,
			"provider", cfg.ModelProvider)

		return err
	}
	log.InfoContext(ctx, "Generator is initialized",
		"provider", cfg.ModelProvider)

	sched := scheduler.New(ctx, cfg.ScratchSweepSpec, cfg.ScratchMaxAge, scratchManager, log)
	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.ScratchSweepSpec)

		return err
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.ScratchSweepSpec,
		"scratchMaxAge", cfg.ScratchMaxAge.String())

	gin.SetMode(gin.ReleaseMode)

	srv, err := server.New(server.Config{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, transformer.New(aggregator, gen, cfg.ModelTimeout, log), log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize server",
			"error", err)

		return err
	}

	if err = srv.Run(ctx); err != nil {
		log.ErrorContext(ctx, "Server is failed",
			"error", err,
			"addr", cfg.HTTPAddr)

		return err
	}

	log.InfoContext(ctx, "Shutdown signal is received")
	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}

func initGenerator(ctx context.Context, cfg config.Config) (generator.Generator, error) {
	if cfg.ModelProvider == config.ProviderOpenAI {
		g, err := generator.NewOpenAIGenerator(generator.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Params: generator.DefaultParams(),
		})
		if err != nil {
			return nil, err
		}

		return g, nil
	}

	g, err := generator.NewVertexGenerator(ctx, generator.VertexConfig{
		Project:  cfg.ProjectID,
		Location: cfg.LocationID,
		Model:    cfg.ModelResourceName(),
		Params:   generator.DefaultParams(),
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}
