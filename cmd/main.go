package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"image-analyzer/config"
	telegram "image-analyzer/internal/api"
	"image-analyzer/internal/api/console"
	"image-analyzer/internal/api/rest"
	app "image-analyzer/internal/application"
	"image-analyzer/internal/container"
	"image-analyzer/internal/domain/port"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ход анализа печатается только в пакетном режиме
	var (
		printer  *console.Printer
		progress port.ProgressReporter
	)
	if cfg.Mode == config.ModeBatch {
		printer = console.NewPrinter(os.Stdout)
		progress = printer
	}

	c, err := container.New(ctx, cfg, progress, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}

	switch cfg.Mode {
	case config.ModeBot:
		bot, err := telegram.NewBot(cfg.TelegramToken, c.UserService, c.AnalysisService, logger)
		if err != nil {
			logger.Error("failed to create bot", "error", err)
			return 1
		}
		logger.Info("bot is running")
		if err := bot.Run(ctx); err != nil {
			logger.Error("bot error", "error", err)
			return 1
		}
		return 0

	case config.ModeServer:
		server := rest.NewServer(ctx, c.AnalysisService, rest.Info{
			CredentialMethod: cfg.CredentialMethod,
			KeyVaultURLSet:   cfg.KeyVaultURL != "",
			ConfigFile:       cfg.ConfigFile,
			Addr:             cfg.HTTPAddr,
			InputLocation:    c.InputLocation,
			Destinations:     c.Destinations,
		}, logger)
		if err := server.Run(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			return 1
		}
		return 0

	default:
		return runBatch(ctx, c.AnalysisService, printer)
	}
}

// runBatch выполняет один запуск. Код выхода ненулевой, если запуск не состоялся
// или отчёт не удалось сохранить ни в одно назначение.
func runBatch(ctx context.Context, analysis *app.AnalysisService, printer *console.Printer) int {
	result, err := analysis.RunBatch(ctx)
	if err != nil {
		printer.Error(err)
		return 1
	}
	printer.Summary(result)

	saved := 0
	for _, s := range result.Sinks {
		if s.Err == nil {
			saved++
		}
	}
	if len(result.Sinks) > 0 && saved == 0 {
		return 1
	}
	return 0
}
