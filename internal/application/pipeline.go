package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

// RunConfig неизменяемые параметры одного запуска
type RunConfig struct {
	Settings         entity.AnalysisSettings
	Workers          int // 1 — последовательная обработка
	CredentialMethod entity.CredentialMethod
}

// BatchPipeline проходит по изображениям источника и собирает отчёт.
// Ошибка по отдельному изображению не прерывает пакет.
type BatchPipeline struct {
	analyzer  port.ImageAnalyzer
	inspector port.ImageInspector
	progress  port.ProgressReporter
	logger    *slog.Logger
	now       func() time.Time
	newRunID  func() string
}

// NewBatchPipeline создаёт пайплайн. inspector и progress могут быть nil.
func NewBatchPipeline(analyzer port.ImageAnalyzer, inspector port.ImageInspector, progress port.ProgressReporter, logger *slog.Logger) *BatchPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchPipeline{
		analyzer:  analyzer,
		inspector: inspector,
		progress:  progress,
		logger:    logger.With("component", "pipeline"),
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Run анализирует все изображения источника. Ошибка возвращается только если
// источник не удалось перечислить.
func (p *BatchPipeline) Run(ctx context.Context, source port.ImageSource, cfg RunConfig) (*entity.Report, error) {
	names, err := source.List(ctx)
	if err != nil {
		return nil, entity.WrapError(entity.KindSourceUnavailable, "pipeline.list",
			"cannot enumerate images in "+source.Location(), err)
	}

	runID := p.newRunID()
	logger := p.logger.With("run_id", runID)
	logger.Info("batch started", "location", source.Location(), "images", len(names), "workers", cfg.Workers)

	if p.progress != nil {
		p.progress.BatchStarted(len(names), cfg.Settings.TargetKeywords)
	}

	agg := NewResultAggregator()
	agg.now = p.now

	handle := func(i int, name string) {
		outcome := p.processImage(ctx, source, name, cfg.Settings)
		agg.Record(outcome)
		if outcome.Failure != nil {
			logger.Warn("image failed", "file", name, "kind", outcome.Failure.Kind, "error", outcome.Failure.Message)
		} else {
			logger.Debug("image analyzed", "file", name)
		}
		if p.progress != nil {
			p.progress.ImageDone(i+1, len(names), outcome)
		}
	}

	if cfg.Workers <= 1 {
		for i, name := range names {
			handle(i, name)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(cfg.Workers)
		for i, name := range names {
			g.Go(func() error {
				handle(i, name)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := agg.Finalize(cfg.Settings.TargetKeywords, cfg.Settings.ConfidenceThreshold)
	report.Metadata.RunID = runID
	report.Metadata.InputLocation = source.Location()
	report.Metadata.CredentialMethod = string(cfg.CredentialMethod)

	logger.Info("batch finished",
		"total", report.Metadata.TotalImages,
		"analyzed", len(report.Records),
		"failed", len(report.Failures),
		"with_targets", report.Metadata.ImagesWithTargets)

	return report, nil
}

// AnalyzeImage анализирует одно изображение вне пакета и сразу считает совпадения.
func (p *BatchPipeline) AnalyzeImage(ctx context.Context, req entity.AnalysisRequest, settings entity.AnalysisSettings) entity.Outcome {
	outcome := p.analyze(ctx, req, settings)
	if outcome.Record != nil {
		matched, matches := matchTargets(*outcome.Record, settings.TargetKeywords, settings.ConfidenceThreshold)
		outcome.Record.MatchedKeywords = matched
		outcome.Record.Matches = matches
	}
	return outcome
}

func (p *BatchPipeline) processImage(ctx context.Context, source port.ImageSource, name string, settings entity.AnalysisSettings) entity.Outcome {
	if err := ctx.Err(); err != nil {
		return failed(name, entity.WrapError(entity.KindCancelled, "pipeline.process", "batch cancelled", err))
	}

	data, err := source.Read(ctx, name)
	if err != nil {
		return failed(name, entity.WrapError(entity.KindRead, "pipeline.read", "cannot load image", err))
	}

	return p.analyze(ctx, entity.AnalysisRequest{Filename: name, Data: data}, settings)
}

func (p *BatchPipeline) analyze(ctx context.Context, req entity.AnalysisRequest, settings entity.AnalysisSettings) entity.Outcome {
	if p.inspector != nil {
		if _, err := p.inspector.Inspect(ctx, req); err != nil {
			return failed(req.Filename, entity.WrapError(entity.KindRead, "pipeline.inspect", "image rejected", err))
		}
	}

	resp, err := p.analyzer.Analyze(ctx, req, settings.Features)
	if err != nil {
		kind := entity.KindUnknown
		if ctx.Err() != nil {
			kind = entity.KindCancelled
		}
		return failed(req.Filename, entity.WrapError(kind, "pipeline.analyze", "analysis failed", err))
	}

	rec := buildRecord(req.Filename, resp, settings, p.now())
	return entity.Outcome{Record: &rec}
}

func failed(name string, err error) entity.Outcome {
	f := entity.NewFailure(name, err)
	return entity.Outcome{Failure: &f}
}
