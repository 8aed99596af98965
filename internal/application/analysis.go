package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

// ErrRunInProgress пакетный анализ уже запущен
var ErrRunInProgress = errors.New("batch analysis is already running")

// ErrNoReport ещё не было ни одного завершённого запуска
var ErrNoReport = errors.New("no analysis results yet")

// SourceOpener открывает источник изображений для очередного запуска
type SourceOpener func(ctx context.Context) (port.ImageSource, error)

// RunResult итог пакетного запуска
type RunResult struct {
	Report *entity.Report
	Sinks  []SinkResult
}

// ServiceStatus состояние сервиса для операторских интерфейсов
type ServiceStatus struct {
	Running        bool      `json:"running"`
	LastRunID      string    `json:"last_run_id,omitempty"`
	LastFinishedAt time.Time `json:"last_finished_at,omitzero"`
	LastError      string    `json:"last_error,omitempty"`
	TotalImages    int       `json:"total_images"`
	WithTargets    int       `json:"images_with_targets"`
}

// AnalysisService запускает пакетный анализ, хранит последний отчёт
// и не допускает параллельных запусков.
type AnalysisService struct {
	pipeline     *BatchPipeline
	sink         *ResultSink
	openSource   SourceOpener
	run          RunConfig
	destinations []entity.Destination
	logger       *slog.Logger

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	latest     *entity.Report
	lastErr    error
	finishedAt time.Time
}

// NewAnalysisService создаёт сервис анализа
func NewAnalysisService(pipeline *BatchPipeline, sink *ResultSink, openSource SourceOpener, run RunConfig, destinations []entity.Destination, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		pipeline:     pipeline,
		sink:         sink,
		openSource:   openSource,
		run:          run,
		destinations: destinations,
		logger:       logger.With("component", "analysis"),
	}
}

// Settings возвращает настройки анализа
func (s *AnalysisService) Settings() entity.AnalysisSettings {
	return s.run.Settings
}

// RunBatch выполняет полный запуск: источник, анализ, сохранение.
// Если запуск уже идёт, возвращает ErrRunInProgress.
func (s *AnalysisService) RunBatch(ctx context.Context) (*RunResult, error) {
	ctx, cancel, err := s.claim(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return s.execute(ctx)
}

// Start занимает запуск сразу и выполняет пакет в фоне.
// timeout ограничивает фоновый запуск, 0 означает без ограничения.
func (s *AnalysisService) Start(ctx context.Context, timeout time.Duration) error {
	ctx, cancel, err := s.claim(ctx, timeout)
	if err != nil {
		return err
	}

	go func() {
		defer cancel()
		if _, err := s.execute(ctx); err != nil {
			s.logger.Error("background batch failed", "error", err)
		}
	}()
	return nil
}

// claim отмечает запуск под mu, поэтому второй вызов получает ErrRunInProgress
// ещё до старта первого пакета.
func (s *AnalysisService) claim(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, nil, ErrRunInProgress
	}

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	s.running = true
	s.cancel = cancel
	return ctx, cancel, nil
}

func (s *AnalysisService) execute(ctx context.Context) (*RunResult, error) {
	result, err := s.runBatch(ctx)

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.lastErr = err
	s.finishedAt = time.Now().UTC()
	if result != nil {
		s.latest = result.Report
	}
	s.mu.Unlock()

	return result, err
}

func (s *AnalysisService) runBatch(ctx context.Context) (*RunResult, error) {
	source, err := s.openSource(ctx)
	if err != nil {
		return nil, entity.WrapError(entity.KindSourceUnavailable, "analysis.open", "cannot open image source", err)
	}

	report, err := s.pipeline.Run(ctx, source, s.run)
	if err != nil {
		s.logger.Error("batch aborted", "error", err)
		return nil, err
	}

	report.Metadata.ResultsLocations = s.sink.Locations(s.destinations)

	// Отчёт сохраняется и после отмены: незавершённые изображения уже записаны как CancelledError.
	sinks := s.sink.Persist(context.WithoutCancel(ctx), report, s.destinations)
	return &RunResult{Report: report, Sinks: sinks}, nil
}

// Cancel останавливает текущий запуск. Возвращает false, если ничего не запущено.
func (s *AnalysisService) Cancel() bool {
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()
	if cancel == nil {
		return false
	}
	cancel()
	s.logger.Info("batch cancellation requested")
	return true
}

// Latest возвращает последний отчёт или ErrNoReport
func (s *AnalysisService) Latest() (*entity.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoReport
	}
	return s.latest, nil
}

// Status возвращает текущее состояние сервиса
func (s *AnalysisService) Status() ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ServiceStatus{
		Running:        s.running,
		LastFinishedAt: s.finishedAt,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.latest != nil {
		st.LastRunID = s.latest.Metadata.RunID
		st.TotalImages = s.latest.Metadata.TotalImages
		st.WithTargets = s.latest.Metadata.ImagesWithTargets
	}
	return st
}

// AnalyzePhoto анализирует одно присланное изображение вне пакета.
func (s *AnalysisService) AnalyzePhoto(ctx context.Context, filename string, data []byte) entity.Outcome {
	return s.pipeline.AnalyzeImage(ctx, entity.AnalysisRequest{Filename: filename, Data: data}, s.run.Settings)
}
