package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

var fixedTime = time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)

type fakeSource struct {
	location string
	files    map[string][]byte
	listErr  error
	readErr  map[string]error
}

func (s *fakeSource) Location() string { return s.location }

func (s *fakeSource) List(ctx context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeSource) Read(ctx context.Context, name string) ([]byte, error) {
	if err := s.readErr[name]; err != nil {
		return nil, err
	}
	data, ok := s.files[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

// fakeAnalyzer отвечает по имени файла
type fakeAnalyzer struct {
	mu        sync.Mutex
	responses map[string]*entity.AnalysisResponse
	errs      map[string]error
	calls     []string
	block     chan struct{}
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, req entity.AnalysisRequest, features []entity.Feature) (*entity.AnalysisResponse, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req.Filename)
	a.mu.Unlock()

	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := a.errs[req.Filename]; err != nil {
		return nil, err
	}
	if resp, ok := a.responses[req.Filename]; ok {
		return resp, nil
	}
	return &entity.AnalysisResponse{}, nil
}

type fakeInspector struct {
	reject map[string]error
}

func (i *fakeInspector) Inspect(ctx context.Context, req entity.AnalysisRequest) (*entity.ImageInfo, error) {
	if err := i.reject[req.Filename]; err != nil {
		return nil, err
	}
	return &entity.ImageInfo{Format: "png", Size: len(req.Data)}, nil
}

type fakeProgress struct {
	mu      sync.Mutex
	started int
	done    []int
}

func (p *fakeProgress) BatchStarted(total int, keywords []string) {
	p.mu.Lock()
	p.started = total
	p.mu.Unlock()
}

func (p *fakeProgress) ImageDone(index, total int, outcome entity.Outcome) {
	p.mu.Lock()
	p.done = append(p.done, index)
	p.mu.Unlock()
}

type fakeWriter struct {
	location string
	err      error
	mu       sync.Mutex
	written  map[string][]byte
}

func newFakeWriter(location string) *fakeWriter {
	return &fakeWriter{location: location, written: make(map[string][]byte)}
}

func (w *fakeWriter) Location() string { return w.location }

func (w *fakeWriter) Write(ctx context.Context, name string, data []byte) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	w.written[name] = data
	w.mu.Unlock()
	return nil
}

type fakeStore struct {
	secrets map[string]string
	err     error
}

func (s *fakeStore) GetSecret(ctx context.Context, name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.secrets[name]
	if !ok {
		return "", entity.NewError(entity.KindCredentialFetch, "fake.get", "secret "+name+" not found")
	}
	return v, nil
}

var (
	_ port.ImageSource      = (*fakeSource)(nil)
	_ port.ImageAnalyzer    = (*fakeAnalyzer)(nil)
	_ port.ImageInspector   = (*fakeInspector)(nil)
	_ port.ProgressReporter = (*fakeProgress)(nil)
	_ port.ReportWriter     = (*fakeWriter)(nil)
	_ port.SecretStore      = (*fakeStore)(nil)
)

func tagResponse(caption string, confidence float64, tags ...entity.Tag) *entity.AnalysisResponse {
	return &entity.AnalysisResponse{Caption: caption, CaptionConfidence: confidence, Tags: tags}
}

func testSettings(keywords ...string) entity.AnalysisSettings {
	s := entity.DefaultAnalysisSettings()
	s.TargetKeywords = keywords
	return s
}

func newTestPipeline(analyzer port.ImageAnalyzer, inspector port.ImageInspector, progress port.ProgressReporter) *BatchPipeline {
	p := NewBatchPipeline(analyzer, inspector, progress, nil)
	p.now = func() time.Time { return fixedTime }
	p.newRunID = func() string { return "run-test" }
	return p
}
