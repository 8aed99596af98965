package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	app "image-analyzer/internal/application"
	"image-analyzer/internal/domain/entity"
)

const (
	serviceName     = "Image Analyzer"
	analysisTimeout = 15 * time.Minute
	sampleResults   = 3
)

// Analysis операции сервиса анализа, которые нужны HTTP-интерфейсу
type Analysis interface {
	RunBatch(ctx context.Context) (*app.RunResult, error)
	Start(ctx context.Context, timeout time.Duration) error
	Status() app.ServiceStatus
	Latest() (*entity.Report, error)
}

// Info сведения о конфигурации для /status. Значения секретов сюда не попадают.
type Info struct {
	CredentialMethod entity.CredentialMethod
	KeyVaultURLSet   bool
	ConfigFile       string
	Addr             string
	InputLocation    string
	Destinations     []entity.Destination
}

// Server HTTP-интерфейс оператора
type Server struct {
	analysis Analysis
	info     Info
	router   chi.Router
	logger   *slog.Logger
	now      func() time.Time
	baseCtx  context.Context
}

// NewServer создаёт сервер. baseCtx ограничивает фоновые запуски.
func NewServer(baseCtx context.Context, analysis Analysis, info Info, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		analysis: analysis,
		info:     info,
		router:   chi.NewRouter(),
		logger:   logger.With("component", "http"),
		now:      time.Now,
		baseCtx:  baseCtx,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/results", s.handleResults)
	r.Get("/api/info", s.handleInfo)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run слушает addr до отмены ctx
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Version:   entity.AnalyzerVersion,
		Timestamp: s.now().UTC(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := "idle"
	st := s.analysis.Status()
	if st.Running {
		state = "analyzing"
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:   "running",
		Analysis: state,
		Container: containerInfo{
			CredentialMethod: string(s.info.CredentialMethod),
			KeyVaultURLSet:   s.info.KeyVaultURLSet,
			Addr:             s.info.Addr,
		},
		Configuration: configurationInfo{
			ConfigFile:    s.info.ConfigFile,
			InputLocation: s.info.InputLocation,
			Destinations:  s.info.Destinations,
		},
		LastRun:   st,
		Timestamp: s.now().UTC(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		s.startAsync(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	result, err := s.analysis.RunBatch(ctx)
	if errors.Is(err, app.ErrRunInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, analyzeResponse{
			Status:    "error",
			Message:   "Analysis process failed",
			Error:     err.Error(),
			ErrorKind: entity.KindOf(err),
			Timestamp: s.now().UTC(),
		})
		return
	}

	writeJSON(w, http.StatusOK, newAnalyzeResponse(result, s.now().UTC()))
}

func (s *Server) startAsync(w http.ResponseWriter) {
	if err := s.analysis.Start(s.baseCtx, analysisTimeout); err != nil {
		if errors.Is(err, app.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, analyzeResponse{
		Status:    "accepted",
		Message:   "Analysis started. Poll /status and /results.",
		Timestamp: s.now().UTC(),
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	report, err := s.analysis.Latest()
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "no_results",
			"message": "No analysis results found. Run an analysis first.",
		})
		return
	}

	sample := report.Records
	if len(sample) > sampleResults {
		sample = sample[:sampleResults]
	}
	writeJSON(w, http.StatusOK, resultsResponse{
		Metadata:            report.Metadata,
		Summary:             report.Summary,
		SampleResults:       sample,
		TotalDetailedResult: len(report.Records),
		TotalFailures:       len(report.Failures),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Service: serviceName,
		Version: entity.AnalyzerVersion,
		Endpoints: map[string]string{
			"/health":   "Health check",
			"/status":   "System status",
			"/analyze":  "Run analysis (POST, ?async=true to run in background)",
			"/results":  "Get latest results",
			"/api/info": "This endpoint",
		},
		Description: "Batch image analysis over a hosted vision API",
	})
}
