package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

const (
	timestampLayout  = "20060102_150405"
	latestReportName = "image_analysis_latest.json"
)

// SinkResult итог записи отчёта в одно назначение
type SinkResult struct {
	Destination entity.Destination
	Location    string   // полный адрес записанного отчёта
	Names       []string // имена записанных объектов
	Err         error
}

// ResultSink сохраняет отчёт в настроенные назначения.
// Сбой одного назначения не влияет на остальные.
type ResultSink struct {
	writers map[entity.Destination]port.ReportWriter
	logger  *slog.Logger
	now     func() time.Time
}

// NewResultSink создаёт sink. Назначение без writer при записи даёт SinkWriteError.
func NewResultSink(writers map[entity.Destination]port.ReportWriter, logger *slog.Logger) *ResultSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultSink{
		writers: writers,
		logger:  logger.With("component", "sink"),
		now:     time.Now,
	}
}

// Locations адреса настроенных назначений в порядке destinations
func (s *ResultSink) Locations(destinations []entity.Destination) []string {
	var out []string
	for _, dest := range destinations {
		if w, ok := s.writers[dest]; ok && w != nil {
			out = append(out, w.Location())
		}
	}
	return out
}

// Persist записывает отчёт в каждое назначение и возвращает результат по каждому
func (s *ResultSink) Persist(ctx context.Context, report *entity.Report, destinations []entity.Destination) []SinkResult {
	results := make([]SinkResult, 0, len(destinations))

	data, err := report.Encode()
	if err != nil {
		for _, dest := range destinations {
			results = append(results, SinkResult{
				Destination: dest,
				Err:         entity.WrapError(entity.KindSinkWrite, "sink.encode", "cannot encode report", err),
			})
		}
		return results
	}

	stamp := s.now().UTC().Format(timestampLayout)
	for _, dest := range destinations {
		res := s.persistOne(ctx, dest, stamp, data)
		if res.Err != nil {
			s.logger.Error("report not saved", "destination", dest, "error", res.Err)
		} else {
			s.logger.Info("report saved", "destination", dest, "location", res.Location)
		}
		results = append(results, res)
	}
	return results
}

func (s *ResultSink) persistOne(ctx context.Context, dest entity.Destination, stamp string, data []byte) SinkResult {
	res := SinkResult{Destination: dest}

	writer, ok := s.writers[dest]
	if !ok || writer == nil {
		res.Err = entity.NewError(entity.KindSinkWrite, "sink.persist",
			fmt.Sprintf("destination %q is not configured", dest))
		return res
	}

	var names []string
	switch dest {
	case entity.DestinationLocalFile:
		names = []string{"image_analysis_results_" + stamp + ".json"}
	case entity.DestinationRemoteContainer:
		names = []string{"image_analysis_" + stamp + ".json", latestReportName}
	default:
		res.Err = entity.NewError(entity.KindSinkWrite, "sink.persist",
			fmt.Sprintf("unsupported destination %q", dest))
		return res
	}

	for _, name := range names {
		if err := writer.Write(ctx, name, data); err != nil {
			res.Err = sinkError(fmt.Sprintf("cannot write %s to %s", name, writer.Location()), err)
			return res
		}
		res.Names = append(res.Names, name)
	}
	res.Location = joinLocation(writer.Location(), names[0])
	return res
}

func sinkError(msg string, err error) error {
	return &entity.Error{Kind: entity.KindSinkWrite, Op: "sink.write", Message: msg, Cause: err}
}

func joinLocation(base, name string) string {
	if base == "" {
		return name
	}
	if base[len(base)-1] == '/' {
		return base + name
	}
	return base + "/" + name
}
