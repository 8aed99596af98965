package app

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"image-analyzer/internal/domain/entity"
)

// ResultAggregator накапливает результаты по изображениям и строит отчёт.
// Методы безопасны для вызова из нескольких горутин.
type ResultAggregator struct {
	mu       sync.Mutex
	records  []entity.AnalysisRecord
	failures []entity.FailureRecord
	now      func() time.Time
}

// NewResultAggregator создаёт пустой агрегатор
func NewResultAggregator() *ResultAggregator {
	return &ResultAggregator{
		records:  make([]entity.AnalysisRecord, 0),
		failures: make([]entity.FailureRecord, 0),
		now:      time.Now,
	}
}

// RecordSuccess добавляет успешный результат
func (a *ResultAggregator) RecordSuccess(rec entity.AnalysisRecord) {
	a.mu.Lock()
	a.records = append(a.records, rec)
	a.mu.Unlock()
}

// RecordFailure добавляет ошибку по изображению
func (a *ResultAggregator) RecordFailure(f entity.FailureRecord) {
	a.mu.Lock()
	a.failures = append(a.failures, f)
	a.mu.Unlock()
}

// Record направляет результат в нужную последовательность
func (a *ResultAggregator) Record(o entity.Outcome) {
	switch {
	case o.Record != nil:
		a.RecordSuccess(*o.Record)
	case o.Failure != nil:
		a.RecordFailure(*o.Failure)
	}
}

// Finalize строит отчёт. Повторный вызов без новых данных даёт тот же отчёт,
// отличается только время формирования.
func (a *ResultAggregator) Finalize(keywords []string, threshold float64) *entity.Report {
	a.mu.Lock()
	records := make([]entity.AnalysisRecord, len(a.records))
	copy(records, a.records)
	failures := make([]entity.FailureRecord, len(a.failures))
	copy(failures, a.failures)
	a.mu.Unlock()

	slices.SortStableFunc(records, func(x, y entity.AnalysisRecord) int {
		return cmp.Compare(x.Filename, y.Filename)
	})
	slices.SortStableFunc(failures, func(x, y entity.FailureRecord) int {
		return cmp.Compare(x.Filename, y.Filename)
	})

	withTargets := 0
	objectsFound := 0
	tagCount := 0
	confidenceSum := 0.0
	objectCounts := make(map[string]int)

	for i := range records {
		matched, matches := matchTargets(records[i], keywords, threshold)
		records[i].MatchedKeywords = matched
		records[i].Matches = matches

		if len(matched) > 0 {
			withTargets++
		}
		objectsFound += len(matched)
		tagCount += len(records[i].Tags)
		confidenceSum += records[i].CaptionConfidence
		for _, obj := range records[i].Objects {
			objectCounts[obj.Label]++
		}
	}

	total := len(records) + len(failures)
	summary := entity.SummaryStatistics{
		TotalObjectsFound: objectsFound,
		ObjectCounts:      objectCounts,
	}
	if total > 0 {
		summary.DetectionRate = float64(withTargets) / float64(total) * 100
	}
	if len(records) > 0 {
		summary.AvgConfidence = confidenceSum / float64(len(records))
		summary.AvgTagsPerImage = float64(tagCount) / float64(len(records))
	}

	kw := make([]string, len(keywords))
	copy(kw, keywords)

	return &entity.Report{
		Metadata: entity.ReportMetadata{
			TotalImages:         total,
			ImagesWithTargets:   withTargets,
			GeneratedAt:         a.now().UTC(),
			TargetKeywords:      kw,
			ConfidenceThreshold: threshold,
			Version:             entity.AnalyzerVersion,
		},
		Summary:  summary,
		Records:  records,
		Failures: failures,
	}
}
