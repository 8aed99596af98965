package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ReportMetadata общие сведения о запуске
type ReportMetadata struct {
	RunID               string    `json:"run_id,omitempty"`
	TotalImages         int       `json:"total_images"`
	ImagesWithTargets   int       `json:"images_with_targets"`
	GeneratedAt         time.Time `json:"analysis_date"`
	TargetKeywords      []string  `json:"target_keywords"`
	ConfidenceThreshold float64   `json:"confidence_threshold"`
	Version             string    `json:"analyzer_version"`
	InputLocation       string    `json:"input_location,omitempty"`
	ResultsLocations    []string  `json:"results_locations,omitempty"`
	CredentialMethod    string    `json:"credential_method,omitempty"`
}

// SummaryStatistics сводная статистика по отчёту
type SummaryStatistics struct {
	DetectionRate     float64        `json:"detection_rate"`
	AvgConfidence     float64        `json:"avg_confidence"`
	TotalObjectsFound int            `json:"total_objects_found"`
	AvgTagsPerImage   float64        `json:"avg_tags_per_image"`
	ObjectCounts      map[string]int `json:"object_counts"`
}

// Report итоговый отчёт по пакету изображений
type Report struct {
	Metadata ReportMetadata    `json:"analysis_metadata"`
	Summary  SummaryStatistics `json:"summary_statistics"`
	Records  []AnalysisRecord  `json:"detailed_results"`
	Failures []FailureRecord   `json:"failures"`
}

// Encode сериализует отчёт в канонический JSON (порядок полей как в схеме).
func (r *Report) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeReport разбирает JSON отчёта.
func DecodeReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// CheckInvariants проверяет согласованность счётчиков.
func (r *Report) CheckInvariants() error {
	if r.Metadata.TotalImages != len(r.Records)+len(r.Failures) {
		return fmt.Errorf("total_images=%d but records=%d failures=%d",
			r.Metadata.TotalImages, len(r.Records), len(r.Failures))
	}
	if r.Metadata.ImagesWithTargets > len(r.Records) {
		return fmt.Errorf("images_with_targets=%d exceeds records=%d",
			r.Metadata.ImagesWithTargets, len(r.Records))
	}
	return nil
}
