package app

import (
	"strings"
	"time"

	"image-analyzer/internal/domain/entity"
)

const noCaption = "No description"

// buildRecord приводит ответ сервиса к записи отчёта: теги обрезаются до MaxTags
// и фильтруются по порогу, объекты фильтруются по порогу.
func buildRecord(filename string, resp *entity.AnalysisResponse, settings entity.AnalysisSettings, at time.Time) entity.AnalysisRecord {
	rec := entity.AnalysisRecord{
		Filename:        filename,
		AnalyzedAt:      at.UTC(),
		Caption:         noCaption,
		Tags:            make([]entity.Tag, 0),
		Objects:         make([]entity.DetectedObject, 0),
		MatchedKeywords: make([]string, 0),
		Matches:         make([]entity.TargetMatch, 0),
	}
	if resp == nil {
		return rec
	}

	if caption := strings.TrimSpace(resp.Caption); caption != "" {
		rec.Caption = caption
		rec.CaptionConfidence = resp.CaptionConfidence
	}

	tags := resp.Tags
	if settings.MaxTags > 0 && len(tags) > settings.MaxTags {
		tags = tags[:settings.MaxTags]
	}
	for _, tag := range tags {
		if tag.Confidence >= settings.ConfidenceThreshold {
			rec.Tags = append(rec.Tags, tag)
		}
	}

	for _, obj := range resp.Objects {
		if obj.Label == "" {
			continue
		}
		if obj.Confidence >= settings.ConfidenceThreshold {
			rec.Objects = append(rec.Objects, obj)
		}
	}

	return rec
}
