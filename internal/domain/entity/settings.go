package entity

import (
	"fmt"
	"strings"
)

// Feature возможность сервиса анализа
type Feature string

const (
	FeatureCaption Feature = "caption"
	FeatureTags    Feature = "tags"
	FeatureObjects Feature = "objects"
)

// ParseFeature проверяет название возможности.
func ParseFeature(s string) (Feature, error) {
	switch f := Feature(strings.ToLower(strings.TrimSpace(s))); f {
	case FeatureCaption, FeatureTags, FeatureObjects:
		return f, nil
	default:
		return "", NewError(KindConfig, "settings.feature", fmt.Sprintf("unsupported feature %q", s))
	}
}

// Destination куда сохранять отчёт
type Destination string

const (
	DestinationLocalFile       Destination = "local_file"
	DestinationRemoteContainer Destination = "remote_container"
)

// ParseDestination проверяет название назначения.
func ParseDestination(s string) (Destination, error) {
	switch d := Destination(strings.ToLower(strings.TrimSpace(s))); d {
	case DestinationLocalFile, DestinationRemoteContainer:
		return d, nil
	default:
		return "", NewError(KindConfig, "settings.destination", fmt.Sprintf("unsupported destination %q", s))
	}
}

const (
	DefaultConfidenceThreshold = 0.5
	DefaultMaxTags             = 10
	AnalyzerVersion            = "3.0.0"
)

// AnalysisSettings неизменяемые настройки анализа, передаются явно
type AnalysisSettings struct {
	TargetKeywords      []string
	ConfidenceThreshold float64
	MaxTags             int
	Features            []Feature
}

// DefaultAnalysisSettings настройки по умолчанию
func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{
		TargetKeywords:      []string{"person", "car", "animal", "building"},
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxTags:             DefaultMaxTags,
		Features:            []Feature{FeatureCaption, FeatureTags, FeatureObjects},
	}
}

// Validate проверяет диапазоны значений.
func (s AnalysisSettings) Validate() error {
	if s.ConfidenceThreshold < 0 || s.ConfidenceThreshold > 1 {
		return NewError(KindConfig, "settings.validate",
			fmt.Sprintf("confidence_threshold must be in [0,1], got %v", s.ConfidenceThreshold))
	}
	if s.MaxTags <= 0 {
		return NewError(KindConfig, "settings.validate", fmt.Sprintf("max_tags must be positive, got %d", s.MaxTags))
	}
	if len(s.Features) == 0 {
		return NewError(KindConfig, "settings.validate", "at least one feature is required")
	}
	return nil
}

// HasFeature проверяет, включена ли возможность.
func (s AnalysisSettings) HasFeature(f Feature) bool {
	for _, have := range s.Features {
		if have == f {
			return true
		}
	}
	return false
}
