package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"image-analyzer/internal/domain/entity"
)

func TestBuildRecord_TruncatesThenFilters(t *testing.T) {
	settings := testSettings("cat")
	settings.MaxTags = 3

	resp := &entity.AnalysisResponse{
		Caption:           "  a cat  ",
		CaptionConfidence: 0.81234,
		Tags: []entity.Tag{
			{Name: "indoor", Confidence: 0.99},
			{Name: "blurry", Confidence: 0.2},
			{Name: "cat", Confidence: 0.9},
			{Name: "sofa", Confidence: 0.95},
		},
		Objects: []entity.DetectedObject{
			{Label: "cat", Confidence: 0.8},
			{Label: "", Confidence: 0.9},
			{Label: "lamp", Confidence: 0.1},
		},
	}

	rec := buildRecord("a.jpg", resp, settings, fixedTime)
	require.Equal(t, "a cat", rec.Caption)
	require.Equal(t, 0.81234, rec.CaptionConfidence)
	require.Equal(t, []entity.Tag{{Name: "indoor", Confidence: 0.99}, {Name: "cat", Confidence: 0.9}}, rec.Tags)
	require.Len(t, rec.Objects, 1)
	require.Equal(t, "cat", rec.Objects[0].Label)
	require.Equal(t, fixedTime, rec.AnalyzedAt)
	require.NotNil(t, rec.MatchedKeywords)
}

func TestBuildRecord_EmptyResponse(t *testing.T) {
	rec := buildRecord("b.jpg", &entity.AnalysisResponse{}, testSettings(), fixedTime)
	require.Equal(t, noCaption, rec.Caption)
	require.Zero(t, rec.CaptionConfidence)
	require.NotNil(t, rec.Tags)
	require.NotNil(t, rec.Objects)

	rec = buildRecord("c.jpg", nil, testSettings(), fixedTime)
	require.Equal(t, noCaption, rec.Caption)
}
