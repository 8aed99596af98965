package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	app "image-analyzer/internal/application"
	"image-analyzer/internal/domain/entity"
)

func init() {
	color.NoColor = true
}

func TestPrinter_Progress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.BatchStarted(3, []string{"cat", "dog"})
	p.ImageDone(1, 3, entity.Outcome{Record: &entity.AnalysisRecord{Filename: "a.jpg", Caption: "a sofa"}})
	p.ImageDone(2, 3, entity.Outcome{Record: &entity.AnalysisRecord{Filename: "b.jpg", MatchedKeywords: []string{"cat"}}})
	p.ImageDone(3, 3, entity.Outcome{Failure: &entity.FailureRecord{Filename: "c.jpg", Kind: entity.KindRead, Message: "broken"}})

	out := buf.String()
	require.Contains(t, out, "Found 3 images")
	require.Contains(t, out, "Target keywords: cat, dog")
	require.Contains(t, out, "[1/3] a.jpg a sofa")
	require.Contains(t, out, "[2/3] b.jpg targets: cat")
	require.Contains(t, out, "[3/3] c.jpg ReadError: broken")
}

func TestPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Summary(&app.RunResult{
		Report: &entity.Report{
			Metadata: entity.ReportMetadata{RunID: "run-7", TotalImages: 5, ImagesWithTargets: 4},
			Summary: entity.SummaryStatistics{
				DetectionRate: 80,
				ObjectCounts:  map[string]int{"sofa": 9, "lamp": 7, "table": 5},
			},
			Records: []entity.AnalysisRecord{
				{Filename: "a.jpg", MatchedKeywords: []string{"cat", "dog"}},
				{Filename: "b.jpg", MatchedKeywords: []string{"cat"}},
				{Filename: "c.jpg", MatchedKeywords: []string{"dog", "bird"}},
				{Filename: "d.jpg", MatchedKeywords: []string{"cat", "fish"}},
				{Filename: "e.jpg"},
			},
		},
		Sinks: []app.SinkResult{
			{Destination: entity.DestinationLocalFile, Location: "out.json"},
			{Destination: entity.DestinationRemoteContainer, Err: errors.New("denied")},
		},
	})

	out := buf.String()
	require.Contains(t, out, "Run run-7")
	require.Contains(t, out, "Detection rate:     80.00%")
	require.Contains(t, out, "Most common targets:\n    cat: 3\n    dog: 2\n    bird: 1\n")
	require.NotContains(t, out, "fish:")
	require.NotContains(t, out, "sofa")
	require.Contains(t, out, "local_file: out.json")
	require.Contains(t, out, "remote_container: denied")
}

func TestTargetCounts(t *testing.T) {
	counts := targetCounts([]entity.AnalysisRecord{
		{MatchedKeywords: []string{"cat"}},
		{MatchedKeywords: []string{"cat", "dog"}},
		{},
	})
	require.Equal(t, map[string]int{"cat": 2, "dog": 1}, counts)
	require.Empty(t, targetCounts(nil))
}

func TestTopObjects(t *testing.T) {
	counts := map[string]int{"cat": 3, "dog": 3, "car": 1, "tree": 2}
	require.Equal(t, []string{"cat", "dog", "tree"}, topObjects(counts, 3))
	require.Empty(t, topObjects(nil, 3))
}
