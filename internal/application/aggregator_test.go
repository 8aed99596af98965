package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"image-analyzer/internal/domain/entity"
)

func record(name string, tags []entity.Tag, objects ...entity.DetectedObject) entity.AnalysisRecord {
	if objects == nil {
		objects = []entity.DetectedObject{}
	}
	return entity.AnalysisRecord{
		Filename:          name,
		AnalyzedAt:        fixedTime,
		Caption:           "caption " + name,
		CaptionConfidence: 0.5,
		Tags:              tags,
		Objects:           objects,
	}
}

func TestTermMatches(t *testing.T) {
	cases := []struct {
		term, keyword string
		want          bool
	}{
		{"Cat", "cat", true},
		{"sports car", "car", true},
		{"car", "race car", true},
		{"dog", "cat", false},
		{"", "cat", false},
		{"cat", " ", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, termMatches(tc.term, tc.keyword), "%q vs %q", tc.term, tc.keyword)
	}
}

func TestMatchTargets_RecordsEveryHit(t *testing.T) {
	rec := record("a.jpg",
		[]entity.Tag{{Name: "cat", Confidence: 0.9}, {Name: "kitten cat", Confidence: 0.6}, {Name: "cat toy", Confidence: 0.3}},
		entity.DetectedObject{Label: "cat", Confidence: 0.7},
	)

	matched, matches := matchTargets(rec, []string{"dog", "cat", "CAT"}, 0.5)
	require.Equal(t, []string{"cat", "CAT"}, matched)
	// три совпадения на каждое из двух ключевых слов, тег ниже порога не учитывается
	require.Len(t, matches, 6)
	require.Equal(t, entity.MatchSourceObject, matches[2].Source)
}

func TestResultAggregator_Finalize(t *testing.T) {
	agg := NewResultAggregator()
	agg.now = func() time.Time { return fixedTime }

	agg.RecordSuccess(record("b.jpg", []entity.Tag{{Name: "car", Confidence: 0.9}, {Name: "road", Confidence: 0.8}},
		entity.DetectedObject{Label: "car", Confidence: 0.9}))
	agg.RecordSuccess(record("a.jpg", []entity.Tag{{Name: "person", Confidence: 0.95}},
		entity.DetectedObject{Label: "person", Confidence: 0.9},
		entity.DetectedObject{Label: "car", Confidence: 0.6}))
	agg.RecordFailure(entity.FailureRecord{Filename: "c.jpg", Kind: entity.KindTransport, Message: "timeout"})

	report := agg.Finalize([]string{"car", "person"}, 0.5)
	require.NoError(t, report.CheckInvariants())

	require.Equal(t, 3, report.Metadata.TotalImages)
	require.Equal(t, 2, report.Metadata.ImagesWithTargets)
	require.Equal(t, entity.AnalyzerVersion, report.Metadata.Version)
	require.Equal(t, fixedTime, report.Metadata.GeneratedAt)
	require.InDelta(t, 66.666, report.Summary.DetectionRate, 0.01)
	require.Equal(t, 3, report.Summary.TotalObjectsFound)
	require.InDelta(t, 1.5, report.Summary.AvgTagsPerImage, 1e-9)
	require.Equal(t, map[string]int{"car": 2, "person": 1}, report.Summary.ObjectCounts)

	require.Equal(t, "a.jpg", report.Records[0].Filename)
	require.Equal(t, []string{"car", "person"}, report.Records[0].MatchedKeywords)
}

func TestResultAggregator_FinalizeIsDeterministic(t *testing.T) {
	agg := NewResultAggregator()
	agg.now = func() time.Time { return fixedTime }
	agg.RecordSuccess(record("x.jpg", []entity.Tag{{Name: "animal", Confidence: 0.7}}))
	agg.RecordFailure(entity.FailureRecord{Filename: "y.jpg", Kind: entity.KindRead, Message: "boom"})

	first, err := agg.Finalize([]string{"animal"}, 0.5).Encode()
	require.NoError(t, err)
	second, err := agg.Finalize([]string{"animal"}, 0.5).Encode()
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestResultAggregator_HigherThresholdNeverAddsMatches(t *testing.T) {
	agg := NewResultAggregator()
	agg.RecordSuccess(record("a.jpg", []entity.Tag{{Name: "cat", Confidence: 0.55}, {Name: "car", Confidence: 0.95}}))
	agg.RecordSuccess(record("b.jpg", []entity.Tag{{Name: "cat", Confidence: 0.75}}))
	agg.RecordSuccess(record("c.jpg", []entity.Tag{{Name: "building", Confidence: 0.85}}))

	keywords := []string{"cat", "car", "building"}
	prev := agg.Finalize(keywords, 0.0)
	for _, threshold := range []float64{0.5, 0.6, 0.8, 0.9, 1.0} {
		next := agg.Finalize(keywords, threshold)
		require.LessOrEqual(t, next.Metadata.ImagesWithTargets, prev.Metadata.ImagesWithTargets)
		require.LessOrEqual(t, next.Summary.TotalObjectsFound, prev.Summary.TotalObjectsFound)
		prev = next
	}
	require.Equal(t, 0, prev.Metadata.ImagesWithTargets)
}

func TestResultAggregator_ConcurrentRecord(t *testing.T) {
	agg := NewResultAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				agg.Record(entity.Outcome{Failure: &entity.FailureRecord{Filename: "f", Kind: entity.KindRead}})
				return
			}
			rec := record("r", []entity.Tag{})
			agg.Record(entity.Outcome{Record: &rec})
		}(i)
	}
	wg.Wait()

	report := agg.Finalize(nil, 0.5)
	require.Equal(t, 50, report.Metadata.TotalImages)
	require.Len(t, report.Failures, 10)
	require.Len(t, report.Records, 40)
}
