package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBoxCenter(t *testing.T) {
	b := BoundingBox{X: 10, Y: 20, W: 8, H: 6}
	x, y := b.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
}

func TestNewFailure_TakesKindFromError(t *testing.T) {
	f := NewFailure("c.jpg", NewError(KindRead, "storage.read", "no such file"))
	require.Equal(t, "c.jpg", f.Filename)
	require.Equal(t, KindRead, f.Kind)
	require.Contains(t, f.Message, "no such file")

	f = NewFailure("d.jpg", errors.New("plain"))
	require.Equal(t, KindUnknown, f.Kind)
}

func TestAnalysisSettings_Validate(t *testing.T) {
	s := DefaultAnalysisSettings()
	require.NoError(t, s.Validate())
	require.True(t, s.HasFeature(FeatureObjects))

	s.ConfidenceThreshold = 1.5
	require.True(t, IsKind(s.Validate(), KindConfig))

	s = DefaultAnalysisSettings()
	s.MaxTags = 0
	require.Error(t, s.Validate())

	s = DefaultAnalysisSettings()
	s.Features = nil
	require.Error(t, s.Validate())
}

func TestParseFeatureAndDestination(t *testing.T) {
	f, err := ParseFeature(" Tags ")
	require.NoError(t, err)
	require.Equal(t, FeatureTags, f)

	_, err = ParseFeature("faces")
	require.Error(t, err)

	d, err := ParseDestination("remote_container")
	require.NoError(t, err)
	require.Equal(t, DestinationRemoteContainer, d)

	_, err = ParseDestination("ftp")
	require.Error(t, err)
}
