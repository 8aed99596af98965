package vision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeResponse_ObjectLabelFromFirstTag(t *testing.T) {
	resp, err := decodeResponse([]byte(`{
  "objectsResult": {"values": [
    {"boundingBox": {"x": 1, "y": 2, "w": 3, "h": 4},
     "tags": [{"name": "person", "confidence": 0.7}, {"name": "man", "confidence": 0.6}]}
  ]},
  "tagsResult": {"values": [{"name": "", "confidence": 0.9}, {"name": "outdoor", "confidence": 0.9}]}
}`))
	require.NoError(t, err)
	require.Len(t, resp.Objects, 1)
	require.Equal(t, "person", resp.Objects[0].Label)
	require.Equal(t, 0.7, resp.Objects[0].Confidence)
	require.Len(t, resp.Tags, 1)
	require.Equal(t, "outdoor", resp.Tags[0].Name)
	require.Zero(t, resp.Width)
}

func TestDecodeResponse_Invalid(t *testing.T) {
	_, err := decodeResponse([]byte(`{"captionResult": "oops"`))
	require.Error(t, err)
}
