package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"image-analyzer/internal/domain/entity"
)

func TestOpenLocation(t *testing.T) {
	loc, err := OpenLocation("images", nil)
	require.NoError(t, err)
	require.IsType(t, &LocalDir{}, loc)

	loc, err = OpenLocation("s3://bucket/in/images/", newFakeS3())
	require.NoError(t, err)
	require.Equal(t, "s3://bucket/in/images", loc.Location())

	_, err = OpenLocation("s3://bucket", nil)
	require.True(t, entity.IsKind(err, entity.KindConfig))

	_, err = OpenLocation("s3:///prefix", newFakeS3())
	require.True(t, entity.IsKind(err, entity.KindConfig))

	_, err = OpenLocation(" ", nil)
	require.True(t, entity.IsKind(err, entity.KindConfig))
}

func TestParseConnectionString(t *testing.T) {
	cfg, err := ParseConnectionString("Endpoint=http://localhost:9000; region=eu-west-1;AccessKeyId=AK;SecretAccessKey=SK;ForcePathStyle=true")
	require.NoError(t, err)
	require.Equal(t, ConnectionConfig{
		Endpoint:        "http://localhost:9000",
		Region:          "eu-west-1",
		AccessKeyID:     "AK",
		SecretAccessKey: "SK",
		ForcePathStyle:  true,
	}, cfg)

	cfg, err = ParseConnectionString("")
	require.NoError(t, err)
	require.Equal(t, ConnectionConfig{}, cfg)

	for _, bad := range []string{
		"Endpoint",
		"Color=blue",
		"ForcePathStyle=maybe",
		"AccessKeyId=AK",
	} {
		_, err := ParseConnectionString(bad)
		require.True(t, entity.IsKind(err, entity.KindConfig), bad)
	}
}
