package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"image-analyzer/internal/domain/entity"
)

func TestLocalDir_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "readme.md", "c.gif", "d.jpeg.bak"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	names, err := NewLocalDir(dir).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.png", "b.JPG", "c.gif"}, names)
}

func TestLocalDir_ListMissing(t *testing.T) {
	_, err := NewLocalDir(filepath.Join(t.TempDir(), "missing")).List(context.Background())
	require.True(t, entity.IsKind(err, entity.KindSourceUnavailable))
}

func TestLocalDir_ReadWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	local := NewLocalDir(dir)

	require.NoError(t, local.Write(context.Background(), "report.json", []byte("{}\n")))
	data, err := local.Read(context.Background(), "report.json")
	require.NoError(t, err)
	require.Equal(t, []byte("{}\n"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = local.Read(context.Background(), "nope.png")
	require.True(t, entity.IsKind(err, entity.KindRead))
}

func TestIsImageName(t *testing.T) {
	require.True(t, IsImageName("photo.JPEG"))
	require.True(t, IsImageName("scan.tiff"))
	require.False(t, IsImageName("scan.tif"))
	require.False(t, IsImageName("archive.zip"))
	require.False(t, IsImageName("png"))
}
