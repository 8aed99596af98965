package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

// LocalDir каталог на диске: источник изображений и место для отчётов.
// Подкаталоги не обходятся.
type LocalDir struct {
	dir string
}

// NewLocalDir создаёт источник для каталога dir
func NewLocalDir(dir string) *LocalDir {
	return &LocalDir{dir: filepath.Clean(dir)}
}

func (d *LocalDir) Location() string {
	return d.dir
}

// List возвращает отсортированные имена изображений
func (d *LocalDir) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, entity.WrapError(entity.KindSourceUnavailable, "localdir.list",
			fmt.Sprintf("cannot read directory %s", d.dir), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsImageName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read читает файл изображения
func (d *LocalDir) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, entity.WrapError(entity.KindCancelled, "localdir.read", "read cancelled", err)
	}
	data, err := os.ReadFile(filepath.Join(d.dir, filepath.Base(name)))
	if err != nil {
		return nil, entity.WrapError(entity.KindRead, "localdir.read", "cannot read "+name, err)
	}
	return data, nil
}

// Write сохраняет файл атомарно: запись во временный файл и переименование
func (d *LocalDir) Write(ctx context.Context, name string, data []byte) error {
	const op = "localdir.write"

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return entity.WrapError(entity.KindSinkWrite, op, "cannot create "+d.dir, err)
	}

	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return entity.WrapError(entity.KindSinkWrite, op, "cannot create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return entity.WrapError(entity.KindSinkWrite, op, "cannot write "+name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return entity.WrapError(entity.KindSinkWrite, op, "cannot write "+name, err)
	}
	if err := tmp.Close(); err != nil {
		return entity.WrapError(entity.KindSinkWrite, op, "cannot write "+name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		return entity.WrapError(entity.KindSinkWrite, op, "cannot save "+name, err)
	}
	return nil
}

var (
	_ port.ImageSource  = (*LocalDir)(nil)
	_ port.ReportWriter = (*LocalDir)(nil)
)
