package storage

import (
	"strings"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

const s3Scheme = "s3://"

// Location источник изображений, в который можно и записывать
type Location interface {
	port.ImageSource
	port.ReportWriter
}

// IsRemote сообщает, указывает ли адрес на удалённый контейнер
func IsRemote(location string) bool {
	return strings.HasPrefix(strings.ToLower(location), s3Scheme)
}

// ParseRemote разбирает s3://bucket/prefix
func ParseRemote(location string) (bucket, prefix string, err error) {
	if !IsRemote(location) {
		return "", "", entity.NewError(entity.KindConfig, "storage.location", "not a remote location: "+location)
	}
	rest := location[len(s3Scheme):]
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", entity.NewError(entity.KindConfig, "storage.location", "bucket is empty in "+location)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// OpenLocation выбирает реализацию по адресу: s3://bucket/prefix или каталог.
// client нужен только для удалённых адресов.
func OpenLocation(location string, client S3API) (Location, error) {
	if !IsRemote(location) {
		if strings.TrimSpace(location) == "" {
			return nil, entity.NewError(entity.KindConfig, "storage.location", "location is empty")
		}
		return NewLocalDir(location), nil
	}

	bucket, prefix, err := ParseRemote(location)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, entity.NewError(entity.KindConfig, "storage.location", "remote storage is not configured for "+location)
	}
	return NewS3Container(client, bucket, prefix), nil
}
