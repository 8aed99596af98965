package vision

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

// Границы размеров, которые принимает сервис анализа
const (
	MinImageSide = 50
	MaxImageSide = 16000
)

var supportedMIME = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/tiff": "tiff",
}

// Inspector проверяет изображение локально, до отправки в сервис.
// Размеры читаются через decodeSize, реализация зависит от тега сборки gocv.
type Inspector struct {
	MinSide  int
	MaxSide  int
	MaxBytes int
}

// NewInspector создаёт проверку с границами сервиса
func NewInspector() *Inspector {
	return &Inspector{
		MinSide:  MinImageSide,
		MaxSide:  MaxImageSide,
		MaxBytes: MaxPayloadBytes,
	}
}

// Inspect определяет формат по содержимому и проверяет размеры.
func (i *Inspector) Inspect(ctx context.Context, req entity.AnalysisRequest) (*entity.ImageInfo, error) {
	const op = "vision.inspect"

	if err := ctx.Err(); err != nil {
		return nil, entity.WrapError(entity.KindCancelled, op, "inspection cancelled", err)
	}
	if len(req.Data) == 0 {
		return nil, entity.NewError(entity.KindInvalidRequest, op, "image is empty")
	}
	if i.MaxBytes > 0 && len(req.Data) > i.MaxBytes {
		return nil, entity.NewError(entity.KindPayloadTooLarge, op,
			fmt.Sprintf("image is %d bytes, limit is %d", len(req.Data), i.MaxBytes))
	}

	mime := mimetype.Detect(req.Data)
	format, mimeType, ok := lookupFormat(mime)
	if !ok {
		return nil, entity.NewError(entity.KindInvalidRequest, op,
			fmt.Sprintf("%s: unsupported content type %s", req.Filename, mime.String()))
	}

	width, height, err := decodeSize(req.Data)
	if err != nil {
		return nil, entity.WrapError(entity.KindInvalidRequest, op, req.Filename+": cannot decode image", err)
	}
	if width < i.MinSide || height < i.MinSide {
		return nil, entity.NewError(entity.KindInvalidRequest, op,
			fmt.Sprintf("%s: image is too small (%dx%d), minimum side is %d", req.Filename, width, height, i.MinSide))
	}
	if width > i.MaxSide || height > i.MaxSide {
		return nil, entity.NewError(entity.KindInvalidRequest, op,
			fmt.Sprintf("%s: image is too large (%dx%d), maximum side is %d", req.Filename, width, height, i.MaxSide))
	}

	return &entity.ImageInfo{
		Format:   format,
		MIMEType: mimeType,
		Width:    width,
		Height:   height,
		Size:     len(req.Data),
	}, nil
}

// lookupFormat учитывает алиасы типа, например image/x-ms-bmp.
func lookupFormat(mime *mimetype.MIME) (format, mimeType string, ok bool) {
	for m, f := range supportedMIME {
		if mime.Is(m) {
			return f, m, true
		}
	}
	return "", "", false
}

var _ port.ImageInspector = (*Inspector)(nil)
