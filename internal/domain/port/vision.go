package port

import (
	"context"

	"image-analyzer/internal/domain/entity"
)

// ImageAnalyzer интерфейс сервиса анализа изображений
type ImageAnalyzer interface {
	// Analyze отправляет одно изображение и возвращает нормализованный ответ
	Analyze(ctx context.Context, req entity.AnalysisRequest, features []entity.Feature) (*entity.AnalysisResponse, error)
}

// ImageInspector локальная проверка изображения перед отправкой
type ImageInspector interface {
	// Inspect проверяет, что байты являются изображением допустимого размера
	Inspect(ctx context.Context, req entity.AnalysisRequest) (*entity.ImageInfo, error)
}
