package port

import "image-analyzer/internal/domain/entity"

// ProgressReporter получает уведомления о ходе пакетного анализа
type ProgressReporter interface {
	// BatchStarted вызывается после получения списка изображений
	BatchStarted(total int, keywords []string)

	// ImageDone вызывается после обработки каждого изображения
	ImageDone(index, total int, outcome entity.Outcome)
}
