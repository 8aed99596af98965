package port

import "context"

// ImageSource источник изображений: локальный каталог или удалённый контейнер
type ImageSource interface {
	// Location возвращает адрес источника для отчёта
	Location() string

	// List возвращает отсортированный список имён поддерживаемых изображений
	List(ctx context.Context) ([]string, error)

	// Read загружает байты изображения
	Read(ctx context.Context, name string) ([]byte, error)
}
