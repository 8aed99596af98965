package port

import "context"

// ReportWriter место сохранения сериализованного отчёта
type ReportWriter interface {
	// Location возвращает адрес назначения
	Location() string

	// Write сохраняет данные под именем name
	Write(ctx context.Context, name string, data []byte) error
}
