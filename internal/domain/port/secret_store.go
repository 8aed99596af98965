package port

import "context"

// SecretStore хранилище секретов
type SecretStore interface {
	// GetSecret возвращает значение секрета по имени
	GetSecret(ctx context.Context, name string) (string, error)
}
