package port

import (
	"context"

	"image-analyzer/internal/domain/entity"
)

// UserRepository хранилище операторов бота.
// Возвращаемые значения копии: изменения сохраняются только через Update.
type UserRepository interface {
	// Get возвращает оператора, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Update атомарно изменяет оператора. Если fn вернула ошибку, запись не меняется.
	Update(ctx context.Context, userID, chatID int64, fn func(u *entity.User) error) (*entity.User, error)
}
