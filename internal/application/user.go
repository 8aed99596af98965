package app

import (
	"context"
	"errors"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

// ErrOperatorBusy у оператора уже идёт пакетный анализ
var ErrOperatorBusy = errors.New("operator already has a running batch")

// UserService управляет состоянием операторов бота
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.SetState(state)
		return nil
	})
}

// BeginPhoto переводит оператора в ожидание фото для разового анализа
func (s *UserService) BeginPhoto(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// StartBatch отмечает, что оператор запустил пакет. Проверка и переход атомарны.
func (s *UserService) StartBatch(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		if u.IsBusy() {
			return ErrOperatorBusy
		}
		u.SetState(entity.StateBatchRunning)
		return nil
	})
}

// FinishBatch возвращает оператора в меню и запоминает идентификатор запуска
func (s *UserService) FinishBatch(ctx context.Context, userID, chatID int64, runID string) (*entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.SetState(entity.StateMainMenu)
		if runID != "" {
			u.LastRunID = runID
		}
		return nil
	})
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
