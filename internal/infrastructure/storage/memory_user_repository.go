package storage

import (
	"context"
	"sync"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище операторов.
// Хранит значения, наружу отдаёт копии.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]entity.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]entity.User),
	}
}

func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.load(userID, chatID)
	return &user, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, userID, chatID int64, fn func(u *entity.User) error) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.load(userID, chatID)
	if err := fn(&user); err != nil {
		current := r.users[userID]
		return &current, err
	}
	r.users[userID] = user
	return &user, nil
}

// load вызывается под mu. Новый оператор сразу сохраняется.
func (r *MemoryUserRepository) load(userID, chatID int64) entity.User {
	user, ok := r.users[userID]
	if !ok {
		user = *entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	if user.ChatID != chatID {
		user.ChatID = chatID
		r.users[userID] = user
	}
	return user
}

var _ port.UserRepository = (*MemoryUserRepository)(nil)
