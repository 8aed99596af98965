package entity

// UserState состояние оператора в диалоге с ботом
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото для разового анализа
	StateBatchRunning  UserState = "batch_running"  // Идёт пакетный анализ, запущенный оператором
)

// User оператор бота
type User struct {
	ID        int64     // Telegram User ID
	ChatID    int64     // Telegram Chat ID
	State     UserState // Текущее состояние
	LastRunID string    // Идентификатор последнего запущенного пакета
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// IsBusy сообщает, что у оператора уже идёт пакетный анализ
func (u *User) IsBusy() bool {
	return u.State == StateBatchRunning
}
