package repository

import (
	"github.com/yourusername/wordscope-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)

	// UpdateReminder обновляет настройки ежедневного напоминания
	UpdateReminder(userID uint, enabled bool, hourUTC int) error

	// GetReminderCandidates возвращает пользователей, ожидающих напоминание в указанный час (UTC)
	GetReminderCandidates(hourUTC int) ([]entity.User, error)
}
