package repository

import (
	"github.com/yourusername/wordscope-api/internal/domain/entity"
)

// RefreshTokenRepository определяет методы для работы с refresh-токенами.
// Токены хранятся только в виде SHA-256 хешей.
type RefreshTokenRepository interface {
	Create(token *entity.RefreshToken) error
	GetByHash(tokenHash string) (*entity.RefreshToken, error)
	Update(token *entity.RefreshToken) error

	// RevokeAllForUser отзывает все активные токены пользователя (logout со всех устройств)
	RevokeAllForUser(userID uint) error

	// DeleteExpired удаляет истёкшие и отозванные токены, возвращает число удалённых
	DeleteExpired() (int64, error)
}
