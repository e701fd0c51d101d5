package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
)

// RefreshTokenRepo реализует repository.RefreshTokenRepository
type RefreshTokenRepo struct {
	db *gorm.DB
}

// NewRefreshTokenRepo создает новый репозиторий refresh-токенов
func NewRefreshTokenRepo(db *gorm.DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

// Create сохраняет новый refresh-токен
func (r *RefreshTokenRepo) Create(token *entity.RefreshToken) error {
	return r.db.Create(token).Error
}

// GetByHash возвращает токен по SHA-256 хешу
func (r *RefreshTokenRepo) GetByHash(tokenHash string) (*entity.RefreshToken, error) {
	var token entity.RefreshToken
	err := r.db.Where("token_hash = ?", tokenHash).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// Update сохраняет изменения токена (например, отзыв)
func (r *RefreshTokenRepo) Update(token *entity.RefreshToken) error {
	return r.db.Save(token).Error
}

// RevokeAllForUser отзывает все активные токены пользователя
func (r *RefreshTokenRepo) RevokeAllForUser(userID uint) error {
	return r.db.Model(&entity.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

// DeleteExpired удаляет истёкшие и отозванные токены
func (r *RefreshTokenRepo) DeleteExpired() (int64, error) {
	result := r.db.
		Where("expires_at < ? OR revoked_at IS NOT NULL", time.Now()).
		Delete(&entity.RefreshToken{})
	return result.RowsAffected, result.Error
}
