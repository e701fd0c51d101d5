package repository

import (
	"github.com/yourusername/wordscope-api/internal/domain/entity"
)

// RecordRepository определяет методы для работы с записями словаря
type RecordRepository interface {
	Create(record *entity.VocabularyRecord) error
	GetByID(id uint) (*entity.VocabularyRecord, error)

	// GetByUserID возвращает все записи пользователя, новые первыми
	GetByUserID(userID uint) ([]entity.VocabularyRecord, error)

	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}
