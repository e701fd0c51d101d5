package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
)

// RecordRepo реализует repository.RecordRepository
type RecordRepo struct {
	db *gorm.DB
}

// NewRecordRepo создает новый репозиторий записей словаря
func NewRecordRepo(db *gorm.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// Create создает новую запись
func (r *RecordRepo) Create(record *entity.VocabularyRecord) error {
	return r.db.Create(record).Error
}

// GetByID возвращает запись по ID
func (r *RecordRepo) GetByID(id uint) (*entity.VocabularyRecord, error) {
	var record entity.VocabularyRecord
	err := r.db.First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByUserID возвращает все записи пользователя, новые первыми
func (r *RecordRepo) GetByUserID(userID uint) ([]entity.VocabularyRecord, error) {
	var records []entity.VocabularyRecord
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete удаляет запись
func (r *RecordRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.VocabularyRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CountByUserID возвращает количество записей пользователя
func (r *RecordRepo) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.VocabularyRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
