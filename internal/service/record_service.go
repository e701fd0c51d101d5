package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
	"github.com/yourusername/wordscope-api/internal/domain/repository"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
)

// RecordService предоставляет методы для работы с записями словаря
type RecordService struct {
	recordRepo repository.RecordRepository
	maxTags    int
}

// NewRecordService создает новый сервис записей
func NewRecordService(recordRepo repository.RecordRepository, maxTags int) (*RecordService, error) {
	if recordRepo == nil {
		return nil, fmt.Errorf("RecordRepository is required for RecordService")
	}
	if maxTags <= 0 {
		maxTags = 5
	}
	return &RecordService{
		recordRepo: recordRepo,
		maxTags:    maxTags,
	}, nil
}

// maxDistractorsPerTag ограничивает число отвлекающих вариантов на тег,
// чтобы вместе с ответом получилось не больше четырех вариантов в вопросе
const maxDistractorsPerTag = 3

// CreateFromAnalysis строит запись словаря из результата анализа изображения.
// Каждый распознанный объект становится тегом; отвлекающими вариантами служат
// остальные объекты с того же изображения.
func (s *RecordService) CreateFromAnalysis(userID uint, imageURL, description string, items []string) (*entity.VocabularyRecord, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image url is required", apperrors.ErrValidation)
	}

	items = dedupeItems(items)
	if len(items) > s.maxTags {
		items = items[:s.maxTags]
	}

	tags := make(entity.TagArray, 0, len(items))
	for i, answer := range items {
		distractors := make([]string, 0, maxDistractorsPerTag)
		for j, other := range items {
			if j == i {
				continue
			}
			if len(distractors) == maxDistractorsPerTag {
				break
			}
			distractors = append(distractors, other)
		}
		tag := entity.VocabularyTag{Answer: answer, Distractors: distractors}
		tags = append(tags, tag.Normalize())
	}

	record := &entity.VocabularyRecord{
		UserID:      userID,
		ImageURL:    imageURL,
		Description: description,
		Tags:        tags,
	}

	if err := s.recordRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to create vocabulary record: %w", err)
	}

	log.Printf("[RecordService] Создана запись ID=%d для пользователя ID=%d (%d тегов)", record.ID, userID, len(tags))
	return record, nil
}

// CreateManual создает запись с тегами, заданными пользователем вручную
func (s *RecordService) CreateManual(userID uint, imageURL, description string, tags entity.TagArray) (*entity.VocabularyRecord, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image url is required", apperrors.ErrValidation)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: at least one tag is required", apperrors.ErrValidation)
	}

	normalized := make(entity.TagArray, 0, len(tags))
	for _, tag := range tags {
		tag.Answer = strings.TrimSpace(tag.Answer)
		if tag.Answer == "" {
			return nil, fmt.Errorf("%w: tag answer cannot be empty", apperrors.ErrValidation)
		}
		normalized = append(normalized, tag.Normalize())
	}

	record := &entity.VocabularyRecord{
		UserID:      userID,
		ImageURL:    imageURL,
		Description: description,
		Tags:        normalized,
	}

	if err := s.recordRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to create vocabulary record: %w", err)
	}
	return record, nil
}

// GetUserRecords возвращает все записи пользователя, новые первыми
func (s *RecordService) GetUserRecords(userID uint) ([]entity.VocabularyRecord, error) {
	records, err := s.recordRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user records: %w", err)
	}
	return records, nil
}

// GetRecord возвращает запись с проверкой владельца
func (s *RecordService) GetRecord(recordID, userID uint) (*entity.VocabularyRecord, error) {
	record, err := s.recordRepo.GetByID(recordID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, fmt.Errorf("%w: record belongs to another user", apperrors.ErrForbidden)
	}
	return record, nil
}

// DeleteRecord удаляет запись с проверкой владельца
func (s *RecordService) DeleteRecord(recordID, userID uint) error {
	record, err := s.recordRepo.GetByID(recordID)
	if err != nil {
		return err
	}
	if record.UserID != userID {
		return fmt.Errorf("%w: record belongs to another user", apperrors.ErrForbidden)
	}

	if err := s.recordRepo.Delete(recordID); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	log.Printf("[RecordService] Удалена запись ID=%d пользователя ID=%d", recordID, userID)
	return nil
}

// CountUserRecords возвращает число записей пользователя
func (s *RecordService) CountUserRecords(userID uint) (int64, error) {
	return s.recordRepo.CountByUserID(userID)
}

// dedupeItems убирает дубликаты и пустые строки, сохраняя порядок
func dedupeItems(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
