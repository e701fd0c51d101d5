package dto

import (
	"time"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
)

// TagResponse представляет тег словаря в ответе API
type TagResponse struct {
	Answer      string   `json:"answer"`
	Distractors []string `json:"distractors"`
}

// RecordResponse представляет запись словаря в ответе API
type RecordResponse struct {
	ID          uint          `json:"id"`
	ImageURL    string        `json:"image_url"`
	Description string        `json:"description"`
	Tags        []TagResponse `json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewRecordResponse преобразует entity в ответ API
func NewRecordResponse(record *entity.VocabularyRecord) RecordResponse {
	tags := make([]TagResponse, len(record.Tags))
	for i, tag := range record.Tags {
		tags[i] = TagResponse{Answer: tag.Answer, Distractors: tag.Distractors}
	}
	return RecordResponse{
		ID:          record.ID,
		ImageURL:    record.ImageURL,
		Description: record.Description,
		Tags:        tags,
		CreatedAt:   record.CreatedAt,
	}
}

// NewRecordListResponse преобразует список записей
func NewRecordListResponse(records []entity.VocabularyRecord) []RecordResponse {
	out := make([]RecordResponse, len(records))
	for i := range records {
		out[i] = NewRecordResponse(&records[i])
	}
	return out
}
