package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// VocabularyTag — одно распознанное на фото понятие: правильное слово
// и варианты неправильных ответов для квиза.
type VocabularyTag struct {
	Answer      string   `json:"answer"`
	Distractors []string `json:"distractors"`
}

// Normalize убирает дистракторы, совпадающие с ответом, и дубликаты между собой.
// Порядок оставшихся дистракторов сохраняется.
func (t VocabularyTag) Normalize() VocabularyTag {
	seen := map[string]struct{}{t.Answer: {}}
	cleaned := make([]string, 0, len(t.Distractors))
	for _, d := range t.Distractors {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		cleaned = append(cleaned, d)
	}
	return VocabularyTag{Answer: t.Answer, Distractors: cleaned}
}

// TagArray - пользовательский тип для хранения тегов в JSONB
type TagArray []VocabularyTag

// Scan реализует интерфейс sql.Scanner для TagArray
// Используется GORM для чтения JSONB данных из базы
func (o *TagArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = TagArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	// Обработка пустого массива байтов
	if len(bytes) == 0 {
		*o = TagArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для TagArray
// Используется GORM для записи TagArray в JSONB в базе
func (o TagArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// VocabularyRecord представляет одно проанализированное фото пользователя:
// ссылку на изображение, описание от vision-модели и извлечённые слова.
// Создаётся пайплайном анализа, после этого не изменяется.
type VocabularyRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ImageURL    string    `gorm:"size:500;not null" json:"image_url"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Tags        TagArray  `gorm:"type:jsonb;not null" json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (VocabularyRecord) TableName() string {
	return "vocabulary_records"
}

// TagCount возвращает количество тегов записи
func (r *VocabularyRecord) TagCount() int {
	return len(r.Tags)
}
