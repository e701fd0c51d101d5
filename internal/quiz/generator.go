package quiz

import (
	"math/rand"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
)

const (
	// MaxOptions — максимальное количество вариантов ответа в одном вопросе
	MaxOptions = 4

	// PointsPerCorrect — количество очков за правильный ответ
	PointsPerCorrect = 10
)

// Item — один сгенерированный вопрос квиза. Производный и эфемерный:
// пересоздаётся при каждом старте сессии, никогда не сохраняется.
type Item struct {
	ImageURL string   `json:"image_url"`
	Options  []string `json:"options"`
	Answer   string   `json:"-"` // Скрыто от клиента
}

// Generate строит перемешанный список вопросов из записей словаря пользователя.
// Для каждого тега каждой записи создаётся один вопрос: ответ тега плюс до трёх
// дистракторов, без дубликатов, в случайном порядке. Тег без дистракторов даёт
// вырожденный вопрос с единственным вариантом — это допустимо.
// Функция чистая: результат зависит только от входа и rng.
func Generate(records []entity.VocabularyRecord, rng *rand.Rand) []Item {
	var items []Item
	for _, record := range records {
		for _, tag := range record.Tags {
			tag = tag.Normalize()

			candidates := make([]string, 0, 1+len(tag.Distractors))
			candidates = append(candidates, tag.Answer)
			candidates = append(candidates, tag.Distractors...)

			options := Shuffle(rng, candidates)
			if len(options) > MaxOptions {
				options = options[:MaxOptions]
			}

			// Ответ мог быть отрезан при ограничении до MaxOptions —
			// тогда он заменяет случайный из оставшихся вариантов
			if !contains(options, tag.Answer) {
				options[rng.Intn(len(options))] = tag.Answer
			}

			items = append(items, Item{
				ImageURL: record.ImageURL,
				Options:  options,
				Answer:   tag.Answer,
			})
		}
	}
	return Shuffle(rng, items)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
