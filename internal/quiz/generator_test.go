package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
)

func TestGenerate_OneItemPerTag(t *testing.T) {
	// Arrange: 2 записи, 3 тега суммарно
	records := []entity.VocabularyRecord{
		{
			ImageURL: "https://storage.example.com/a.jpg",
			Tags: entity.TagArray{
				{Answer: "dog", Distractors: []string{"cat", "ball", "tree"}},
				{Answer: "grass", Distractors: []string{"sky"}},
			},
		},
		{
			ImageURL: "https://storage.example.com/b.jpg",
			Tags: entity.TagArray{
				{Answer: "cup", Distractors: []string{"plate", "fork", "spoon", "knife"}},
			},
		},
	}

	// Act
	items := Generate(records, newTestRand())

	// Assert
	require.Len(t, items, 3, "Каждый тег должен дать ровно один вопрос")

	answers := make([]string, 0, len(items))
	for _, item := range items {
		answers = append(answers, item.Answer)
	}
	assert.ElementsMatch(t, []string{"dog", "grass", "cup"}, answers)
}

func TestGenerate_OptionsContainAnswerExactlyOnce(t *testing.T) {
	// Arrange: дистракторов больше лимита, ответ не должен потеряться при обрезке
	records := []entity.VocabularyRecord{
		{
			ImageURL: "img",
			Tags: entity.TagArray{
				{Answer: "dog", Distractors: []string{"cat", "ball", "tree", "sky", "cup", "car"}},
			},
		},
	}
	rng := newTestRand()

	// Act & Assert: повторяем, чтобы покрыть разные исходы перемешивания
	for i := 0; i < 100; i++ {
		items := Generate(records, rng)
		require.Len(t, items, 1)

		count := 0
		for _, opt := range items[0].Options {
			if opt == "dog" {
				count++
			}
		}
		assert.Equal(t, 1, count, "Ответ должен входить в варианты ровно один раз")
		assert.Len(t, items[0].Options, MaxOptions, "При избытке дистракторов вариантов ровно %d", MaxOptions)
	}
}

func TestGenerate_OptionCountIsCappedByDistinctDistractors(t *testing.T) {
	testCases := []struct {
		name        string
		distractors []string
		expected    int
	}{
		{"без дистракторов — вырожденный вопрос", nil, 1},
		{"один дистрактор", []string{"cat"}, 2},
		{"три дистрактора", []string{"cat", "ball", "tree"}, 4},
		{"шесть дистракторов — обрезка до 4", []string{"a", "b", "c", "d", "e", "f"}, 4},
		{"дубликаты дистракторов не считаются", []string{"cat", "cat", "cat"}, 2},
		{"дистрактор равен ответу — игнорируется", []string{"dog"}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := []entity.VocabularyRecord{
				{ImageURL: "img", Tags: entity.TagArray{{Answer: "dog", Distractors: tc.distractors}}},
			}

			items := Generate(records, newTestRand())

			require.Len(t, items, 1)
			assert.Len(t, items[0].Options, tc.expected)
			assert.Contains(t, items[0].Options, "dog", "Ответ всегда присутствует в вариантах")
		})
	}
}

func TestGenerate_ItemCarriesSourceImageURL(t *testing.T) {
	// Arrange
	records := []entity.VocabularyRecord{
		{ImageURL: "https://storage.example.com/photo.jpg", Tags: entity.TagArray{{Answer: "dog"}}},
	}

	// Act
	items := Generate(records, newTestRand())

	// Assert
	require.Len(t, items, 1)
	assert.Equal(t, "https://storage.example.com/photo.jpg", items[0].ImageURL)
}

func TestGenerate_EmptyInputs(t *testing.T) {
	rng := newTestRand()

	// Записей нет вообще
	assert.Empty(t, Generate(nil, rng), "Нет записей — нет вопросов")
	assert.Empty(t, Generate([]entity.VocabularyRecord{}, rng))

	// Записи есть, но без тегов
	records := []entity.VocabularyRecord{
		{ImageURL: "a.jpg", Tags: entity.TagArray{}},
		{ImageURL: "b.jpg"},
	}
	assert.Empty(t, Generate(records, rng), "Записи без тегов не дают вопросов")
}

func TestGenerate_DoesNotMutateRecords(t *testing.T) {
	// Arrange
	records := []entity.VocabularyRecord{
		{ImageURL: "img", Tags: entity.TagArray{{Answer: "dog", Distractors: []string{"cat", "ball"}}}},
	}

	// Act
	Generate(records, newTestRand())

	// Assert
	assert.Equal(t, []string{"cat", "ball"}, records[0].Tags[0].Distractors, "Входные записи не должны изменяться")
}
