package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestShuffle_IsPermutation(t *testing.T) {
	// Arrange
	input := []string{"a", "b", "c", "d", "e", "f", "g"}
	rng := newTestRand()

	// Act
	result := Shuffle(rng, input)

	// Assert: та же длина и тот же мультимножественный состав
	require.Len(t, result, len(input), "Длина должна сохраняться")
	assert.ElementsMatch(t, input, result, "Результат должен быть перестановкой входа")
}

func TestShuffle_DoesNotMutateInput(t *testing.T) {
	// Arrange
	input := []int{1, 2, 3, 4, 5}
	original := []int{1, 2, 3, 4, 5}
	rng := newTestRand()

	// Act: перемешиваем много раз, чтобы гарантированно зацепить все индексы
	for i := 0; i < 20; i++ {
		Shuffle(rng, input)
	}

	// Assert
	assert.Equal(t, original, input, "Входной слайс не должен изменяться")
}

func TestShuffle_ShortInputs(t *testing.T) {
	rng := newTestRand()

	testCases := []struct {
		name  string
		input []string
	}{
		{"пустой слайс", []string{}},
		{"один элемент", []string{"only"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Shuffle(rng, tc.input)
			assert.Equal(t, tc.input, result, "Для длины <= 1 результат равен входу")
		})
	}
}

func TestShuffle_NilInput(t *testing.T) {
	// Act
	result := Shuffle(newTestRand(), []string(nil))

	// Assert
	assert.Empty(t, result)
}

func TestShuffle_DuplicateElementsPreserved(t *testing.T) {
	// Arrange: дубликаты должны сохраниться в том же количестве
	input := []string{"x", "x", "y"}

	// Act
	result := Shuffle(newTestRand(), input)

	// Assert
	assert.ElementsMatch(t, input, result)
}

func TestShuffle_CoversDifferentPermutations(t *testing.T) {
	// Arrange
	input := []int{1, 2, 3}
	rng := newTestRand()

	// Act: при достаточном числе прогонов должны встретиться разные перестановки
	seen := make(map[[3]int]struct{})
	for i := 0; i < 200; i++ {
		result := Shuffle(rng, input)
		seen[[3]int{result[0], result[1], result[2]}] = struct{}{}
	}

	// Assert: все 6 перестановок трёх элементов достижимы
	assert.Len(t, seen, 6, "Fisher-Yates должен порождать все перестановки")
}
