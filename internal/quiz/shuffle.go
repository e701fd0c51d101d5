package quiz

import "math/rand"

// Shuffle возвращает новую перестановку src, равномерно случайную (Fisher-Yates).
// Входной слайс не изменяется. Для len(src) <= 1 возвращается копия, равная входу.
// Источник случайности передаётся явно, чтобы тесты могли использовать seed.
func Shuffle[T any](rng *rand.Rand, src []T) []T {
	result := make([]T, len(src))
	copy(result, src)
	for i := len(result) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		result[i], result[j] = result[j], result[i]
	}
	return result
}
