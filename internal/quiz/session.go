package quiz

import "errors"

// Ошибки нарушения контракта сессии. Это ошибки программирования вызывающей
// стороны, а не восстановимые ошибки времени выполнения.
var (
	// ErrSessionFinished возвращается при вызове операции активной сессии после завершения.
	ErrSessionFinished = errors.New("quiz session is finished")

	// ErrSessionActive возвращается при запросе результата незавершённой сессии.
	ErrSessionActive = errors.New("quiz session is still active")
)

// Feedback — результат проверки одного ответа.
type Feedback struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer,omitempty"` // Заполняется при неверном ответе
	PointsEarned  int    `json:"points_earned"`
}

// Result — итог завершённой сессии.
// Accuracy равен nil для пустой сессии: доля правильных ответов при нуле
// вопросов не определена и не вычисляется делением.
type Result struct {
	Score    int      `json:"score"`
	Total    int      `json:"total"`
	Accuracy *float64 `json:"accuracy,omitempty"` // Доля от 0 до 1
}

// Session — состояние одного прохождения квиза. Принадлежит единственному
// вызывающему, не потокобезопасна, не выполняет I/O.
type Session struct {
	items        []Item
	currentIndex int
	score        int
}

// NewSession создаёт сессию по готовому списку вопросов.
// Пустой список допустим: такая сессия сразу завершена со счётом 0.
func NewSession(items []Item) *Session {
	return &Session{items: items}
}

// Finished возвращает true, когда все вопросы пройдены
func (s *Session) Finished() bool {
	return s.currentIndex >= len(s.items)
}

// Len возвращает количество вопросов в сессии
func (s *Session) Len() int {
	return len(s.items)
}

// Score возвращает текущий счёт
func (s *Session) Score() int {
	return s.score
}

// CurrentIndex возвращает индекс текущего вопроса (0-based)
func (s *Session) CurrentIndex() int {
	return s.currentIndex
}

// CurrentQuestion возвращает текущий вопрос. Валидно только для активной сессии.
func (s *Session) CurrentQuestion() (Item, error) {
	if s.Finished() {
		return Item{}, ErrSessionFinished
	}
	return s.items[s.currentIndex], nil
}

// SubmitAnswer проверяет ответ на текущий вопрос и переводит сессию к следующему.
// Сравнение точное и регистрозависимое: клиент присылает один из показанных
// вариантов без изменений. Переход происходит синхронно независимо от результата.
func (s *Session) SubmitAnswer(choice string) (Feedback, error) {
	if s.Finished() {
		return Feedback{}, ErrSessionFinished
	}

	item := s.items[s.currentIndex]
	feedback := Feedback{Correct: choice == item.Answer}
	if feedback.Correct {
		s.score += PointsPerCorrect
		feedback.PointsEarned = PointsPerCorrect
	} else {
		feedback.CorrectAnswer = item.Answer
	}

	s.currentIndex++
	return feedback, nil
}

// Restart сбрасывает прогресс и счёт, не меняя порядок вопросов.
// Валиден в любом состоянии.
func (s *Session) Restart() {
	s.currentIndex = 0
	s.score = 0
}

// Result возвращает итог сессии. Валидно только после завершения.
func (s *Session) Result() (Result, error) {
	if !s.Finished() {
		return Result{}, ErrSessionActive
	}

	result := Result{
		Score: s.score,
		Total: len(s.items),
	}
	if result.Total > 0 {
		accuracy := float64(s.score) / float64(PointsPerCorrect*result.Total)
		result.Accuracy = &accuracy
	}
	return result, nil
}
