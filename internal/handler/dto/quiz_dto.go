package dto

import (
	"github.com/yourusername/wordscope-api/internal/quiz"
)

// QuestionResponse представляет текущий вопрос викторины.
// Правильный ответ клиенту не отправляется.
type QuestionResponse struct {
	ImageURL string   `json:"image_url"`
	Options  []string `json:"options"`
	Index    int      `json:"index"`
	Total    int      `json:"total"`
}

// NewQuestionResponse строит ответ с вопросом
func NewQuestionResponse(item quiz.Item, index, total int) QuestionResponse {
	return QuestionResponse{
		ImageURL: item.ImageURL,
		Options:  item.Options,
		Index:    index,
		Total:    total,
	}
}

// FeedbackResponse представляет результат проверки ответа
type FeedbackResponse struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	PointsEarned  int    `json:"points_earned"`
}

// NewFeedbackResponse строит ответ с результатом проверки
func NewFeedbackResponse(fb quiz.Feedback) FeedbackResponse {
	return FeedbackResponse{
		Correct:       fb.Correct,
		CorrectAnswer: fb.CorrectAnswer,
		PointsEarned:  fb.PointsEarned,
	}
}

// ResultResponse представляет итог завершенной сессии
type ResultResponse struct {
	Score    int      `json:"score"`
	Total    int      `json:"total"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// NewResultResponse строит ответ с итогом
func NewResultResponse(r quiz.Result) ResultResponse {
	return ResultResponse{
		Score:    r.Score,
		Total:    r.Total,
		Accuracy: r.Accuracy,
	}
}
