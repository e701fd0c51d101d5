package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
	"github.com/yourusername/wordscope-api/internal/quiz"
)

func quizTestRecords() []entity.VocabularyRecord {
	return []entity.VocabularyRecord{
		{
			ID:       1,
			UserID:   1,
			ImageURL: "https://cdn.example.com/dog.jpg",
			Tags: entity.TagArray{
				{Answer: "dog", Distractors: []string{"cat", "fox", "wolf"}},
			},
		},
		{
			ID:       2,
			UserID:   1,
			ImageURL: "https://cdn.example.com/cup.jpg",
			Tags: entity.TagArray{
				{Answer: "cup", Distractors: []string{"mug", "glass"}},
			},
		},
	}
}

func newTestQuizService(t *testing.T, recordRepo *MockRecordRepository) *QuizService {
	t.Helper()
	svc, err := NewQuizService(recordRepo, 30*time.Minute)
	require.NoError(t, err)
	return svc
}

func TestQuizService_StartSession(t *testing.T) {
	// Arrange
	recordRepo := new(MockRecordRepository)
	recordRepo.On("GetByUserID", uint(1)).Return(quizTestRecords(), nil)
	svc := newTestQuizService(t, recordRepo)

	// Act
	state, err := svc.StartSession(1)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, 2, state.TotalItems, "По одному вопросу на каждый тег")
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, 0, state.Score)
	assert.False(t, state.Finished)
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestQuizService_StartSession_NoRecords(t *testing.T) {
	// Пустой словарь — сессия создается сразу завершенной с нулевым счетом
	recordRepo := new(MockRecordRepository)
	recordRepo.On("GetByUserID", uint(1)).Return([]entity.VocabularyRecord{}, nil)
	svc := newTestQuizService(t, recordRepo)

	state, err := svc.StartSession(1)

	require.NoError(t, err)
	assert.True(t, state.Finished)
	assert.Equal(t, 0, state.TotalItems)

	result, err := svc.SessionResult(state.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Nil(t, result.Accuracy, "Точность не определена для пустой сессии")
}

func TestQuizService_StartSession_RepoError(t *testing.T) {
	// Ошибка выборки записей не превращается в пустую викторину, а возвращается вызывающему
	recordRepo := new(MockRecordRepository)
	repoErr := errors.New("connection refused")
	recordRepo.On("GetByUserID", uint(1)).Return(nil, repoErr)
	svc := newTestQuizService(t, recordRepo)

	state, err := svc.StartSession(1)

	assert.Nil(t, state)
	assert.ErrorIs(t, err, repoErr)
	assert.Equal(t, 0, svc.ActiveSessions(), "Сессия не должна регистрироваться при ошибке репозитория")
}

func TestQuizService_FullRound(t *testing.T) {
	// Arrange
	recordRepo := new(MockRecordRepository)
	recordRepo.On("GetByUserID", uint(1)).Return(quizTestRecords(), nil)
	svc := newTestQuizService(t, recordRepo)

	state, err := svc.StartSession(1)
	require.NoError(t, err)
	sessionID := state.SessionID

	// Act: правильный ответ на первый вопрос
	question, err := svc.CurrentQuestion(sessionID, 1)
	require.NoError(t, err)
	require.Contains(t, question.Options, question.Answer, "Ответ всегда присутствует среди вариантов")

	feedback, state, err := svc.SubmitAnswer(sessionID, 1, question.Answer)
	require.NoError(t, err)
	assert.True(t, feedback.Correct)
	assert.Equal(t, quiz.PointsPerCorrect, feedback.PointsEarned)
	assert.Equal(t, quiz.PointsPerCorrect, state.Score)
	assert.Equal(t, 1, state.CurrentIndex)

	// Неправильный ответ на второй вопрос
	question, err = svc.CurrentQuestion(sessionID, 1)
	require.NoError(t, err)

	feedback, state, err = svc.SubmitAnswer(sessionID, 1, "definitely-wrong-option")
	require.NoError(t, err)
	assert.False(t, feedback.Correct)
	assert.Equal(t, question.Answer, feedback.CorrectAnswer, "При ошибке возвращается правильный ответ")
	assert.True(t, state.Finished)

	// Assert: итог доступен только после завершения
	result, err := svc.SessionResult(sessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, quiz.PointsPerCorrect, result.Score)
	assert.Equal(t, 2, result.Total)
	require.NotNil(t, result.Accuracy)
	assert.InDelta(t, 0.5, *result.Accuracy, 1e-9)
}

func TestQuizService_SubmitAnswer_AfterFinish(t *testing.T) {
	recordRepo := new(MockRecordRepository)
	recordRepo.On("GetByUserID", uint(1)).Return(quizTestRecords()[:1], nil)
	svc := newTestQuizService(t, recordRepo)

	state, err := svc.StartSession(1)
	require.NoError(t, err)

	question, err := svc.CurrentQuestion(state.SessionID, 1)
	require.NoError(t, err)
	_, _, err = svc.SubmitAnswer(state.SessionID, 1, question.Answer)
	require.NoError(t, err)

	// Сессия завершена, следующий ответ — нарушение контракта
	_, _, err = svc.SubmitAnswer(state.SessionID, 1, "anything")
	assert.ErrorIs(t, err, quiz.ErrSessionFinished)
}

func TestQuizService_Restart(t *testing.T) {
	// Arrange: завершаем сессию из одного вопроса
	recordRepo := new(MockRecordRepository)
	recordRepo.On("GetByUserID", uint(1)).Return(quizTestRecords()[:1], nil)
	svc := newTestQuizService(t, recordRepo)

	state, err := svc.StartSession(1)
	require.NoError(t, err)

	firstQuestion, err := svc.CurrentQuestion(state.SessionID, 1)
	require.NoError(t, err)
	_, _, err = svc.SubmitAnswer(state.SessionID, 1, firstQuestion.Answer)
	require.NoError(t, err)

	// Act
	state, err = svc.RestartSession(state.SessionID, 1)
	require.NoError(t, err)

	// Assert: прогресс сброшен, порядок вопросов сохранен
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, 0, state.Score)
	assert.False(t, state.Finished)

	restartedQuestion, err := svc.CurrentQuestion(state.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, firstQuestion, restartedQuestion, "Перезапуск не перемешивает вопросы")
}

func TestQuizService_OwnershipAndLifecycle(t *testing.T) {
	recordRepo := new(MockRecordRepository)
	recordRepo.On("GetByUserID", uint(1)).Return(quizTestRecords(), nil)
	svc := newTestQuizService(t, recordRepo)

	state, err := svc.StartSession(1)
	require.NoError(t, err)

	// Чужой пользователь не видит сессию
	_, err = svc.GetSession(state.SessionID, 2)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Несуществующая сессия
	_, err = svc.GetSession("missing-session", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Завершение удаляет сессию
	require.NoError(t, svc.EndSession(state.SessionID, 1))
	assert.Equal(t, 0, svc.ActiveSessions())

	_, err = svc.GetSession(state.SessionID, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuizService_JanitorEvictsExpired(t *testing.T) {
	recordRepo := new(MockRecordRepository)
	recordRepo.On("GetByUserID", uint(1)).Return(quizTestRecords(), nil)

	svc, err := NewQuizService(recordRepo, time.Millisecond)
	require.NoError(t, err)

	_, err = svc.StartSession(1)
	require.NoError(t, err)
	require.Equal(t, 1, svc.ActiveSessions())

	time.Sleep(5 * time.Millisecond)
	removed := svc.evictExpired()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, svc.ActiveSessions())
}
