package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/wordscope-api/internal/handler/dto"
	"github.com/yourusername/wordscope-api/internal/middleware"
	"github.com/yourusername/wordscope-api/internal/service"
)

// QuizHandler обрабатывает жизненный цикл сессий викторины
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик викторины
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// SubmitAnswerRequest представляет ответ пользователя на текущий вопрос
type SubmitAnswerRequest struct {
	Choice string `json:"choice" binding:"required,max=100"`
}

// StartSession собирает викторину из записей пользователя
func (h *QuizHandler) StartSession(c *gin.Context) {
	userID := middleware.UserID(c)

	state, err := h.quizService.StartSession(userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, state)
}

// GetSession возвращает состояние сессии
func (h *QuizHandler) GetSession(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID := c.Param("id")

	state, err := h.quizService.GetSession(sessionID, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// CurrentQuestion возвращает текущий вопрос без правильного ответа
func (h *QuizHandler) CurrentQuestion(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID := c.Param("id")

	item, err := h.quizService.CurrentQuestion(sessionID, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	state, err := h.quizService.GetSession(sessionID, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuestionResponse(item, state.CurrentIndex, state.TotalItems))
}

// SubmitAnswer фиксирует ответ на текущий вопрос
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID := c.Param("id")

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feedback, state, err := h.quizService.SubmitAnswer(sessionID, userID, req.Choice)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": dto.NewFeedbackResponse(feedback),
		"session":  state,
	})
}

// Restart сбрасывает прогресс сессии, сохраняя порядок вопросов
func (h *QuizHandler) Restart(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID := c.Param("id")

	state, err := h.quizService.RestartSession(sessionID, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// Result возвращает итог завершенной сессии
func (h *QuizHandler) Result(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID := c.Param("id")

	result, err := h.quizService.SessionResult(sessionID, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewResultResponse(result))
}

// EndSession удаляет сессию
func (h *QuizHandler) EndSession(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID := c.Param("id")

	if err := h.quizService.EndSession(sessionID, userID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
}
