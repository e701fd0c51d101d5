package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/wordscope-api/internal/middleware"
	"github.com/yourusername/wordscope-api/internal/service"
)

// UserHandler обрабатывает запросы, связанные с профилем пользователя
type UserHandler struct {
	authService   *service.AuthService
	recordService *service.RecordService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(authService *service.AuthService, recordService *service.RecordService) *UserHandler {
	return &UserHandler{
		authService:   authService,
		recordService: recordService,
	}
}

// UpdateReminderRequest представляет запрос на изменение настроек напоминания
type UpdateReminderRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
	HourUTC *int  `json:"hour_utc" binding:"required"`
}

// Me возвращает профиль текущего пользователя со статистикой записей
func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		handleError(c, err)
		return
	}

	recordCount, err := h.recordService.CountUserRecords(userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"record_count": recordCount,
	})
}

// UpdateReminder меняет настройки ежедневного напоминания
func (h *UserHandler) UpdateReminder(c *gin.Context) {
	userID := middleware.UserID(c)

	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.UpdateReminderSettings(userID, *req.Enabled, *req.HourUTC); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder settings updated"})
}
