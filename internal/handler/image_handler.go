package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/wordscope-api/internal/middleware"
	"github.com/yourusername/wordscope-api/internal/service"
	"github.com/yourusername/wordscope-api/internal/storage"
)

// Поддерживаемые типы изображений
var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// ImageHandler обрабатывает загрузку и анализ изображений
type ImageHandler struct {
	uploader        storage.Uploader
	analysisService *service.AnalysisService
	maxUploadBytes  int64
}

// NewImageHandler создает новый обработчик изображений
func NewImageHandler(uploader storage.Uploader, analysisService *service.AnalysisService, maxUploadBytes int64) *ImageHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20 // 10 MiB
	}
	return &ImageHandler{
		uploader:        uploader,
		analysisService: analysisService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// AnalyzeRequest представляет запрос на анализ уже загруженного изображения
type AnalyzeRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
}

// Upload принимает multipart-файл, кладет его в хранилище и возвращает URL
func (h *ImageHandler) Upload(c *gin.Context) {
	userID := middleware.UserID(c)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image is too large"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	contentType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	if _, ok := allowedImageTypes[contentType]; !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only jpeg, png and webp images are supported"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("[ImageHandler] Ошибка открытия загруженного файла: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	url, err := h.uploader.UploadImage(c.Request.Context(), userID, contentType, file)
	if err != nil {
		log.Printf("[ImageHandler] Ошибка загрузки в хранилище: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store image"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image_url": url})
}

// Analyze ставит изображение в очередь на анализ vision-моделью
func (h *ImageHandler) Analyze(c *gin.Context) {
	userID := middleware.UserID(c)

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.analysisService.Enqueue(c.Request.Context(), userID, req.ImageURL)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// JobStatus возвращает состояние задачи анализа
func (h *ImageHandler) JobStatus(c *gin.Context) {
	userID := middleware.UserID(c)
	jobID := c.Param("id")

	job, err := h.analysisService.GetJob(c.Request.Context(), jobID, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}
