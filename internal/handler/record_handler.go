package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
	"github.com/yourusername/wordscope-api/internal/handler/dto"
	"github.com/yourusername/wordscope-api/internal/middleware"
	"github.com/yourusername/wordscope-api/internal/service"
)

// RecordHandler обрабатывает запросы к записям словаря
type RecordHandler struct {
	recordService *service.RecordService
}

// NewRecordHandler создает новый обработчик записей
func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// CreateRecordRequest представляет запрос на создание записи вручную
type CreateRecordRequest struct {
	ImageURL    string `json:"image_url" binding:"required,url"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Tags        []struct {
		Answer      string   `json:"answer" binding:"required,min=1,max=100"`
		Distractors []string `json:"distractors" binding:"omitempty,max=10,dive,max=100"`
	} `json:"tags" binding:"required,min=1,max=10,dive"`
}

// List возвращает все записи пользователя, новые первыми
func (h *RecordHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)

	records, err := h.recordService.GetUserRecords(userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": dto.NewRecordListResponse(records),
		"count":   len(records),
	})
}

// Get возвращает одну запись
func (h *RecordHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	recordID := c.MustGet("recordID").(uint)

	record, err := h.recordService.GetRecord(recordID, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRecordResponse(record))
}

// Create создает запись с тегами, заданными вручную
func (h *RecordHandler) Create(c *gin.Context) {
	userID := middleware.UserID(c)

	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tags := make(entity.TagArray, len(req.Tags))
	for i, t := range req.Tags {
		tags[i] = entity.VocabularyTag{Answer: t.Answer, Distractors: t.Distractors}
	}

	record, err := h.recordService.CreateManual(userID, req.ImageURL, req.Description, tags)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRecordResponse(record))
}

// Delete удаляет запись
func (h *RecordHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	recordID := c.MustGet("recordID").(uint)

	if err := h.recordService.DeleteRecord(recordID, userID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
}

// Export выгружает словарь пользователя в CSV или XLSX
func (h *RecordHandler) Export(c *gin.Context) {
	userID := middleware.UserID(c)
	format := c.DefaultQuery("format", "csv")

	records, err := h.recordService.GetUserRecords(userID)
	if err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("vocabulary_%s", time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, records, filename)
	default:
		h.exportCSV(c, records, filename)
	}
}

// exportCSV экспортирует записи в CSV с правильным экранированием спецсимволов
func (h *RecordHandler) exportCSV(c *gin.Context, records []entity.VocabularyRecord, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Record ID", "Word", "Distractors", "Image URL", "Description", "Created At"})

	for _, r := range records {
		for _, tag := range r.Tags {
			writer.Write([]string{
				fmt.Sprintf("%d", r.ID),
				sanitizeForExcel(tag.Answer),
				sanitizeForExcel(strings.Join(tag.Distractors, "; ")),
				r.ImageURL,
				sanitizeForExcel(r.Description),
				r.CreatedAt.Format(time.RFC3339),
			})
		}
	}
}

// exportXLSX экспортирует записи в Excel с использованием StreamWriter
func (h *RecordHandler) exportXLSX(c *gin.Context, records []entity.VocabularyRecord, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Vocabulary"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RecordHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Record ID", "Word", "Distractors", "Image URL", "Description", "Created At"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[RecordHandler] Ошибка записи заголовков: %v", err)
	}

	rowNum := 2
	for _, r := range records {
		for _, tag := range r.Tags {
			cell := fmt.Sprintf("A%d", rowNum)
			row := []interface{}{
				r.ID,
				sanitizeForExcel(tag.Answer),
				sanitizeForExcel(strings.Join(tag.Distractors, "; ")),
				r.ImageURL,
				sanitizeForExcel(r.Description),
				r.CreatedAt.Format(time.RFC3339),
			}
			if err := sw.SetRow(cell, row); err != nil {
				log.Printf("[RecordHandler] Ошибка записи строки %d: %v", rowNum, err)
			}
			rowNum++
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RecordHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RecordHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
