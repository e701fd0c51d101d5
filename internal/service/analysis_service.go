package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/wordscope-api/internal/domain/repository"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
	"github.com/yourusername/wordscope-api/internal/vision"
)

// Статусы задачи анализа изображения
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// jobStatusTTL — сколько статус задачи хранится в Redis после создания
const jobStatusTTL = 24 * time.Hour

// AnalysisJob представляет задачу анализа изображения
type AnalysisJob struct {
	ID          string    `json:"id"`
	UserID      uint      `json:"user_id"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status"`
	RecordID    uint      `json:"record_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Notifier доставляет событие конкретному пользователю (обычно через WebSocket)
type Notifier interface {
	NotifyUser(userID uint, eventType string, payload interface{})
}

// AnalysisService управляет фоновым анализом изображений: очередь задач,
// пул воркеров, кеширование результатов vision-модели в Redis и уведомление
// пользователя о готовности записи.
type AnalysisService struct {
	visionClient  vision.Client
	recordService *RecordService
	cacheRepo     repository.CacheRepository
	notifier      Notifier

	queue    chan *AnalysisJob
	workers  int
	cacheTTL time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once

	// mu защищает stopped и отправку в queue: после закрытия очереди
	// Enqueue не должен паниковать на send в закрытый канал
	mu      sync.Mutex
	stopped bool
}

// NewAnalysisService создает новый сервис анализа
func NewAnalysisService(
	visionClient vision.Client,
	recordService *RecordService,
	cacheRepo repository.CacheRepository,
	notifier Notifier,
	workers int,
	queueSize int,
	cacheTTL time.Duration,
) (*AnalysisService, error) {
	if visionClient == nil {
		return nil, fmt.Errorf("vision.Client is required for AnalysisService")
	}
	if recordService == nil {
		return nil, fmt.Errorf("RecordService is required for AnalysisService")
	}
	if cacheRepo == nil {
		return nil, fmt.Errorf("CacheRepository is required for AnalysisService")
	}
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	return &AnalysisService{
		visionClient:  visionClient,
		recordService: recordService,
		cacheRepo:     cacheRepo,
		notifier:      notifier,
		queue:         make(chan *AnalysisJob, queueSize),
		workers:       workers,
		cacheTTL:      cacheTTL,
	}, nil
}

// Start запускает воркеров. Отмена ctx закрывает очередь: воркеры добирают
// уже принятые задачи, а новые задачи отклоняются.
func (s *AnalysisService) Start(ctx context.Context) {
	log.Printf("[AnalysisService] Запуск %d воркеров анализа изображений", s.workers)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()
}

// Stop закрывает очередь и дожидается, пока воркеры доберут принятые задачи
func (s *AnalysisService) Stop() {
	s.shutdown()
	s.wg.Wait()
	log.Printf("[AnalysisService] Все воркеры остановлены")
}

func (s *AnalysisService) shutdown() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		close(s.queue)
		s.mu.Unlock()
	})
}

// Enqueue ставит изображение в очередь на анализ и возвращает задачу со статусом pending
func (s *AnalysisService) Enqueue(ctx context.Context, userID uint, imageURL string) (*AnalysisJob, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image url is required", apperrors.ErrValidation)
	}

	job := &AnalysisJob{
		ID:        uuid.New().String(),
		UserID:    userID,
		ImageURL:  imageURL,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save analysis job: %w", err)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		job.Status = JobStatusFailed
		job.Error = "analysis service is shutting down"
		_ = s.saveJob(ctx, job)
		return nil, fmt.Errorf("%w: analysis service is shutting down", apperrors.ErrServiceUnavailable)
	}

	select {
	case s.queue <- job:
		s.mu.Unlock()
		log.Printf("[AnalysisService] Задача %s поставлена в очередь (пользователь ID=%d)", job.ID, userID)
		return job, nil
	default:
		s.mu.Unlock()
		// Очередь переполнена, не блокируем HTTP-запрос
		job.Status = JobStatusFailed
		job.Error = "analysis queue is full"
		_ = s.saveJob(ctx, job)
		return nil, fmt.Errorf("%w: analysis queue is full", apperrors.ErrServiceUnavailable)
	}
}

// GetJob возвращает задачу по ID с проверкой владельца
func (s *AnalysisService) GetJob(ctx context.Context, jobID string, userID uint) (*AnalysisJob, error) {
	var job AnalysisJob
	if err := s.cacheRepo.GetJSON(ctx, jobKey(jobID), &job); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: analysis job not found", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load analysis job: %w", err)
	}
	if job.UserID != userID {
		return nil, fmt.Errorf("%w: job belongs to another user", apperrors.ErrForbidden)
	}
	return &job, nil
}

// worker выбирает задачи из очереди до её закрытия. Принятую задачу нельзя
// бросить в статусе pending: после отмены ctx оставшиеся задачи помечаются
// как failed, чтобы клиенты не опрашивали их до истечения TTL.
func (s *AnalysisService) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	for job := range s.queue {
		if ctx.Err() != nil {
			s.abandon(job)
			continue
		}
		s.process(ctx, job)
	}
	log.Printf("[AnalysisService] Воркер %d остановлен", id)
}

func (s *AnalysisService) abandon(job *AnalysisJob) {
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.fail(saveCtx, job, errors.New("analysis service is shutting down"))
}

func (s *AnalysisService) process(ctx context.Context, job *AnalysisJob) {
	job.Status = JobStatusProcessing
	if err := s.saveJob(ctx, job); err != nil {
		log.Printf("[AnalysisService] Ошибка сохранения статуса задачи %s: %v", job.ID, err)
	}

	result, err := s.analyzeWithCache(ctx, job.ImageURL)
	if err != nil {
		s.fail(ctx, job, err)
		return
	}

	record, err := s.recordService.CreateFromAnalysis(job.UserID, job.ImageURL, result.Description, result.PossibleItems)
	if err != nil {
		s.fail(ctx, job, err)
		return
	}

	job.Status = JobStatusCompleted
	job.RecordID = record.ID
	job.CompletedAt = time.Now()
	if err := s.saveJob(ctx, job); err != nil {
		log.Printf("[AnalysisService] Ошибка сохранения результата задачи %s: %v", job.ID, err)
	}

	if s.notifier != nil {
		s.notifier.NotifyUser(job.UserID, "record:analyzed", map[string]interface{}{
			"job_id":    job.ID,
			"record_id": record.ID,
			"tag_count": record.TagCount(),
		})
	}

	log.Printf("[AnalysisService] Задача %s завершена: запись ID=%d (%d тегов)", job.ID, record.ID, record.TagCount())
}

// analyzeWithCache возвращает кешированный результат анализа или вызывает vision-модель
func (s *AnalysisService) analyzeWithCache(ctx context.Context, imageURL string) (*vision.AnalysisResult, error) {
	key := analysisCacheKey(imageURL)

	var cached vision.AnalysisResult
	err := s.cacheRepo.GetJSON(ctx, key, &cached)
	if err == nil {
		log.Printf("[AnalysisService] Результат анализа взят из кеша: %s", key)
		return &cached, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		// Проблема с Redis не должна блокировать анализ
		log.Printf("[AnalysisService] Ошибка чтения кеша %s: %v", key, err)
	}

	result, err := s.visionClient.AnalyzeImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SetJSON(ctx, key, result, s.cacheTTL); err != nil {
		log.Printf("[AnalysisService] Ошибка записи кеша %s: %v", key, err)
	}
	return result, nil
}

func (s *AnalysisService) fail(ctx context.Context, job *AnalysisJob, cause error) {
	job.Status = JobStatusFailed
	job.Error = cause.Error()
	job.CompletedAt = time.Now()
	if err := s.saveJob(ctx, job); err != nil {
		log.Printf("[AnalysisService] Ошибка сохранения неудачной задачи %s: %v", job.ID, err)
	}

	if s.notifier != nil {
		s.notifier.NotifyUser(job.UserID, "record:analysis_failed", map[string]interface{}{
			"job_id": job.ID,
			"error":  job.Error,
		})
	}

	log.Printf("[AnalysisService] Задача %s завершилась с ошибкой: %v", job.ID, cause)
}

func (s *AnalysisService) saveJob(ctx context.Context, job *AnalysisJob) error {
	return s.cacheRepo.SetJSON(ctx, jobKey(job.ID), job, jobStatusTTL)
}

func jobKey(jobID string) string {
	return "analysis:job:" + jobID
}

func analysisCacheKey(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return "analysis:result:" + hex.EncodeToString(sum[:])
}
