package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/wordscope-api/internal/domain/repository"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
	"github.com/yourusername/wordscope-api/internal/quiz"
)

// sessionEntry хранит сессию викторины вместе с данными владельца и временем активности
type sessionEntry struct {
	session    *quiz.Session
	userID     uint
	lastActive time.Time
}

// QuizService управляет жизненным циклом сессий викторины.
// Сессии эфемерны: живут в памяти процесса и удаляются janitor-ом по TTL.
type QuizService struct {
	recordRepo repository.RecordRepository
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	rng      *rand.Rand
}

// NewQuizService создает новый сервис викторины
func NewQuizService(recordRepo repository.RecordRepository, sessionTTL time.Duration) (*QuizService, error) {
	if recordRepo == nil {
		return nil, fmt.Errorf("RecordRepository is required for QuizService")
	}
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}

	return &QuizService{
		recordRepo: recordRepo,
		sessionTTL: sessionTTL,
		sessions:   make(map[string]*sessionEntry),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// SessionState — снимок состояния сессии для ответа клиенту
type SessionState struct {
	SessionID    string `json:"session_id"`
	TotalItems   int    `json:"total_items"`
	CurrentIndex int    `json:"current_index"`
	Score        int    `json:"score"`
	Finished     bool   `json:"finished"`
}

// StartSession собирает викторину из записей пользователя и регистрирует новую сессию
func (s *QuizService) StartSession(userID uint) (*SessionState, error) {
	records, err := s.recordRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for quiz: %w", err)
	}

	s.mu.Lock()
	items := quiz.Generate(records, s.rng)
	s.mu.Unlock()

	// Пустой список вопросов допустим: сессия регистрируется сразу завершенной
	sessionID := uuid.New().String()
	entry := &sessionEntry{
		session:    quiz.NewSession(items),
		userID:     userID,
		lastActive: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sessionID] = entry
	s.mu.Unlock()

	log.Printf("[QuizService] Сессия %s начата для пользователя ID=%d (%d вопросов)", sessionID, userID, len(items))
	return s.snapshot(sessionID, entry), nil
}

// GetSession возвращает состояние сессии
func (s *QuizService) GetSession(sessionID string, userID uint) (*SessionState, error) {
	entry, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sessionID, entry), nil
}

// CurrentQuestion возвращает текущий вопрос активной сессии
func (s *QuizService) CurrentQuestion(sessionID string, userID uint) (quiz.Item, error) {
	entry, err := s.lookup(sessionID, userID)
	if err != nil {
		return quiz.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return entry.session.CurrentQuestion()
}

// SubmitAnswer фиксирует ответ пользователя на текущий вопрос
func (s *QuizService) SubmitAnswer(sessionID string, userID uint, choice string) (quiz.Feedback, *SessionState, error) {
	entry, err := s.lookup(sessionID, userID)
	if err != nil {
		return quiz.Feedback{}, nil, err
	}

	s.mu.Lock()
	feedback, err := entry.session.SubmitAnswer(choice)
	s.mu.Unlock()
	if err != nil {
		return quiz.Feedback{}, nil, err
	}

	return feedback, s.snapshot(sessionID, entry), nil
}

// RestartSession сбрасывает прогресс сессии, сохраняя порядок вопросов
func (s *QuizService) RestartSession(sessionID string, userID uint) (*SessionState, error) {
	entry, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	entry.session.Restart()
	s.mu.Unlock()

	log.Printf("[QuizService] Сессия %s перезапущена пользователем ID=%d", sessionID, userID)
	return s.snapshot(sessionID, entry), nil
}

// SessionResult возвращает итог завершенной сессии
func (s *QuizService) SessionResult(sessionID string, userID uint) (quiz.Result, error) {
	entry, err := s.lookup(sessionID, userID)
	if err != nil {
		return quiz.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return entry.session.Result()
}

// EndSession удаляет сессию из реестра
func (s *QuizService) EndSession(sessionID string, userID uint) error {
	if _, err := s.lookup(sessionID, userID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	log.Printf("[QuizService] Сессия %s завершена пользователем ID=%d", sessionID, userID)
	return nil
}

// StartJanitor запускает фоновую очистку неактивных сессий
func (s *QuizService) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.evictExpired()
				if removed > 0 {
					log.Printf("[QuizService] Janitor удалил %d неактивных сессий", removed)
				}
			}
		}
	}()
}

// ActiveSessions возвращает число живых сессий (для диагностики)
func (s *QuizService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *QuizService) evictExpired() int {
	cutoff := time.Now().Add(-s.sessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sessions {
		if entry.lastActive.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// lookup находит сессию, проверяет владельца и продлевает её время жизни
func (s *QuizService) lookup(sessionID string, userID uint) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: quiz session not found", apperrors.ErrNotFound)
	}
	if entry.userID != userID {
		return nil, fmt.Errorf("%w: session belongs to another user", apperrors.ErrForbidden)
	}

	entry.lastActive = time.Now()
	return entry, nil
}

func (s *QuizService) snapshot(sessionID string, entry *sessionEntry) *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &SessionState{
		SessionID:    sessionID,
		TotalItems:   entry.session.Len(),
		CurrentIndex: entry.session.CurrentIndex(),
		Score:        entry.session.Score(),
		Finished:     entry.session.Finished(),
	}
}
