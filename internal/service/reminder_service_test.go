package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
)

// recordingEmailSender запоминает отправленные письма
type recordingEmailSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingEmailSender) SendReminder(ctx context.Context, toEmail, username string, recordCount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, toEmail)
	return nil
}

func (s *recordingEmailSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

func newTestReminderService(t *testing.T, userRepo *MockUserRepository, recordRepo *MockRecordRepository, cache *memoryCache, sender EmailSender) *ReminderService {
	t.Helper()
	svc, err := NewReminderService(userRepo, recordRepo, cache, sender)
	require.NoError(t, err)
	return svc
}

func TestReminderService_RunOnce_SendsToCandidates(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	recordRepo := new(MockRecordRepository)
	sender := &recordingEmailSender{}
	svc := newTestReminderService(t, userRepo, recordRepo, newMemoryCache(), sender)

	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	users := []entity.User{
		{ID: 1, Username: "alice", Email: "alice@example.com", ReminderEnabled: true, ReminderHourUTC: 10},
		{ID: 2, Username: "bob", Email: "bob@example.com", ReminderEnabled: true, ReminderHourUTC: 10},
	}
	userRepo.On("GetReminderCandidates", 10).Return(users, nil)
	recordRepo.On("CountByUserID", uint(1)).Return(int64(3), nil)
	recordRepo.On("CountByUserID", uint(2)).Return(int64(7), nil)

	// Act
	svc.RunOnce(context.Background(), now)

	// Assert
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, sender.sentTo())
}

func TestReminderService_RunOnce_DedupPerDay(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	recordRepo := new(MockRecordRepository)
	sender := &recordingEmailSender{}
	svc := newTestReminderService(t, userRepo, recordRepo, newMemoryCache(), sender)

	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	users := []entity.User{
		{ID: 1, Username: "alice", Email: "alice@example.com", ReminderEnabled: true, ReminderHourUTC: 10},
	}
	userRepo.On("GetReminderCandidates", 10).Return(users, nil)
	recordRepo.On("CountByUserID", uint(1)).Return(int64(3), nil)

	// Act: два прогона в один и тот же день
	svc.RunOnce(context.Background(), now)
	svc.RunOnce(context.Background(), now.Add(time.Minute))

	// Assert: письмо отправлено только один раз
	assert.Len(t, sender.sentTo(), 1, "SetNX должен предотвратить повторную отправку")
}

func TestReminderService_RunOnce_SkipsUsersWithoutRecords(t *testing.T) {
	userRepo := new(MockUserRepository)
	recordRepo := new(MockRecordRepository)
	sender := &recordingEmailSender{}
	svc := newTestReminderService(t, userRepo, recordRepo, newMemoryCache(), sender)

	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	users := []entity.User{
		{ID: 1, Username: "empty", Email: "empty@example.com", ReminderEnabled: true, ReminderHourUTC: 10},
	}
	userRepo.On("GetReminderCandidates", 10).Return(users, nil)
	recordRepo.On("CountByUserID", uint(1)).Return(int64(0), nil)

	svc.RunOnce(context.Background(), now)

	assert.Empty(t, sender.sentTo(), "Пользователям без записей письмо не отправляется")
}

func TestReminderDedupKey_ChangesByDay(t *testing.T) {
	day1 := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	assert.NotEqual(t, reminderDedupKey(1, day1), reminderDedupKey(1, day2))
	assert.NotEqual(t, reminderDedupKey(1, day1), reminderDedupKey(2, day1))
}
