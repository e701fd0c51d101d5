package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
	"github.com/yourusername/wordscope-api/internal/domain/repository"
)

// EmailSender sends transactional emails.
type EmailSender interface {
	SendReminder(ctx context.Context, toEmail, username string, recordCount int64) error
}

// NoopEmailSender is used when email reminders are disabled.
type NoopEmailSender struct{}

func (s *NoopEmailSender) SendReminder(ctx context.Context, toEmail, username string, recordCount int64) error {
	log.Printf("[EmailSender] noop send reminder to=%s", toEmail)
	return nil
}

// ResendEmailSender sends emails via Resend REST API.
type ResendEmailSender struct {
	from   string
	client *resend.Client
}

func NewResendEmailSender(apiKey, from string) (*ResendEmailSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailSender{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailSender) SendReminder(ctx context.Context, toEmail, username string, recordCount int64) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Time to review your vocabulary",
		Text: fmt.Sprintf("Hi %s, you have %d photo records in your vocabulary. Take a quick quiz to keep those words fresh!",
			username, recordCount),
		Html: fmt.Sprintf("<p>Hi %s,</p><p>You have <strong>%d</strong> photo records in your vocabulary.</p><p>Take a quick quiz to keep those words fresh!</p>",
			username, recordCount),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

// reminderDedupTTL не дает отправить пользователю больше одного письма в сутки
const reminderDedupTTL = 25 * time.Hour

// ReminderService рассылает ежедневные напоминания об изучении слов.
// Каждый час выбирает пользователей, у которых наступил их час напоминания,
// и отправляет письмо. Дедупликация через Redis SetNX защищает от повторной
// отправки при нескольких инстансах сервиса.
type ReminderService struct {
	userRepo    repository.UserRepository
	recordRepo  repository.RecordRepository
	cacheRepo   repository.CacheRepository
	emailSender EmailSender
}

// NewReminderService создает новый сервис напоминаний
func NewReminderService(
	userRepo repository.UserRepository,
	recordRepo repository.RecordRepository,
	cacheRepo repository.CacheRepository,
	emailSender EmailSender,
) (*ReminderService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for ReminderService")
	}
	if recordRepo == nil {
		return nil, fmt.Errorf("RecordRepository is required for ReminderService")
	}
	if cacheRepo == nil {
		return nil, fmt.Errorf("CacheRepository is required for ReminderService")
	}
	if emailSender == nil {
		emailSender = &NoopEmailSender{}
	}

	return &ReminderService{
		userRepo:    userRepo,
		recordRepo:  recordRepo,
		cacheRepo:   cacheRepo,
		emailSender: emailSender,
	}, nil
}

// Start запускает часовой цикл рассылки напоминаний
func (s *ReminderService) Start(ctx context.Context) {
	go func() {
		// Выравниваемся на начало следующего часа
		now := time.Now().UTC()
		next := now.Truncate(time.Hour).Add(time.Hour)

		timer := time.NewTimer(next.Sub(now))
		defer timer.Stop()

		log.Printf("[ReminderService] Первая проверка напоминаний в %s", next.Format(time.RFC3339))

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				s.RunOnce(ctx, time.Now().UTC())
				timer.Reset(time.Hour)
			}
		}
	}()
}

// RunOnce отправляет напоминания всем пользователям, у которых час напоминания
// совпадает с часом now (UTC)
func (s *ReminderService) RunOnce(ctx context.Context, now time.Time) {
	hour := now.UTC().Hour()

	users, err := s.userRepo.GetReminderCandidates(hour)
	if err != nil {
		log.Printf("[ReminderService] Ошибка выборки кандидатов на напоминание: %v", err)
		return
	}
	if len(users) == 0 {
		return
	}

	log.Printf("[ReminderService] Кандидатов на напоминание в %02d:00 UTC: %d", hour, len(users))

	sent := 0
	for i := range users {
		if err := s.sendOne(ctx, &users[i], now); err != nil {
			log.Printf("[ReminderService] Не удалось отправить напоминание пользователю ID=%d: %v", users[i].ID, err)
			continue
		}
		sent++
	}

	log.Printf("[ReminderService] Отправлено напоминаний: %d из %d", sent, len(users))
}

func (s *ReminderService) sendOne(ctx context.Context, user *entity.User, now time.Time) error {
	key := reminderDedupKey(user.ID, now)
	acquired, err := s.cacheRepo.SetNX(ctx, key, "1", reminderDedupTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire dedup lock: %w", err)
	}
	if !acquired {
		// Другой инстанс уже отправил письмо сегодня
		return nil
	}

	count, err := s.recordRepo.CountByUserID(user.ID)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if count == 0 {
		// Нечего повторять, не беспокоим пользователя
		return nil
	}

	return s.emailSender.SendReminder(ctx, user.Email, user.Username, count)
}

func reminderDedupKey(userID uint, now time.Time) string {
	return fmt.Sprintf("reminder:%d:%s", userID, now.UTC().Format("2006-01-02"))
}
