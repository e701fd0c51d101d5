package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
	"github.com/yourusername/wordscope-api/internal/domain/repository"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
	"github.com/yourusername/wordscope-api/pkg/auth"
)

// AuthService предоставляет методы для работы с аутентификацией и пользователями
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtService       *auth.JWTService
	refreshLifetime  time.Duration
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtService *auth.JWTService,
	refreshLifetime time.Duration,
) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if refreshTokenRepo == nil {
		return nil, fmt.Errorf("RefreshTokenRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}
	if refreshLifetime <= 0 {
		refreshLifetime = 30 * 24 * time.Hour
	}

	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtService:       jwtService,
		refreshLifetime:  refreshLifetime,
	}, nil
}

// RegisterInput содержит все данные для регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair содержит пару токенов для ответа на запрос авторизации
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RegisterUser регистрирует нового пользователя
func (s *AuthService) RegisterUser(input RegisterInput) (*entity.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)

	if input.Username == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrValidation)
	}
	if input.Email == "" {
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	// Проверяем, существует ли пользователь с таким email
	_, err := s.userRepo.GetByEmail(input.Email)
	if err == nil {
		return nil, fmt.Errorf("%w: user with this email already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}

	user := &entity.User{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ReminderEnabled: true,
		ReminderHourUTC: entity.DefaultReminderHourUTC,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь ID=%d (%s)", user.ID, user.Email)
	return user, nil
}

// LoginUser аутентифицирует пользователя и возвращает пару токенов
func (s *AuthService) LoginUser(email, password, deviceID string) (*entity.User, *TokenPair, error) {
	email = normalizeEmail(email)

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AuthService] Попытка входа с неизвестным email: %s", email)
			return nil, nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !user.CheckPassword(password) {
		log.Printf("[AuthService] Неверный пароль для пользователя ID=%d", user.ID)
		return nil, nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}

	pair, err := s.issueTokenPair(user, deviceID)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[AuthService] Пользователь ID=%d (%s) успешно вошел в систему", user.ID, user.Email)
	return user, pair, nil
}

// RefreshTokens обновляет пару токенов, используя refresh токен.
// Старый refresh токен отзывается (одноразовая ротация).
func (s *AuthService) RefreshTokens(refreshToken, deviceID string) (*TokenPair, error) {
	hash := auth.HashRefreshToken(refreshToken)

	stored, err := s.refreshTokenRepo.GetByHash(hash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: refresh token not found", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if !stored.IsValid() {
		log.Printf("[AuthService] Отклонен недействительный refresh токен пользователя ID=%d", stored.UserID)
		return nil, fmt.Errorf("%w: refresh token expired or revoked", apperrors.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get token owner: %w", err)
	}

	stored.Revoke()
	if err := s.refreshTokenRepo.Update(stored); err != nil {
		return nil, fmt.Errorf("failed to revoke old refresh token: %w", err)
	}

	pair, err := s.issueTokenPair(user, deviceID)
	if err != nil {
		return nil, err
	}

	log.Printf("[AuthService] Токены успешно обновлены для пользователя ID=%d", user.ID)
	return pair, nil
}

// LogoutUser отзывает все refresh токены пользователя
func (s *AuthService) LogoutUser(userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllForUser(userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	log.Printf("[AuthService] Пользователь ID=%d вышел из системы", userID)
	return nil
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateReminderSettings меняет настройки ежедневного напоминания пользователя
func (s *AuthService) UpdateReminderSettings(userID uint, enabled bool, hourUTC int) error {
	if hourUTC < 0 || hourUTC > 23 {
		return fmt.Errorf("%w: reminder hour must be between 0 and 23", apperrors.ErrValidation)
	}
	return s.userRepo.UpdateReminder(userID, enabled, hourUTC)
}

func (s *AuthService) issueTokenPair(user *entity.User, deviceID string) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Printf("[AuthService] Ошибка генерации access токена для пользователя ID=%d: %v", user.ID, err)
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, tokenHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	record := entity.NewRefreshToken(user.ID, tokenHash, deviceID, time.Now().Add(s.refreshLifetime))
	if err := s.refreshTokenRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwtService.AccessTokenLifetimeSeconds(),
	}, nil
}

// normalizeEmail приводит email к нижнему регистру и убирает пробелы
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
