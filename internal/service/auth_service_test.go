package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/wordscope-api/internal/domain/entity"
	apperrors "github.com/yourusername/wordscope-api/internal/pkg/errors"
	"github.com/yourusername/wordscope-api/pkg/auth"
)

// ============================================================================
// Моки для тестирования AuthService
// ============================================================================

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateReminder(userID uint, enabled bool, hourUTC int) error {
	args := m.Called(userID, enabled, hourUTC)
	return args.Error(0)
}

func (m *MockUserRepository) GetReminderCandidates(hourUTC int) ([]entity.User, error) {
	args := m.Called(hourUTC)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

// MockRefreshTokenRepository реализует repository.RefreshTokenRepository
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(token *entity.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) GetByHash(tokenHash string) (*entity.RefreshToken, error) {
	args := m.Called(tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Update(token *entity.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteExpired() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Вспомогательные функции
// ============================================================================

func newTestAuthService(t *testing.T, userRepo *MockUserRepository, tokenRepo *MockRefreshTokenRepository) *AuthService {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret", 24)
	require.NoError(t, err)

	svc, err := NewAuthService(userRepo, tokenRepo, jwtService, 30*24*time.Hour)
	require.NoError(t, err)
	return svc
}

func hashedPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// ============================================================================
// Тесты
// ============================================================================

func TestAuthService_RegisterUser_Success(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	userRepo.On("GetByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)
	userRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.User).ID = 1
	})

	// Act
	user, err := svc.RegisterUser(RegisterInput{
		Username: "newuser",
		Email:    "New@Example.COM",
		Password: "password123",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, "new@example.com", user.Email, "Email должен быть нормализован")
	assert.True(t, user.ReminderEnabled, "Напоминания включены по умолчанию")
	assert.Equal(t, entity.DefaultReminderHourUTC, user.ReminderHourUTC)
	userRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	existing := &entity.User{ID: 5, Email: "taken@example.com"}
	userRepo.On("GetByEmail", "taken@example.com").Return(existing, nil)

	user, err := svc.RegisterUser(RegisterInput{
		Username: "someone",
		Email:    "taken@example.com",
		Password: "password123",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_RegisterUser_Validation(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"пустой username", RegisterInput{Email: "a@b.com", Password: "password123"}},
		{"пустой email", RegisterInput{Username: "user", Password: "password123"}},
		{"короткий пароль", RegisterInput{Username: "user", Email: "a@b.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.RegisterUser(tt.input)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestAuthService_LoginUser_Success(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	stored := &entity.User{
		ID:       1,
		Username: "user",
		Email:    "user@example.com",
		Password: hashedPassword(t, "password123"),
	}
	userRepo.On("GetByEmail", "user@example.com").Return(stored, nil)
	tokenRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	// Act
	user, pair, err := svc.LoginUser("user@example.com", "password123", "device-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 24*3600, pair.ExpiresIn)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	stored := &entity.User{
		ID:       1,
		Email:    "user@example.com",
		Password: hashedPassword(t, "correct-password"),
	}
	userRepo.On("GetByEmail", "user@example.com").Return(stored, nil)

	user, pair, err := svc.LoginUser("user@example.com", "wrong-password", "device-1")

	assert.Nil(t, user)
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_LoginUser_UnknownEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	userRepo.On("GetByEmail", "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.LoginUser("ghost@example.com", "password123", "device-1")

	// Не раскрываем, существует ли email
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_RefreshTokens_Success(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	rawToken, tokenHash, err := auth.GenerateRefreshToken()
	require.NoError(t, err)

	stored := entity.NewRefreshToken(1, tokenHash, "device-1", time.Now().Add(time.Hour))
	tokenRepo.On("GetByHash", tokenHash).Return(stored, nil)
	userRepo.On("GetByID", uint(1)).Return(&entity.User{ID: 1, Email: "user@example.com"}, nil)
	tokenRepo.On("Update", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)
	tokenRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	// Act
	pair, err := svc.RefreshTokens(rawToken, "device-1")

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, rawToken, pair.RefreshToken, "Refresh токен должен быть ротирован")
	assert.NotNil(t, stored.RevokedAt, "Старый токен должен быть отозван")
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	rawToken, tokenHash, err := auth.GenerateRefreshToken()
	require.NoError(t, err)

	expired := entity.NewRefreshToken(1, tokenHash, "device-1", time.Now().Add(-time.Hour))
	tokenRepo.On("GetByHash", tokenHash).Return(expired, nil)

	pair, err := svc.RefreshTokens(rawToken, "device-1")

	assert.Nil(t, pair)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	tokenRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_RefreshTokens_Unknown(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	tokenRepo.On("GetByHash", mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)

	pair, err := svc.RefreshTokens("completely-unknown-token", "device-1")

	assert.Nil(t, pair)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_LogoutUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	tokenRepo.On("RevokeAllForUser", uint(7)).Return(nil)

	err := svc.LogoutUser(7)

	require.NoError(t, err)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_UpdateReminderSettings_InvalidHour(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo)

	err := svc.UpdateReminderSettings(1, true, 24)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	userRepo.AssertNotCalled(t, "UpdateReminder", mock.Anything, mock.Anything, mock.Anything)
}
