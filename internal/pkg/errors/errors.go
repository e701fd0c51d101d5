package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия
	// (например, доступ к чужой записи или чужой квиз-сессии).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда токен (например, refresh) истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (например, запрос результата
	// незавершённой квиз-сессии).
	ErrConflict = errors.New("resource state conflict")

	// ErrServiceUnavailable используется, когда внешний сервис (хранилище изображений,
	// vision API) недоступен или вернул ошибку.
	ErrServiceUnavailable = errors.New("external service unavailable")
)
