package services

import (
	"errors"
	"fmt"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed = errors.New("validation failed") // Общая ошибка валидации
	ErrSeatingRequired  = errors.New("game has no seating yet")

	// Ошибки конфликтов
	ErrGameConflict = errors.New("game with this number already exists at this table")
	ErrPlayerInUse  = errors.New("player has game records and cannot be deleted")

	// Ошибки, специфичные для сущностей
	ErrGameNotFound       = errors.New("game not found")
	ErrSeatNotFound       = errors.New("player is not seated in this game")
	ErrRoundNotFound      = errors.New("round not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrRosterNotFound     = errors.New("player is not in the tournament roster")

	// Загрузка файлов
	ErrUploadsDisabled  = errors.New("photo uploads are not configured")
	ErrInvalidFileType  = errors.New("only image files are allowed (jpeg, jpg, png, gif, webp)")
	ErrFileTooLarge     = errors.New("file is too large")
	ErrInvalidFileName  = errors.New("invalid file name")
	ErrStorageOperation = errors.New("storage operation failed")
)

// ValidationError описывает нарушение правила игры. Проверяется через errors.Is(err, ErrValidationFailed).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
