package model

import "errors"

// Ошибки уровня пайплайна генерации и хранилища.
var (
	// ErrValidation - невалидный бриф (не заполнены обязательные поля).
	ErrValidation = errors.New("validation error")
	// ErrInsufficientCredits - на балансе пользователя меньше одного кредита.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrAIGenerationFailed - текстовый провайдер вернул ошибку. Фатально для пайплайна.
	ErrAIGenerationFailed = errors.New("ai generation failed")
	// ErrImageGenerationFailed - провайдер изображений вернул ошибку. НЕ фатально.
	ErrImageGenerationFailed = errors.New("image generation failed")
	// ErrPersistenceFailed - не удалось сохранить игру. Фатально, кредит возвращается.
	ErrPersistenceFailed = errors.New("game persistence failed")
	// ErrLedgerUpdateFailed - операция с кредитами завершилась ошибкой после сохранения игры.
	ErrLedgerUpdateFailed = errors.New("credit ledger update failed")
	// ErrGenerationInProgress - для пользователя уже выполняется генерация.
	ErrGenerationInProgress = errors.New("generation already in progress")

	ErrUserNotFound = errors.New("user not found")
	ErrGameNotFound = errors.New("game not found")
	ErrNotGameOwner = errors.New("user does not own this game")
)

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Error string `json:"error"`
}
