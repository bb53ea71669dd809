package services

import "errors"

// Общие ошибки сервисного слоя и маппинга HTTP. Классы соответствуют
// поведению, которое видит клиент: валидация, конфликт состояния,
// отсутствие сущности, нарушение правила без пути восстановления.
var (
	// Валидация входа
	ErrValidationFailed = errors.New("validation failed")
	ErrNickRequired     = errors.New("nick is required")
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidFormat    = errors.New("unknown tournament format")
	ErrInvalidTeamSize  = errors.New("doubles team must contain exactly 4 pokemon")
	ErrInvalidSlotIndex = errors.New("team slot index out of range")
	ErrInvalidResult    = errors.New("unknown battle result")

	// Конфликты уникальности и состояния
	ErrNickTaken              = errors.New("nick is already in use")
	ErrAlreadyRegistered      = errors.New("trainer is already registered for this tournament")
	ErrTournamentNotPending   = errors.New("tournament registration is closed")
	ErrDuplicatePendingInvite = errors.New("an identical invite is already pending")
	ErrAlreadyLeadsAGym       = errors.New("trainer already leads another gym")

	// Отсутствующие сущности
	ErrTrainerNotFound    = errors.New("trainer not found")
	ErrGymNotFound        = errors.New("gym not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrInviteNotFound     = errors.New("invite not found")

	// Нарушения бизнес-правил: операция отклонена, состояние не тронуто
	ErrBanLimitExceeded     = errors.New("ban limit reached for this side")
	ErrOddParticipantCount  = errors.New("participant count must be even")
	ErrInvalidPlayerCount   = errors.New("participant count out of allowed range")
	ErrUnpairedParticipants = errors.New("every participant needs a confirmed partner")
	ErrIncompleteTeam       = errors.New("gym team must have all 6 slots filled")
	ErrNotAGymLeader        = errors.New("trainer does not lead any gym")
	ErrInviteResolved       = errors.New("invite was already answered")

	// Аутентификация и доступ
	ErrInvalidCredentials = errors.New("wrong password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current trainer")
)
