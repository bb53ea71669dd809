package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/repositories"
)

// AuthService регистрирует тренеров и проверяет вход.
//
// Пароли сознательно сравниваются открытым текстом: это поведение
// исходного сообщества, усиление аутентификации не входит в задачи
// системы.
type AuthService interface {
	Register(ctx context.Context, nick, password string) (*models.Trainer, error)
	Login(ctx context.Context, creds models.Credentials) (*models.Trainer, error)
}

type authService struct {
	trainerRepo repositories.TrainerRepository
}

func NewAuthService(trainerRepo repositories.TrainerRepository) AuthService {
	return &authService{trainerRepo: trainerRepo}
}

func (s *authService) Register(ctx context.Context, nick, password string) (*models.Trainer, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return nil, ErrNickRequired
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidationFailed)
	}

	// Уникальность ника без учёта регистра; гонку с параллельной
	// регистрацией добивает unique-индекс в Create.
	if _, err := s.trainerRepo.GetByNick(ctx, nick); err == nil {
		return nil, ErrNickTaken
	} else if !errors.Is(err, repositories.ErrTrainerNotFound) {
		return nil, fmt.Errorf("failed to check nick availability: %w", err)
	}

	trainer := &models.Trainer{
		Nick:     nick,
		Password: password,
		Role:     models.RoleTrainer,
		Badges:   []string{},
	}

	if err := s.trainerRepo.Create(ctx, trainer); err != nil {
		if errors.Is(err, repositories.ErrTrainerNickConflict) {
			return nil, ErrNickTaken
		}
		return nil, fmt.Errorf("failed to create trainer: %w", err)
	}
	return trainer, nil
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByNick(ctx, creds.Nick)
	if err != nil {
		if errors.Is(err, repositories.ErrTrainerNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, fmt.Errorf("failed to load trainer: %w", err)
	}

	if trainer.Password != creds.Password {
		return nil, ErrInvalidCredentials
	}
	return trainer, nil
}
