package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/repositories"
	"github.com/corazonmc/cobblemon-league/storage"
)

// TrainerService — CRUD тренеров, значки и загрузка кастомных скинов.
type TrainerService interface {
	List(ctx context.Context) ([]*models.Trainer, error)
	GetByID(ctx context.Context, id int) (*models.Trainer, error)
	Delete(ctx context.Context, id int) error

	// ToggleBadge добавляет значок, если его нет, и снимает, если есть.
	ToggleBadge(ctx context.Context, trainerID int, badgeID string) (*models.Trainer, error)

	// UploadSkin сохраняет картинку скина в объектное хранилище и
	// запоминает ключ у тренера.
	UploadSkin(ctx context.Context, trainerID int, contentType string, data io.Reader) (*models.Trainer, error)
}

type trainerService struct {
	trainerRepo repositories.TrainerRepository
	uploader    storage.FileUploader
}

func NewTrainerService(trainerRepo repositories.TrainerRepository, uploader storage.FileUploader) TrainerService {
	return &trainerService{
		trainerRepo: trainerRepo,
		uploader:    uploader,
	}
}

func (s *trainerService) List(ctx context.Context) ([]*models.Trainer, error) {
	trainers, err := s.trainerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainers: %w", err)
	}
	for _, t := range trainers {
		s.populateSkinURL(t)
	}
	return trainers, nil
}

func (s *trainerService) GetByID(ctx context.Context, id int) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTrainerNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	s.populateSkinURL(trainer)
	return trainer, nil
}

// Delete удаляет запись тренера целиком. Каскадов нет: занятые залы и
// турнирные записи продолжают ссылаться на ник — так ведёт себя и
// исходная система.
func (s *trainerService) Delete(ctx context.Context, id int) error {
	trainer, err := s.trainerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTrainerNotFound) {
			return ErrTrainerNotFound
		}
		return err
	}

	if err := s.trainerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete trainer %d: %w", id, err)
	}

	if trainer.SkinKey != nil {
		// Скин в R2 — просто мусор после удаления; ошибку не поднимаем.
		_ = s.uploader.Delete(ctx, *trainer.SkinKey)
	}
	return nil
}

func (s *trainerService) ToggleBadge(ctx context.Context, trainerID int, badgeID string) (*models.Trainer, error) {
	if badgeID == "" {
		return nil, fmt.Errorf("%w: badge id is required", ErrValidationFailed)
	}

	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repositories.ErrTrainerNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	kept := trainer.Badges[:0]
	found := false
	for _, b := range trainer.Badges {
		if b == badgeID {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	if found {
		trainer.Badges = kept
	} else {
		trainer.Badges = append(trainer.Badges, badgeID)
	}

	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		return nil, fmt.Errorf("failed to save badges for trainer %d: %w", trainerID, err)
	}
	s.populateSkinURL(trainer)
	return trainer, nil
}

func (s *trainerService) UploadSkin(ctx context.Context, trainerID int, contentType string, data io.Reader) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repositories.ErrTrainerNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("skins/trainer_%d", trainerID)
	if _, err := s.uploader.Upload(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("failed to upload skin: %w", err)
	}

	trainer.SkinKey = &key
	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		return nil, fmt.Errorf("failed to save skin key for trainer %d: %w", trainerID, err)
	}
	s.populateSkinURL(trainer)
	return trainer, nil
}

func (s *trainerService) populateSkinURL(t *models.Trainer) {
	if t.SkinKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.SkinKey)
	t.SkinURL = &url
}
