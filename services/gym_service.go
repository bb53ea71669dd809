package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/corazonmc/cobblemon-league/brackets"
	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/repositories"
)

// Actor — кто выполняет операцию, из клеймов сессии.
type Actor struct {
	TrainerID int
	Nick      string
	Role      models.TrainerRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// GymService — реестр залов и воркфлоу боёв:
// список претендентов -> принятый вызов -> назначенный бой -> история.
type GymService interface {
	// GetAll возвращает залы картой по типу, как их ждёт клиент.
	GetAll(ctx context.Context) (map[string]*models.Gym, error)

	// ClaimLeader назначает лидера зала. Админ может назначить любой
	// ник; обычный тренер — только себя, и только если не ведёт другой
	// зал.
	ClaimLeader(ctx context.Context, tipo string, actor Actor, nick string) (*models.Gym, error)

	// UpdateTeamSlot заменяет ровно один из 6 слотов команды.
	// nil убирает покемона из слота.
	UpdateTeamSlot(ctx context.Context, tipo string, actor Actor, slot int, pokemon *models.Pokemon) (*models.Gym, error)

	// Reset возвращает зал в незанятое состояние: лидер, скин, слоты,
	// претенденты, активный бой и история очищаются.
	Reset(ctx context.Context, tipo string, actor Actor) error

	// ToggleChallenge добавляет ник в список претендентов либо убирает,
	// если он там уже есть.
	ToggleChallenge(ctx context.Context, tipo, nick string) ([]string, error)

	// AcceptChallenge снимает претендента со списка и назначает бой.
	// Членство в списке не проверяется, а уже активный бой молча
	// перезаписывается — так ведёт себя исходная система.
	AcceptChallenge(ctx context.Context, tipo string, actor Actor, challengerNick, date, timeOfDay string) (*models.Battle, error)

	// ResolveBattle завершает активный бой и переносит его в начало
	// истории. Без активного боя — тихий no-op.
	ResolveBattle(ctx context.Context, tipo string, actor Actor, result models.BattleResult) error

	// FindGymLedBy ищет зал, которым руководит ник (без учёта регистра).
	FindGymLedBy(ctx context.Context, nick string) (*models.Gym, error)
}

type gymService struct {
	gymRepo     repositories.GymRepository
	trainerRepo repositories.TrainerRepository
}

func NewGymService(gymRepo repositories.GymRepository, trainerRepo repositories.TrainerRepository) GymService {
	return &gymService{
		gymRepo:     gymRepo,
		trainerRepo: trainerRepo,
	}
}

func (s *gymService) GetAll(ctx context.Context) (map[string]*models.Gym, error) {
	gyms, err := s.gymRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gyms: %w", err)
	}

	byTipo := make(map[string]*models.Gym, len(gyms))
	for _, g := range gyms {
		byTipo[g.Tipo] = g
	}
	return byTipo, nil
}

func (s *gymService) ClaimLeader(ctx context.Context, tipo string, actor Actor, nick string) (*models.Gym, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return nil, ErrNickRequired
	}
	if !actor.IsAdmin() && !strings.EqualFold(actor.Nick, nick) {
		return nil, ErrForbiddenOperation
	}

	gym, err := s.loadGym(ctx, tipo)
	if err != nil {
		return nil, err
	}

	// Один тренер — максимум один зал. Проверка только в момент
	// назначения, сквозной инвариант никто не поддерживает.
	gyms, err := s.gymRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan gyms for leadership: %w", err)
	}
	for _, g := range gyms {
		if g.Tipo != tipo && strings.EqualFold(g.Lider, nick) {
			return nil, ErrAlreadyLeadsAGym
		}
	}

	gym.Lider = nick
	gym.LiderSkin = nil
	if trainer, err := s.trainerRepo.GetByNick(ctx, nick); err == nil && trainer.SkinKey != nil {
		gym.LiderSkin = trainer.SkinKey
	}

	if err := s.gymRepo.Save(ctx, gym); err != nil {
		return nil, fmt.Errorf("failed to save gym %s: %w", tipo, err)
	}
	return gym, nil
}

func (s *gymService) UpdateTeamSlot(ctx context.Context, tipo string, actor Actor, slot int, pokemon *models.Pokemon) (*models.Gym, error) {
	if slot < 0 || slot >= models.GymTeamSize {
		return nil, ErrInvalidSlotIndex
	}

	gym, err := s.loadGym(ctx, tipo)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !strings.EqualFold(gym.Lider, actor.Nick) {
		return nil, ErrForbiddenOperation
	}

	gym.Time[slot] = pokemon
	if err := s.gymRepo.Save(ctx, gym); err != nil {
		return nil, fmt.Errorf("failed to save gym %s: %w", tipo, err)
	}
	return gym, nil
}

func (s *gymService) Reset(ctx context.Context, tipo string, actor Actor) error {
	gym, err := s.loadGym(ctx, tipo)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !strings.EqualFold(gym.Lider, actor.Nick) {
		return ErrForbiddenOperation
	}

	wiped := models.EmptyGym(tipo)
	if err := s.gymRepo.Save(ctx, wiped); err != nil {
		return fmt.Errorf("failed to reset gym %s: %w", tipo, err)
	}
	return nil
}

func (s *gymService) ToggleChallenge(ctx context.Context, tipo, nick string) ([]string, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return nil, ErrNickRequired
	}

	gym, err := s.loadGym(ctx, tipo)
	if err != nil {
		return nil, err
	}

	// Список претендентов сверяется по точному нику, без folding:
	// сюда всегда попадает ник из сессии, так что для одного аккаунта
	// запись одна и та же. Так работала и исходная система.
	kept := make([]string, 0, len(gym.Challengers))
	found := false
	for _, c := range gym.Challengers {
		if c == nick {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if found {
		gym.Challengers = kept
	} else {
		gym.Challengers = append(gym.Challengers, nick)
	}

	if err := s.gymRepo.Save(ctx, gym); err != nil {
		return nil, fmt.Errorf("failed to save gym %s: %w", tipo, err)
	}
	return gym.Challengers, nil
}

func (s *gymService) AcceptChallenge(ctx context.Context, tipo string, actor Actor, challengerNick, date, timeOfDay string) (*models.Battle, error) {
	if challengerNick == "" {
		return nil, ErrNickRequired
	}

	gym, err := s.loadGym(ctx, tipo)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !strings.EqualFold(gym.Lider, actor.Nick) {
		return nil, ErrForbiddenOperation
	}

	// Лидер выбирает претендента из самого списка, поэтому ник приходит
	// байт-в-байт и сравнивается точно.
	kept := make([]string, 0, len(gym.Challengers))
	for _, c := range gym.Challengers {
		if c != challengerNick {
			kept = append(kept, c)
		}
	}
	gym.Challengers = kept

	gym.ActiveBattle = &models.Battle{
		ID:             brackets.NewMatchID(),
		ChallengerNick: challengerNick,
		Date:           date,
		Time:           timeOfDay,
		Status:         models.BattleScheduled,
	}

	if err := s.gymRepo.Save(ctx, gym); err != nil {
		return nil, fmt.Errorf("failed to save gym %s: %w", tipo, err)
	}
	return gym.ActiveBattle, nil
}

func (s *gymService) ResolveBattle(ctx context.Context, tipo string, actor Actor, result models.BattleResult) error {
	if result != models.ResultLeaderWin && result != models.ResultChallengerWin {
		return ErrInvalidResult
	}

	gym, err := s.loadGym(ctx, tipo)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !strings.EqualFold(gym.Lider, actor.Nick) {
		return ErrForbiddenOperation
	}

	if gym.ActiveBattle == nil {
		return nil
	}

	battle := *gym.ActiveBattle
	battle.Status = models.BattleCompleted
	battle.Result = result

	// История хранится от новых к старым.
	gym.History = append([]models.Battle{battle}, gym.History...)
	gym.ActiveBattle = nil

	if err := s.gymRepo.Save(ctx, gym); err != nil {
		return fmt.Errorf("failed to save gym %s: %w", tipo, err)
	}
	return nil
}

func (s *gymService) FindGymLedBy(ctx context.Context, nick string) (*models.Gym, error) {
	gyms, err := s.gymRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gyms: %w", err)
	}
	for _, g := range gyms {
		if g.Lider != "" && strings.EqualFold(g.Lider, nick) {
			return g, nil
		}
	}
	return nil, ErrNotAGymLeader
}

func (s *gymService) loadGym(ctx context.Context, tipo string) (*models.Gym, error) {
	gym, err := s.gymRepo.GetByTipo(ctx, tipo)
	if err != nil {
		if errors.Is(err, repositories.ErrGymNotFound) {
			return nil, ErrGymNotFound
		}
		return nil, fmt.Errorf("failed to load gym %s: %w", tipo, err)
	}
	return gym, nil
}
