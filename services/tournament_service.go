package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/corazonmc/cobblemon-league/brackets"
	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/repositories"
	"github.com/corazonmc/cobblemon-league/storage"
)

const (
	minMonotypePlayers = 2
	minDoublesPlayers  = 4
	maxPlayers         = 18
	maxBansPerSide     = 2
)

// TournamentService управляет жизненным циклом турнира:
// pending (регистрация, пары) -> active (сетка, раунды) -> completed.
type TournamentService interface {
	Create(ctx context.Context, name string, format models.TournamentFormat) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)

	// JoinMonotype записывает тренера с командой его зала. Тренер обязан
	// вести зал с полностью заполненными 6 слотами; команда копируется
	// по значению вместе с типом зала.
	JoinMonotype(ctx context.Context, tournamentID int, actor Actor) (*models.Tournament, error)

	// JoinDoubles записывает тренера с собственной командой ровно из 4
	// покемонов.
	JoinDoubles(ctx context.Context, tournamentID int, actor Actor, team []models.Pokemon) (*models.Tournament, error)

	// Leave убирает участника, пока турнир не стартовал. У бывшего
	// напарника ссылки на пару очищаются, сам он остаётся в списке.
	Leave(ctx context.Context, tournamentID, trainerID int) error

	// Start генерирует первый раунд и переводит турнир в active.
	Start(ctx context.Context, tournamentID int) (*models.Tournament, error)

	// DeclareWinner записывает победителей матча; закрытый раунд либо
	// завершает турнир, либо порождает следующий раунд из выживших.
	DeclareWinner(ctx context.Context, tournamentID int, matchID string, winnerIDs []int) (*models.Tournament, error)

	// ToggleBan снимает бан, если покемон уже забанен, иначе добавляет.
	// Потолок — 2 бана на сторону матча. Запрет банить собственную
	// сторону леджер не проверяет: это инвариант вызывающего (клиент
	// предлагает только чужих покемонов).
	ToggleBan(ctx context.Context, tournamentID int, matchID string, targetTrainerID int, pokemonName string) (*models.Match, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	trainerRepo    repositories.TrainerRepository
	gymService     GymService
	ladder         *brackets.Ladder
	uploader       storage.FileUploader
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	trainerRepo repositories.TrainerRepository,
	gymService GymService,
	ladder *brackets.Ladder,
	uploader storage.FileUploader,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		trainerRepo:    trainerRepo,
		gymService:     gymService,
		ladder:         ladder,
		uploader:       uploader,
	}
}

func (s *tournamentService) Create(ctx context.Context, name string, format models.TournamentFormat) (*models.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if format != models.FormatMonotype && format != models.FormatDoubles {
		return nil, ErrInvalidFormat
	}

	tournament := &models.Tournament{
		Name:         name,
		Format:       format,
		Status:       models.TournamentPending,
		Participants: []models.Participant{},
		Matches:      []models.Match{},
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	return s.tournamentRepo.List(ctx)
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return s.loadTournament(ctx, id)
}

func (s *tournamentService) JoinMonotype(ctx context.Context, tournamentID int, actor Actor) (*models.Tournament, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkJoinable(tournament, actor.TrainerID); err != nil {
		return nil, err
	}

	gym, err := s.gymService.FindGymLedBy(ctx, actor.Nick)
	if err != nil {
		return nil, err
	}

	team := make([]models.Pokemon, 0, models.GymTeamSize)
	for _, p := range gym.Time {
		if p != nil {
			team = append(team, *p)
		}
	}
	if len(team) < models.GymTeamSize {
		return nil, ErrIncompleteTeam
	}

	gymType := gym.Tipo
	participant := models.Participant{
		TrainerID:  actor.TrainerID,
		Nick:       actor.Nick,
		CustomSkin: s.skinURLFor(ctx, actor.TrainerID),
		Pokemon:    team,
		GymType:    &gymType,
	}

	tournament.Participants = append(tournament.Participants, participant)
	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to save tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}

func (s *tournamentService) JoinDoubles(ctx context.Context, tournamentID int, actor Actor, team []models.Pokemon) (*models.Tournament, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkJoinable(tournament, actor.TrainerID); err != nil {
		return nil, err
	}
	if len(team) != 4 {
		return nil, ErrInvalidTeamSize
	}

	participant := models.Participant{
		TrainerID:  actor.TrainerID,
		Nick:       actor.Nick,
		CustomSkin: s.skinURLFor(ctx, actor.TrainerID),
		Pokemon:    append([]models.Pokemon{}, team...),
	}

	tournament.Participants = append(tournament.Participants, participant)
	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to save tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}

func (s *tournamentService) Leave(ctx context.Context, tournamentID, trainerID int) error {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	// После старта выход невозможен; как и в исходнике, это тихий no-op,
	// а не ошибка.
	if tournament.Status != models.TournamentPending {
		return nil
	}

	leaving := tournament.FindParticipant(trainerID)
	if leaving == nil {
		return nil
	}

	if leaving.PartnerID != nil {
		if partner := tournament.FindParticipant(*leaving.PartnerID); partner != nil {
			partner.PartnerID = nil
			partner.PartnerNick = nil
		}
	}

	kept := tournament.Participants[:0]
	for _, p := range tournament.Participants {
		if p.TrainerID != trainerID {
			kept = append(kept, p)
		}
	}
	tournament.Participants = kept

	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		return fmt.Errorf("failed to save tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (s *tournamentService) Start(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentPending {
		return nil, ErrTournamentNotPending
	}

	count := len(tournament.Participants)
	if count%2 != 0 {
		return nil, ErrOddParticipantCount
	}

	switch tournament.Format {
	case models.FormatMonotype:
		if count < minMonotypePlayers || count > maxPlayers {
			return nil, ErrInvalidPlayerCount
		}
	case models.FormatDoubles:
		for _, p := range tournament.Participants {
			if p.PartnerID == nil {
				return nil, ErrUnpairedParticipants
			}
		}
		if count < minDoublesPlayers || count > maxPlayers {
			return nil, ErrInvalidPlayerCount
		}
	}

	tournament.Matches = s.ladder.GenerateRound(tournament.Format, tournament.Participants, 1)
	tournament.Status = models.TournamentActive
	tournament.CurrentRound = 1

	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to save tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}

func (s *tournamentService) DeclareWinner(ctx context.Context, tournamentID int, matchID string, winnerIDs []int) (*models.Tournament, error) {
	if len(winnerIDs) == 0 {
		return nil, fmt.Errorf("%w: winners are required", ErrValidationFailed)
	}

	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	match := tournament.FindMatch(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}
	match.Winners = append([]int{}, winnerIDs...)

	if brackets.RoundComplete(tournament) {
		winners := brackets.RoundWinnerIDs(tournament)

		if len(winners) == tournament.Format.RequiredSurvivors() {
			tournament.Status = models.TournamentCompleted
		} else {
			tournament.CurrentRound++

			surviving := make([]models.Participant, 0, len(winners))
			winnerSet := make(map[int]bool, len(winners))
			for _, id := range winners {
				winnerSet[id] = true
			}
			for _, p := range tournament.Participants {
				if winnerSet[p.TrainerID] {
					surviving = append(surviving, p)
				}
			}

			next := s.ladder.GenerateRound(tournament.Format, surviving, tournament.CurrentRound)
			tournament.Matches = append(tournament.Matches, next...)
		}
	}

	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to save tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}

func (s *tournamentService) ToggleBan(ctx context.Context, tournamentID int, matchID string, targetTrainerID int, pokemonName string) (*models.Match, error) {
	if pokemonName == "" {
		return nil, fmt.Errorf("%w: pokemon name is required", ErrValidationFailed)
	}

	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	match := tournament.FindMatch(matchID)
	if match == nil {
		return nil, ErrMatchNotFound
	}

	if match.Bans == nil {
		match.Bans = map[int][]string{}
	}

	bans := match.Bans[targetTrainerID]
	for i, name := range bans {
		if name == pokemonName {
			// Снятие бана разрешено всегда.
			match.Bans[targetTrainerID] = append(bans[:i], bans[i+1:]...)
			if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
				return nil, fmt.Errorf("failed to save tournament %d: %w", tournamentID, err)
			}
			return match, nil
		}
	}

	if sideBanCount(tournament.Format, match, targetTrainerID) >= maxBansPerSide {
		return nil, ErrBanLimitExceeded
	}

	match.Bans[targetTrainerID] = append(bans, pokemonName)
	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to save tournament %d: %w", tournamentID, err)
	}
	return match, nil
}

// sideBanCount считает уже действующие баны стороны, к которой относится
// цель. В даблах сторона определяется позицией в массиве участников:
// индексы 0-1 — сторона A, 2-3 — сторона B.
func sideBanCount(format models.TournamentFormat, match *models.Match, targetTrainerID int) int {
	if format == models.FormatMonotype {
		return len(match.Bans[targetTrainerID])
	}

	targetIdx := -1
	for i, p := range match.Participants {
		if p.TrainerID == targetTrainerID {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return len(match.Bans[targetTrainerID])
	}

	sideStart := 0
	if targetIdx >= 2 {
		sideStart = 2
	}
	total := 0
	for i := sideStart; i < sideStart+2 && i < len(match.Participants); i++ {
		total += len(match.Bans[match.Participants[i].TrainerID])
	}
	return total
}

func (s *tournamentService) checkJoinable(t *models.Tournament, trainerID int) error {
	if t.FindParticipant(trainerID) != nil {
		return ErrAlreadyRegistered
	}
	if t.Status != models.TournamentPending {
		return ErrTournamentNotPending
	}
	return nil
}

func (s *tournamentService) skinURLFor(ctx context.Context, trainerID int) *string {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil || trainer.SkinKey == nil {
		return nil
	}
	url := s.uploader.GetPublicURL(*trainer.SkinKey)
	return &url
}

func (s *tournamentService) loadTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	return tournament, nil
}
