package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/repositories"
)

// InviteService — воркфлоу формирования пар перед даблами.
// Состояние приглашения меняется один раз: pending -> accepted|rejected.
type InviteService interface {
	// Send создаёт приглашение. Одинаковое ожидающее приглашение (тот же
	// турнир, та же упорядоченная пара ников) второй раз не создаётся.
	// Занятость цели парой здесь не проверяется — кандидатов фильтрует
	// клиент; гонка двойного спаривания остаётся возможной, как в
	// исходной системе.
	Send(ctx context.Context, tournamentID int, fromNick, toNick string) (*models.Invite, error)

	// Respond закрывает приглашение. Принятие связывает обоих участников
	// турнира напарниками симметрично; если кто-то из них уже покинул
	// турнир, связывание молча пропускается, приглашение всё равно
	// закрывается.
	Respond(ctx context.Context, inviteID int, accept bool) error

	// ListForNick — ожидающие приглашения, адресованные нику.
	ListForNick(ctx context.Context, nick string) ([]*models.Invite, error)
}

type inviteService struct {
	inviteRepo     repositories.InviteRepository
	tournamentRepo repositories.TournamentRepository
}

func NewInviteService(inviteRepo repositories.InviteRepository, tournamentRepo repositories.TournamentRepository) InviteService {
	return &inviteService{
		inviteRepo:     inviteRepo,
		tournamentRepo: tournamentRepo,
	}
}

func (s *inviteService) Send(ctx context.Context, tournamentID int, fromNick, toNick string) (*models.Invite, error) {
	fromNick = strings.TrimSpace(fromNick)
	toNick = strings.TrimSpace(toNick)
	if fromNick == "" || toNick == "" {
		return nil, ErrNickRequired
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	if _, err := s.inviteRepo.FindPending(ctx, tournamentID, fromNick, toNick); err == nil {
		return nil, ErrDuplicatePendingInvite
	} else if !errors.Is(err, repositories.ErrInviteNotFound) {
		return nil, fmt.Errorf("failed to check pending invites: %w", err)
	}

	invite := &models.Invite{
		TournamentID:   tournamentID,
		TournamentName: tournament.Name,
		FromNick:       fromNick,
		ToNick:         toNick,
		Status:         models.InvitePending,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}
	return invite, nil
}

func (s *inviteService) Respond(ctx context.Context, inviteID int, accept bool) error {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("failed to load invite %d: %w", inviteID, err)
	}
	if invite.Status != models.InvitePending {
		return ErrInviteResolved
	}

	status := models.InviteRejected
	if accept {
		status = models.InviteAccepted
	}
	if err := s.inviteRepo.UpdateStatus(ctx, inviteID, status); err != nil {
		return fmt.Errorf("failed to update invite %d: %w", inviteID, err)
	}

	if !accept {
		return nil
	}
	return s.linkPartners(ctx, invite)
}

// linkPartners проставляет обоим участникам ссылки друг на друга.
// Отсутствие турнира или любого из участников — не ошибка: приглашение
// могло пережить выход игрока, тогда связывание просто не происходит.
func (s *inviteService) linkPartners(ctx context.Context, invite *models.Invite) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, invite.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load tournament %d: %w", invite.TournamentID, err)
	}

	var from, to *models.Participant
	for i := range tournament.Participants {
		p := &tournament.Participants[i]
		if strings.EqualFold(p.Nick, invite.FromNick) {
			from = p
		}
		if strings.EqualFold(p.Nick, invite.ToNick) {
			to = p
		}
	}
	if from == nil || to == nil {
		return nil
	}

	from.PartnerID = &to.TrainerID
	from.PartnerNick = &to.Nick
	to.PartnerID = &from.TrainerID
	to.PartnerNick = &from.Nick

	if err := s.tournamentRepo.Save(ctx, tournament); err != nil {
		return fmt.Errorf("failed to save tournament %d: %w", tournament.ID, err)
	}
	return nil
}

func (s *inviteService) ListForNick(ctx context.Context, nick string) ([]*models.Invite, error) {
	if strings.TrimSpace(nick) == "" {
		return nil, ErrNickRequired
	}
	invites, err := s.inviteRepo.ListPendingByToNick(ctx, nick)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites for %q: %w", nick, err)
	}
	return invites, nil
}
