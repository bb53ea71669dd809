package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corazonmc/cobblemon-league/models"
)

var ErrInviteNotFound = errors.New("invite not found")

// InviteRepository — доступ к приглашениям в пары.
type InviteRepository interface {
	// Create сохраняет приглашение и заполняет ID.
	Create(ctx context.Context, invite *models.Invite) error

	GetByID(ctx context.Context, id int) (*models.Invite, error)

	// ListPendingByToNick возвращает ожидающие приглашения, адресованные
	// нику (без учёта регистра). Клиент опрашивает этот список раз в 3с.
	ListPendingByToNick(ctx context.Context, nick string) ([]*models.Invite, error)

	// FindPending ищет неотвеченное приглашение с той же упорядоченной
	// парой ников в том же турнире.
	FindPending(ctx context.Context, tournamentID int, fromNick, toNick string) (*models.Invite, error)

	UpdateStatus(ctx context.Context, id int, status models.InviteStatus) error
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

const inviteColumns = `id, tournament_id, tournament_name, from_nick, to_nick, status`

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	query := `
		INSERT INTO invites (tournament_id, tournament_name, from_nick, to_nick, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		invite.TournamentID,
		invite.TournamentName,
		invite.FromNick,
		invite.ToNick,
		invite.Status,
	).Scan(&invite.ID)
}

func (r *postgresInviteRepository) GetByID(ctx context.Context, id int) (*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresInviteRepository) ListPendingByToNick(ctx context.Context, nick string) ([]*models.Invite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE lower(to_nick) = lower($1) AND status = $2
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, nick, models.InvitePending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]*models.Invite, 0)
	for rows.Next() {
		var inv models.Invite
		if scanErr := rows.Scan(
			&inv.ID, &inv.TournamentID, &inv.TournamentName,
			&inv.FromNick, &inv.ToNick, &inv.Status,
		); scanErr != nil {
			return nil, scanErr
		}
		invites = append(invites, &inv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *postgresInviteRepository) FindPending(ctx context.Context, tournamentID int, fromNick, toNick string) (*models.Invite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE tournament_id = $1
		  AND lower(from_nick) = lower($2)
		  AND lower(to_nick) = lower($3)
		  AND status = $4`

	return r.scanOne(r.db.QueryRowContext(ctx, query,
		tournamentID, fromNick, toNick, models.InvitePending))
}

func (r *postgresInviteRepository) UpdateStatus(ctx context.Context, id int, status models.InviteStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE invites SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	return requireRowAffected(result, ErrInviteNotFound)
}

func (r *postgresInviteRepository) scanOne(row *sql.Row) (*models.Invite, error) {
	var inv models.Invite
	err := row.Scan(
		&inv.ID, &inv.TournamentID, &inv.TournamentName,
		&inv.FromNick, &inv.ToNick, &inv.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &inv, nil
}
