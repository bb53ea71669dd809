package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/corazonmc/cobblemon-league/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

// TournamentRepository хранит турнир одной записью: участники и матчи
// лежат в JSONB-колонках и сохраняются целиком при каждом изменении.
type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)

	// Save перезаписывает статус, раунд, участников и матчи.
	Save(ctx context.Context, tournament *models.Tournament) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	if tournament.Participants == nil {
		tournament.Participants = []models.Participant{}
	}
	if tournament.Matches == nil {
		tournament.Matches = []models.Match{}
	}

	participants, matches, err := marshalTournament(tournament)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tournaments (name, format, status, participants, matches, current_round)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Format,
		tournament.Status,
		participants,
		matches,
		tournament.CurrentRound,
	).Scan(&tournament.ID, &tournament.CreatedAt)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, format, status, participants, matches, current_round, created_at
		FROM tournaments
		WHERE id = $1`

	tournament, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	query := `
		SELECT id, name, format, status, participants, matches, current_round, created_at
		FROM tournaments
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Save(ctx context.Context, tournament *models.Tournament) error {
	participants, matches, err := marshalTournament(tournament)
	if err != nil {
		return err
	}

	query := `
		UPDATE tournaments
		SET status = $2, participants = $3, matches = $4, current_round = $5
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		tournament.ID, tournament.Status, participants, matches, tournament.CurrentRound)
	if err != nil {
		return err
	}
	return requireRowAffected(result, ErrTournamentNotFound)
}

func marshalTournament(t *models.Tournament) (participants, matches []byte, err error) {
	if participants, err = json.Marshal(t.Participants); err != nil {
		return nil, nil, fmt.Errorf("marshal participants: %w", err)
	}
	if matches, err = json.Marshal(t.Matches); err != nil {
		return nil, nil, fmt.Errorf("marshal matches: %w", err)
	}
	return participants, matches, nil
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var t models.Tournament
	var participants, matches []byte

	if err := row.Scan(
		&t.ID, &t.Name, &t.Format, &t.Status,
		&participants, &matches, &t.CurrentRound, &t.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(participants, &t.Participants); err != nil {
		return nil, fmt.Errorf("tournament %d: invalid participants json: %w", t.ID, err)
	}
	if err := json.Unmarshal(matches, &t.Matches); err != nil {
		return nil, fmt.Errorf("tournament %d: invalid matches json: %w", t.ID, err)
	}
	return &t, nil
}
