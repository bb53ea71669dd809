package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/corazonmc/cobblemon-league/models"
	"github.com/lib/pq"
)

var ErrGymNotFound = errors.New("gym not found")

// GymRepository — доступ к 18 постоянным записям залов. Изменяемая часть
// зала (команда, претенденты, бои) хранится как JSONB и сохраняется
// целиком: загрузили запись, изменили в памяти, записали обратно.
// Никакого optimistic locking нет, последняя запись побеждает.
type GymRepository interface {
	GetByTipo(ctx context.Context, tipo string) (*models.Gym, error)
	List(ctx context.Context) ([]*models.Gym, error)

	// Save перезаписывает все изменяемые поля записи зала.
	Save(ctx context.Context, gym *models.Gym) error

	// Count возвращает число записей (для посева при первом запуске).
	Count(ctx context.Context) (int, error)

	// Insert создаёт запись зала. Используется только посевом схемы.
	Insert(ctx context.Context, gym *models.Gym) error
}

type postgresGymRepository struct {
	db *sql.DB
}

func NewPostgresGymRepository(db *sql.DB) GymRepository {
	return &postgresGymRepository{db: db}
}

func (r *postgresGymRepository) GetByTipo(ctx context.Context, tipo string) (*models.Gym, error) {
	query := `
		SELECT tipo, lider, lider_skin, team, challengers, active_battle, history
		FROM gyms
		WHERE tipo = $1`
	return scanGym(r.db.QueryRowContext(ctx, query, tipo))
}

func (r *postgresGymRepository) List(ctx context.Context) ([]*models.Gym, error) {
	query := `
		SELECT tipo, lider, lider_skin, team, challengers, active_battle, history
		FROM gyms
		ORDER BY tipo`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	gyms := make([]*models.Gym, 0, len(models.GymTypes))
	for rows.Next() {
		gym, scanErr := scanGymRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		gyms = append(gyms, gym)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return gyms, nil
}

func (r *postgresGymRepository) Save(ctx context.Context, gym *models.Gym) error {
	team, challengers, activeBattle, history, err := marshalGym(gym)
	if err != nil {
		return err
	}

	query := `
		UPDATE gyms
		SET lider = $2, lider_skin = $3, team = $4, challengers = $5,
		    active_battle = $6, history = $7
		WHERE tipo = $1`

	result, err := r.db.ExecContext(ctx, query,
		gym.Tipo, gym.Lider, gym.LiderSkin, team, challengers, activeBattle, history)
	if err != nil {
		return err
	}
	return requireRowAffected(result, ErrGymNotFound)
}

func (r *postgresGymRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM gyms`).Scan(&count)
	return count, err
}

func (r *postgresGymRepository) Insert(ctx context.Context, gym *models.Gym) error {
	team, challengers, activeBattle, history, err := marshalGym(gym)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO gyms (tipo, lider, lider_skin, team, challengers, active_battle, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query,
		gym.Tipo, gym.Lider, gym.LiderSkin, team, challengers, activeBattle, history)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("gym %q already seeded", gym.Tipo)
		}
		return err
	}
	return nil
}

func marshalGym(gym *models.Gym) (team, challengers, activeBattle, history []byte, err error) {
	if team, err = json.Marshal(gym.Time); err != nil {
		return
	}
	if gym.Challengers == nil {
		gym.Challengers = []string{}
	}
	if challengers, err = json.Marshal(gym.Challengers); err != nil {
		return
	}
	if activeBattle, err = json.Marshal(gym.ActiveBattle); err != nil {
		return
	}
	if gym.History == nil {
		gym.History = []models.Battle{}
	}
	history, err = json.Marshal(gym.History)
	return
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGym(row *sql.Row) (*models.Gym, error) {
	gym, err := scanGymRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	return gym, nil
}

func scanGymRow(row rowScanner) (*models.Gym, error) {
	var gym models.Gym
	var team, challengers, activeBattle, history []byte

	if err := row.Scan(
		&gym.Tipo, &gym.Lider, &gym.LiderSkin,
		&team, &challengers, &activeBattle, &history,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(team, &gym.Time); err != nil {
		return nil, fmt.Errorf("gym %s: invalid team json: %w", gym.Tipo, err)
	}
	if err := json.Unmarshal(challengers, &gym.Challengers); err != nil {
		return nil, fmt.Errorf("gym %s: invalid challengers json: %w", gym.Tipo, err)
	}
	if err := json.Unmarshal(activeBattle, &gym.ActiveBattle); err != nil {
		return nil, fmt.Errorf("gym %s: invalid active battle json: %w", gym.Tipo, err)
	}
	if err := json.Unmarshal(history, &gym.History); err != nil {
		return nil, fmt.Errorf("gym %s: invalid history json: %w", gym.Tipo, err)
	}
	return &gym, nil
}
