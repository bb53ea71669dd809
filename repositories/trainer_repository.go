package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corazonmc/cobblemon-league/models"
	"github.com/lib/pq"
)

var (
	ErrTrainerNotFound     = errors.New("trainer not found")
	ErrTrainerNickConflict = errors.New("trainer nick already taken")
)

// TrainerRepository определяет доступ к записям тренеров.
type TrainerRepository interface {
	// Create сохраняет нового тренера и заполняет ID/CreatedAt.
	Create(ctx context.Context, trainer *models.Trainer) error

	GetByID(ctx context.Context, id int) (*models.Trainer, error)

	// GetByNick ищет тренера по нику без учёта регистра.
	GetByNick(ctx context.Context, nick string) (*models.Trainer, error)

	List(ctx context.Context) ([]*models.Trainer, error)

	// Update перезаписывает изменяемые поля (значки, ключ скина).
	Update(ctx context.Context, trainer *models.Trainer) error

	Delete(ctx context.Context, id int) error
}

type postgresTrainerRepository struct {
	db *sql.DB
}

func NewPostgresTrainerRepository(db *sql.DB) TrainerRepository {
	return &postgresTrainerRepository{db: db}
}

const trainerColumns = `id, nick, password, role, badges, skin_key, created_at`

func (r *postgresTrainerRepository) Create(ctx context.Context, trainer *models.Trainer) error {
	query := `
		INSERT INTO trainers (nick, password, role, badges, skin_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	if trainer.Badges == nil {
		trainer.Badges = []string{}
	}

	err := r.db.QueryRowContext(ctx, query,
		trainer.Nick,
		trainer.Password,
		trainer.Role,
		pq.Array(trainer.Badges),
		trainer.SkinKey,
	).Scan(&trainer.ID, &trainer.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTrainerNickConflict
		}
		return err
	}
	return nil
}

func (r *postgresTrainerRepository) GetByID(ctx context.Context, id int) (*models.Trainer, error) {
	query := `SELECT ` + trainerColumns + ` FROM trainers WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTrainerRepository) GetByNick(ctx context.Context, nick string) (*models.Trainer, error) {
	// Ник — слабый внешний ключ всей системы, сравнение всегда без
	// учёта регистра.
	query := `SELECT ` + trainerColumns + ` FROM trainers WHERE lower(nick) = lower($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, nick))
}

func (r *postgresTrainerRepository) List(ctx context.Context) ([]*models.Trainer, error) {
	query := `SELECT ` + trainerColumns + ` FROM trainers ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainers := make([]*models.Trainer, 0)
	for rows.Next() {
		var t models.Trainer
		if scanErr := rows.Scan(
			&t.ID, &t.Nick, &t.Password, &t.Role,
			pq.Array(&t.Badges), &t.SkinKey, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		trainers = append(trainers, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return trainers, nil
}

func (r *postgresTrainerRepository) Update(ctx context.Context, trainer *models.Trainer) error {
	query := `
		UPDATE trainers
		SET badges = $2, skin_key = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, trainer.ID, pq.Array(trainer.Badges), trainer.SkinKey)
	if err != nil {
		return err
	}
	return requireRowAffected(result, ErrTrainerNotFound)
}

func (r *postgresTrainerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trainers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, ErrTrainerNotFound)
}

func (r *postgresTrainerRepository) scanOne(row *sql.Row) (*models.Trainer, error) {
	var t models.Trainer
	err := row.Scan(
		&t.ID, &t.Nick, &t.Password, &t.Role,
		pq.Array(&t.Badges), &t.SkinKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return &t, nil
}
