package services

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/repositories"
	"github.com/corazonmc/cobblemon-league/storage"
)

// In-memory реализации репозиториев. Возвращают глубокие копии, чтобы
// тесты ловили забытый Save так же, как его ловит настоящая база.

type fakeTrainerRepo struct {
	nextID   int
	trainers map[int]models.Trainer
}

func newFakeTrainerRepo() *fakeTrainerRepo {
	return &fakeTrainerRepo{nextID: 1, trainers: map[int]models.Trainer{}}
}

func (r *fakeTrainerRepo) Create(_ context.Context, trainer *models.Trainer) error {
	for _, t := range r.trainers {
		if strings.EqualFold(t.Nick, trainer.Nick) {
			return repositories.ErrTrainerNickConflict
		}
	}
	trainer.ID = r.nextID
	r.nextID++
	r.trainers[trainer.ID] = copyTrainer(*trainer)
	return nil
}

func (r *fakeTrainerRepo) GetByID(_ context.Context, id int) (*models.Trainer, error) {
	t, ok := r.trainers[id]
	if !ok {
		return nil, repositories.ErrTrainerNotFound
	}
	out := copyTrainer(t)
	return &out, nil
}

func (r *fakeTrainerRepo) GetByNick(_ context.Context, nick string) (*models.Trainer, error) {
	for _, t := range r.trainers {
		if strings.EqualFold(t.Nick, nick) {
			out := copyTrainer(t)
			return &out, nil
		}
	}
	return nil, repositories.ErrTrainerNotFound
}

func (r *fakeTrainerRepo) List(_ context.Context) ([]*models.Trainer, error) {
	out := make([]*models.Trainer, 0, len(r.trainers))
	for _, t := range r.trainers {
		c := copyTrainer(t)
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeTrainerRepo) Update(_ context.Context, trainer *models.Trainer) error {
	if _, ok := r.trainers[trainer.ID]; !ok {
		return repositories.ErrTrainerNotFound
	}
	r.trainers[trainer.ID] = copyTrainer(*trainer)
	return nil
}

func (r *fakeTrainerRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.trainers[id]; !ok {
		return repositories.ErrTrainerNotFound
	}
	delete(r.trainers, id)
	return nil
}

func copyTrainer(t models.Trainer) models.Trainer {
	t.Badges = append([]string{}, t.Badges...)
	if t.SkinKey != nil {
		key := *t.SkinKey
		t.SkinKey = &key
	}
	t.SkinURL = nil
	return t
}

type fakeGymRepo struct {
	gyms map[string]string // tipo -> json
}

func newFakeGymRepo() *fakeGymRepo {
	r := &fakeGymRepo{gyms: map[string]string{}}
	for _, tipo := range models.GymTypes {
		_ = r.Insert(context.Background(), models.EmptyGym(tipo))
	}
	return r
}

func (r *fakeGymRepo) GetByTipo(_ context.Context, tipo string) (*models.Gym, error) {
	raw, ok := r.gyms[tipo]
	if !ok {
		return nil, repositories.ErrGymNotFound
	}
	var gym models.Gym
	if err := json.Unmarshal([]byte(raw), &gym); err != nil {
		return nil, err
	}
	return &gym, nil
}

func (r *fakeGymRepo) List(ctx context.Context) ([]*models.Gym, error) {
	out := make([]*models.Gym, 0, len(r.gyms))
	for _, tipo := range models.GymTypes {
		if _, ok := r.gyms[tipo]; !ok {
			continue
		}
		gym, err := r.GetByTipo(ctx, tipo)
		if err != nil {
			return nil, err
		}
		out = append(out, gym)
	}
	return out, nil
}

func (r *fakeGymRepo) Save(_ context.Context, gym *models.Gym) error {
	if _, ok := r.gyms[gym.Tipo]; !ok {
		return repositories.ErrGymNotFound
	}
	raw, err := json.Marshal(gym)
	if err != nil {
		return err
	}
	r.gyms[gym.Tipo] = string(raw)
	return nil
}

func (r *fakeGymRepo) Count(_ context.Context) (int, error) {
	return len(r.gyms), nil
}

func (r *fakeGymRepo) Insert(_ context.Context, gym *models.Gym) error {
	raw, err := json.Marshal(gym)
	if err != nil {
		return err
	}
	r.gyms[gym.Tipo] = string(raw)
	return nil
}

type fakeTournamentRepo struct {
	nextID      int
	tournaments map[int]string // id -> json
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{nextID: 1, tournaments: map[int]string{}}
}

func (r *fakeTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	tournament.ID = r.nextID
	r.nextID++
	raw, err := json.Marshal(tournament)
	if err != nil {
		return err
	}
	r.tournaments[tournament.ID] = string(raw)
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	raw, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	var t models.Tournament
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context) ([]*models.Tournament, error) {
	out := make([]*models.Tournament, 0, len(r.tournaments))
	for id := range r.tournaments {
		t, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) Save(_ context.Context, tournament *models.Tournament) error {
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	raw, err := json.Marshal(tournament)
	if err != nil {
		return err
	}
	r.tournaments[tournament.ID] = string(raw)
	return nil
}

type fakeInviteRepo struct {
	nextID  int
	invites map[int]models.Invite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{nextID: 1, invites: map[int]models.Invite{}}
}

func (r *fakeInviteRepo) Create(_ context.Context, invite *models.Invite) error {
	invite.ID = r.nextID
	r.nextID++
	r.invites[invite.ID] = *invite
	return nil
}

func (r *fakeInviteRepo) GetByID(_ context.Context, id int) (*models.Invite, error) {
	inv, ok := r.invites[id]
	if !ok {
		return nil, repositories.ErrInviteNotFound
	}
	return &inv, nil
}

func (r *fakeInviteRepo) ListPendingByToNick(_ context.Context, nick string) ([]*models.Invite, error) {
	var out []*models.Invite
	for id := 1; id < r.nextID; id++ {
		inv, ok := r.invites[id]
		if ok && inv.Status == models.InvitePending && strings.EqualFold(inv.ToNick, nick) {
			c := inv
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) FindPending(_ context.Context, tournamentID int, fromNick, toNick string) (*models.Invite, error) {
	for _, inv := range r.invites {
		if inv.TournamentID == tournamentID &&
			inv.Status == models.InvitePending &&
			strings.EqualFold(inv.FromNick, fromNick) &&
			strings.EqualFold(inv.ToNick, toNick) {
			c := inv
			return &c, nil
		}
	}
	return nil, repositories.ErrInviteNotFound
}

func (r *fakeInviteRepo) UpdateStatus(_ context.Context, id int, status models.InviteStatus) error {
	inv, ok := r.invites[id]
	if !ok {
		return repositories.ErrInviteNotFound
	}
	inv.Status = status
	r.invites[id] = inv
	return nil
}

type fakeUploader struct {
	uploaded map[string]string // key -> content type
	deleted  []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: map[string]string{}}
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	_, _ = io.Copy(io.Discard, reader)
	u.uploaded[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
