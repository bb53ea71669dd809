package services

import (
	"context"
	"fmt"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corazonmc/cobblemon-league/brackets"
	"github.com/corazonmc/cobblemon-league/models"
)

type tournamentFixture struct {
	svc         TournamentService
	gyms        GymService
	trainers    *fakeTrainerRepo
	tournaments *fakeTournamentRepo
}

func newTournamentFixture(t *testing.T) *tournamentFixture {
	t.Helper()
	trainerRepo := newFakeTrainerRepo()
	tournamentRepo := newFakeTournamentRepo()
	gymService := NewGymService(newFakeGymRepo(), trainerRepo)

	svc := NewTournamentService(
		tournamentRepo,
		trainerRepo,
		gymService,
		brackets.NewSeededLadder(mrand.New(mrand.NewSource(7))),
		newFakeUploader(),
	)
	return &tournamentFixture{
		svc:         svc,
		gyms:        gymService,
		trainers:    trainerRepo,
		tournaments: tournamentRepo,
	}
}

// enrollLeader создаёт тренера, сажает его лидером зала, заполняет slots
// слотов команды и (при join) записывает в турнир.
func (fx *tournamentFixture) enrollLeader(t *testing.T, tournamentID int, nick, tipo string, slots int, join bool) Actor {
	t.Helper()
	ctx := context.Background()

	trainer := &models.Trainer{Nick: nick, Password: "pw", Role: models.RoleTrainer}
	require.NoError(t, fx.trainers.Create(ctx, trainer))
	actor := trainerActor(trainer.ID, nick)

	_, err := fx.gyms.ClaimLeader(ctx, tipo, actor, nick)
	require.NoError(t, err)
	for i := 0; i < slots; i++ {
		_, err := fx.gyms.UpdateTeamSlot(ctx, tipo, actor, i, &models.Pokemon{Name: fmt.Sprintf("%s-mon-%d", tipo, i)})
		require.NoError(t, err)
	}

	if join {
		_, err = fx.svc.JoinMonotype(ctx, tournamentID, actor)
		require.NoError(t, err)
	}
	return actor
}

func (fx *tournamentFixture) createTournament(t *testing.T, format models.TournamentFormat) *models.Tournament {
	t.Helper()
	tournament, err := fx.svc.Create(context.Background(), "Liga Cup", format)
	require.NoError(t, err)
	return tournament
}

// joinDoublesPair записывает двух тренеров с командами по 4 и связывает
// их напарниками напрямую в записи турнира.
func (fx *tournamentFixture) joinDoublesPair(t *testing.T, tournamentID int, nickA, nickB string) (Actor, Actor) {
	t.Helper()
	ctx := context.Background()

	team := []models.Pokemon{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
	actors := make([]Actor, 0, 2)
	for _, nick := range []string{nickA, nickB} {
		trainer := &models.Trainer{Nick: nick, Password: "pw", Role: models.RoleTrainer}
		require.NoError(t, fx.trainers.Create(ctx, trainer))
		actor := trainerActor(trainer.ID, nick)
		_, err := fx.svc.JoinDoubles(ctx, tournamentID, actor, team)
		require.NoError(t, err)
		actors = append(actors, actor)
	}

	tournament, err := fx.tournaments.GetByID(ctx, tournamentID)
	require.NoError(t, err)
	a := tournament.FindParticipant(actors[0].TrainerID)
	b := tournament.FindParticipant(actors[1].TrainerID)
	require.NotNil(t, a)
	require.NotNil(t, b)
	a.PartnerID, a.PartnerNick = &b.TrainerID, &b.Nick
	b.PartnerID, b.PartnerNick = &a.TrainerID, &a.Nick
	require.NoError(t, fx.tournaments.Save(ctx, tournament))

	return actors[0], actors[1]
}

func TestCreateValidation(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, "  ", models.FormatMonotype)
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = fx.svc.Create(ctx, "Cup", models.TournamentFormat("triples"))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	tournament := fx.createTournament(t, models.FormatMonotype)
	assert.Equal(t, models.TournamentPending, tournament.Status)
	assert.Empty(t, tournament.Participants)
}

func TestJoinMonotypeRequiresFullGymTeam(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatMonotype)

	// Пять заполненных слотов — мало.
	actor := fx.enrollLeader(t, tournament.ID, "Blaine", "fogo", 5, false)
	_, err := fx.svc.JoinMonotype(ctx, tournament.ID, actor)
	assert.ErrorIs(t, err, ErrIncompleteTeam)

	// Шестой слот решает.
	_, err = fx.gyms.UpdateTeamSlot(ctx, "fogo", actor, 5, &models.Pokemon{Name: "magmar"})
	require.NoError(t, err)

	updated, err := fx.svc.JoinMonotype(ctx, tournament.ID, actor)
	require.NoError(t, err)
	require.Len(t, updated.Participants, 1)

	p := updated.Participants[0]
	assert.Equal(t, actor.TrainerID, p.TrainerID)
	require.NotNil(t, p.GymType)
	assert.Equal(t, "fogo", *p.GymType)
	assert.Len(t, p.Pokemon, models.GymTeamSize)
}

func TestJoinMonotypeCopiesTeamByValue(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatMonotype)

	actor := fx.enrollLeader(t, tournament.ID, "Erika", "planta", 6, true)

	// Правка зала после регистрации не трогает турнирную команду.
	_, err := fx.gyms.UpdateTeamSlot(ctx, "planta", actor, 0, &models.Pokemon{Name: "replacement"})
	require.NoError(t, err)

	stored, err := fx.svc.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, "planta-mon-0", stored.Participants[0].Pokemon[0].Name)
}

func TestJoinRejectsDuplicateAndNonLeader(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatMonotype)

	actor := fx.enrollLeader(t, tournament.ID, "Sabrina", "psiquico", 6, true)

	_, err := fx.svc.JoinMonotype(ctx, tournament.ID, actor)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	outsider := trainerActor(777, "Ash")
	_, err = fx.svc.JoinMonotype(ctx, tournament.ID, outsider)
	assert.ErrorIs(t, err, ErrNotAGymLeader)
}

func TestJoinDoublesTeamSizeIsExactlyFour(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatDoubles)
	actor := trainerActor(1, "Ash")

	_, err := fx.svc.JoinDoubles(ctx, tournament.ID, actor, []models.Pokemon{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	assert.ErrorIs(t, err, ErrInvalidTeamSize)

	_, err = fx.svc.JoinDoubles(ctx, tournament.ID, actor,
		[]models.Pokemon{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}})
	assert.ErrorIs(t, err, ErrInvalidTeamSize)

	updated, err := fx.svc.JoinDoubles(ctx, tournament.ID, actor,
		[]models.Pokemon{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}})
	require.NoError(t, err)
	assert.Len(t, updated.Participants, 1)
}

func TestLeaveClearsPartnerLinksSymmetrically(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatDoubles)

	a, b := fx.joinDoublesPair(t, tournament.ID, "Ash", "Misty")

	require.NoError(t, fx.svc.Leave(ctx, tournament.ID, a.TrainerID))

	stored, err := fx.svc.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, stored.Participants, 1)

	// Напарник остаётся записанным, но снова свободен.
	partner := stored.FindParticipant(b.TrainerID)
	require.NotNil(t, partner)
	assert.Nil(t, partner.PartnerID)
	assert.Nil(t, partner.PartnerNick)

	// Повторный выход и выход незаписанного — тихие no-op.
	require.NoError(t, fx.svc.Leave(ctx, tournament.ID, a.TrainerID))
	require.NoError(t, fx.svc.Leave(ctx, tournament.ID, 999))
}

func TestStartValidations(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatMonotype)

	// Пустой турнир чётный, но вне диапазона 2-18.
	_, err := fx.svc.Start(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)

	fx.enrollLeader(t, tournament.ID, "p1", models.GymTypes[0], 6, true)
	_, err = fx.svc.Start(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrOddParticipantCount)

	fx.enrollLeader(t, tournament.ID, "p2", models.GymTypes[1], 6, true)
	started, err := fx.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentActive, started.Status)
	assert.Equal(t, 1, started.CurrentRound)

	_, err = fx.svc.Start(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotPending)
}

func TestStartDoublesRequiresCompletePairs(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatDoubles)

	fx.joinDoublesPair(t, tournament.ID, "Ash", "Misty")

	// Двое одиночек дают чётное число, но без пар старт невозможен.
	team := []models.Pokemon{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
	for i, nick := range []string{"Jessie", "James"} {
		trainer := &models.Trainer{Nick: nick, Password: "pw"}
		require.NoError(t, fx.trainers.Create(context.Background(), trainer))
		_, err := fx.svc.JoinDoubles(ctx, tournament.ID, trainerActor(trainer.ID, nick), team)
		require.NoError(t, err, "joining solo player %d", i)
	}

	_, err := fx.svc.Start(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrUnpairedParticipants)
}

func TestStartGeneratesFirstRound(t *testing.T) {
	fx := newTournamentFixture(t)
	tournament := fx.createTournament(t, models.FormatMonotype)

	for i := 0; i < 6; i++ {
		fx.enrollLeader(t, tournament.ID, fmt.Sprintf("leader%d", i), models.GymTypes[i], 6, true)
	}

	started, err := fx.svc.Start(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, started.Matches, 3)

	seen := map[int]bool{}
	for _, m := range started.Matches {
		assert.Equal(t, 1, m.Round)
		require.Len(t, m.Participants, 2)
		for _, p := range m.Participants {
			assert.False(t, seen[p.TrainerID], "trainer %d seeded twice", p.TrainerID)
			seen[p.TrainerID] = true
		}
	}
	assert.Len(t, seen, 6)
}

func TestDeclareWinnerAdvancesAndCompletes(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatMonotype)

	for i := 0; i < 4; i++ {
		fx.enrollLeader(t, tournament.ID, fmt.Sprintf("leader%d", i), models.GymTypes[i], 6, true)
	}
	started, err := fx.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, started.Matches, 2)

	_, err = fx.svc.DeclareWinner(ctx, tournament.ID, "missing", []int{1})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = fx.svc.DeclareWinner(ctx, tournament.ID, started.Matches[0].ID, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	// Первый матч закрыт — раунд ещё не полон, второго раунда нет.
	w1 := started.Matches[0].Participants[0].TrainerID
	after, err := fx.svc.DeclareWinner(ctx, tournament.ID, started.Matches[0].ID, []int{w1})
	require.NoError(t, err)
	assert.Equal(t, 1, after.CurrentRound)
	assert.Len(t, after.Matches, 2)

	// Второй матч закрывает раунд: двое выживших, генерируется финал.
	w2 := started.Matches[1].Participants[1].TrainerID
	after, err = fx.svc.DeclareWinner(ctx, tournament.ID, started.Matches[1].ID, []int{w2})
	require.NoError(t, err)
	assert.Equal(t, models.TournamentActive, after.Status)
	assert.Equal(t, 2, after.CurrentRound)

	finals := after.RoundMatches(2)
	require.Len(t, finals, 1)
	assert.ElementsMatch(t, []int{w1, w2},
		[]int{finals[0].Participants[0].TrainerID, finals[0].Participants[1].TrainerID})

	// Финал: один выживший — турнир завершён, новых раундов нет.
	final, err := fx.svc.DeclareWinner(ctx, tournament.ID, finals[0].ID, []int{w2})
	require.NoError(t, err)
	assert.Equal(t, models.TournamentCompleted, final.Status)
	assert.Len(t, final.Matches, 3)
}

func TestDeclareWinnerDoublesCompletesWithWinningPair(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatDoubles)

	fx.joinDoublesPair(t, tournament.ID, "Ash", "Misty")
	fx.joinDoublesPair(t, tournament.ID, "Jessie", "James")

	started, err := fx.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, started.Matches, 1)
	require.Len(t, started.Matches[0].Participants, 4)

	// Пара победителей — ровно два выживших, турнир закрывается сразу.
	winners := []int{
		started.Matches[0].Participants[0].TrainerID,
		started.Matches[0].Participants[1].TrainerID,
	}
	done, err := fx.svc.DeclareWinner(ctx, tournament.ID, started.Matches[0].ID, winners)
	require.NoError(t, err)

	assert.Equal(t, models.TournamentCompleted, done.Status)
	assert.Equal(t, 1, done.CurrentRound)
	assert.Len(t, done.Matches, 1)
}

func TestDeclareWinnerDoublesAdvancesThroughByeRound(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatDoubles)

	fx.joinDoublesPair(t, tournament.ID, "Ash", "Misty")
	fx.joinDoublesPair(t, tournament.ID, "Jessie", "James")
	fx.joinDoublesPair(t, tournament.ID, "Lance", "Clair")

	started, err := fx.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, started.Matches, 2)

	// Нечётная третья пара уходит в bye; решается только полный матч.
	var full, bye *models.Match
	for i := range started.Matches {
		if started.Matches[i].IsBye(models.FormatDoubles) {
			bye = &started.Matches[i]
		} else {
			full = &started.Matches[i]
		}
	}
	require.NotNil(t, full)
	require.NotNil(t, bye)
	require.Len(t, bye.Winners, 2)

	winners := []int{full.Participants[0].TrainerID, full.Participants[1].TrainerID}
	after, err := fx.svc.DeclareWinner(ctx, tournament.ID, full.ID, winners)
	require.NoError(t, err)

	// Четверо выживших — больше двух, поэтому генерируется финал.
	assert.Equal(t, models.TournamentActive, after.Status)
	assert.Equal(t, 2, after.CurrentRound)

	finals := after.RoundMatches(2)
	require.Len(t, finals, 1)
	require.Len(t, finals[0].Participants, 4)

	expected := append(append([]int{}, winners...), bye.Winners...)
	got := make([]int, 0, 4)
	for _, p := range finals[0].Participants {
		got = append(got, p.TrainerID)
	}
	assert.ElementsMatch(t, expected, got)

	finalPair := []int{
		finals[0].Participants[2].TrainerID,
		finals[0].Participants[3].TrainerID,
	}
	done, err := fx.svc.DeclareWinner(ctx, tournament.ID, finals[0].ID, finalPair)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentCompleted, done.Status)
	assert.Empty(t, done.RoundMatches(3))
}

func TestToggleBanEnforcesSideCap(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatMonotype)

	fx.enrollLeader(t, tournament.ID, "p1", models.GymTypes[0], 6, true)
	fx.enrollLeader(t, tournament.ID, "p2", models.GymTypes[1], 6, true)
	started, err := fx.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)

	matchID := started.Matches[0].ID
	target := started.Matches[0].Participants[0].TrainerID

	_, err = fx.svc.ToggleBan(ctx, tournament.ID, matchID, target, "pikachu")
	require.NoError(t, err)
	match, err := fx.svc.ToggleBan(ctx, tournament.ID, matchID, target, "snorlax")
	require.NoError(t, err)
	assert.Len(t, match.Bans[target], 2)

	_, err = fx.svc.ToggleBan(ctx, tournament.ID, matchID, target, "gengar")
	assert.ErrorIs(t, err, ErrBanLimitExceeded)

	// Снятие бана разрешено и на потолке; после него место свободно.
	match, err = fx.svc.ToggleBan(ctx, tournament.ID, matchID, target, "pikachu")
	require.NoError(t, err)
	assert.Equal(t, []string{"snorlax"}, match.Bans[target])

	match, err = fx.svc.ToggleBan(ctx, tournament.ID, matchID, target, "gengar")
	require.NoError(t, err)
	assert.Len(t, match.Bans[target], 2)
}

func TestToggleBanDoublesSharesSideBudget(t *testing.T) {
	fx := newTournamentFixture(t)
	ctx := context.Background()
	tournament := fx.createTournament(t, models.FormatDoubles)

	fx.joinDoublesPair(t, tournament.ID, "Ash", "Misty")
	fx.joinDoublesPair(t, tournament.ID, "Jessie", "James")

	started, err := fx.svc.Start(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, started.Matches, 1)

	match := started.Matches[0]
	require.Len(t, match.Participants, 4)
	sideA1 := match.Participants[0].TrainerID
	sideA2 := match.Participants[1].TrainerID

	// Два бана на разных напарников одной стороны исчерпывают её бюджет.
	_, err = fx.svc.ToggleBan(ctx, tournament.ID, match.ID, sideA1, "pikachu")
	require.NoError(t, err)
	_, err = fx.svc.ToggleBan(ctx, tournament.ID, match.ID, sideA2, "staryu")
	require.NoError(t, err)

	_, err = fx.svc.ToggleBan(ctx, tournament.ID, match.ID, sideA1, "bulbasaur")
	assert.ErrorIs(t, err, ErrBanLimitExceeded)

	// Противоположная сторона банит независимо.
	sideB1 := match.Participants[2].TrainerID
	_, err = fx.svc.ToggleBan(ctx, tournament.ID, match.ID, sideB1, "meowth")
	assert.NoError(t, err)
}
