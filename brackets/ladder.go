// cobblemon-league/brackets/ladder.go
package brackets

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand"

	"github.com/corazonmc/cobblemon-league/models"
)

// Ladder генерирует раунды рандомизированной сетки на выбывание.
// В отличие от классической сетки с посевом, выжившие перемешиваются
// заново перед каждым раундом; позиция в предыдущем раунде ничего не
// значит. Это осознанное упрощение исходной системы, не чинить.
type Ladder struct {
	shuffle func(n int, swap func(i, j int))
	newID   func() string
}

func NewLadder() *Ladder {
	return &Ladder{
		shuffle: mrand.Shuffle,
		newID:   NewMatchID,
	}
}

// NewSeededLadder принимает собственный источник случайности. Нужен
// тестам, которым важен детерминированный порядок пар.
func NewSeededLadder(rng *mrand.Rand) *Ladder {
	return &Ladder{
		shuffle: rng.Shuffle,
		newID:   NewMatchID,
	}
}

// NewMatchID возвращает короткий случайный идентификатор матча.
func NewMatchID() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand на практике не отказывает; пустой id сломал бы
		// поиск матча, поэтому деградируем до math/rand.
		for i := range b {
			b[i] = byte(mrand.Intn(256))
		}
	}
	return hex.EncodeToString(b)
}

// unit — единица пэйринга: одиночный участник (монотайп) либо уже
// связанная пара (даблы).
type unit []models.Participant

func (u unit) trainerIDs() []int {
	ids := make([]int, len(u))
	for i, p := range u {
		ids[i] = p.TrainerID
	}
	return ids
}

// GenerateRound перемешивает участников, собирает юниты и нарезает их в
// матчи по два юнита. Нечётный хвостовой юнит становится bye-матчем: у
// него одна сторона, а Winners заполнены сразу — автопроход без действий
// игрока. Одна и та же процедура обслуживает и первый раунд, и
// продвижение выживших.
func (l *Ladder) GenerateRound(format models.TournamentFormat, participants []models.Participant, round int) []models.Match {
	shuffled := make([]models.Participant, len(participants))
	copy(shuffled, participants)
	l.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	units := buildUnits(format, shuffled)

	matches := make([]models.Match, 0, (len(units)+1)/2)
	for i := 0; i < len(units); i += 2 {
		m := models.Match{
			ID:      l.newID(),
			Round:   round,
			Winners: []int{},
			Bans:    map[int][]string{},
		}
		if i+1 < len(units) {
			m.Participants = append(append([]models.Participant{}, units[i]...), units[i+1]...)
		} else {
			m.Participants = append([]models.Participant{}, units[i]...)
			m.Winners = units[i].trainerIDs()
		}
		matches = append(matches, m)
	}
	return matches
}

// buildUnits группирует перемешанный список в юниты. Для даблов идём по
// списку и соединяем каждого необработанного участника с его
// partnerId; участники без найденного напарника в юниты не попадают
// (start() отклоняет такие турниры раньше).
func buildUnits(format models.TournamentFormat, shuffled []models.Participant) []unit {
	if format == models.FormatMonotype {
		units := make([]unit, len(shuffled))
		for i, p := range shuffled {
			units[i] = unit{p}
		}
		return units
	}

	units := make([]unit, 0, len(shuffled)/2)
	processed := make(map[int]bool, len(shuffled))
	for _, p := range shuffled {
		if processed[p.TrainerID] || p.PartnerID == nil {
			continue
		}
		for _, q := range shuffled {
			if q.TrainerID == *p.PartnerID && !processed[q.TrainerID] {
				units = append(units, unit{p, q})
				processed[p.TrainerID] = true
				processed[q.TrainerID] = true
				break
			}
		}
	}
	return units
}

// RoundComplete — у каждого матча раунда объявлен хотя бы один победитель.
func RoundComplete(t *models.Tournament) bool {
	for _, m := range t.RoundMatches(t.CurrentRound) {
		if len(m.Winners) == 0 {
			return false
		}
	}
	return true
}

// RoundWinnerIDs собирает id победителей по всем матчам текущего раунда.
func RoundWinnerIDs(t *models.Tournament) []int {
	var ids []int
	for _, m := range t.RoundMatches(t.CurrentRound) {
		ids = append(ids, m.Winners...)
	}
	return ids
}
