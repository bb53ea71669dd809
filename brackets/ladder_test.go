package brackets

import (
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corazonmc/cobblemon-league/models"
)

func monotypePlayers(n int) []models.Participant {
	out := make([]models.Participant, n)
	for i := range out {
		out[i] = models.Participant{TrainerID: i + 1, Nick: string(rune('a' + i))}
	}
	return out
}

func pairedPlayers(pairs int) []models.Participant {
	out := make([]models.Participant, 0, pairs*2)
	for i := 0; i < pairs; i++ {
		a := models.Participant{TrainerID: i*2 + 1}
		b := models.Participant{TrainerID: i*2 + 2}
		a.PartnerID = &b.TrainerID
		b.PartnerID = &a.TrainerID
		out = append(out, a, b)
	}
	return out
}

func seededLadder(t *testing.T) *Ladder {
	t.Helper()
	return NewSeededLadder(mrand.New(mrand.NewSource(42)))
}

func TestGenerateRoundMonotypeEvenCount(t *testing.T) {
	matches := seededLadder(t).GenerateRound(models.FormatMonotype, monotypePlayers(6), 1)

	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, 1, m.Round)
		assert.Len(t, m.Participants, 2)
		assert.Empty(t, m.Winners)
		assert.NotEmpty(t, m.ID)
		assert.NotNil(t, m.Bans)
	}
}

func TestGenerateRoundConservesParticipants(t *testing.T) {
	players := monotypePlayers(9)
	matches := seededLadder(t).GenerateRound(models.FormatMonotype, players, 2)

	seen := map[int]int{}
	for _, m := range matches {
		for _, p := range m.Participants {
			seen[p.TrainerID]++
		}
	}
	require.Len(t, seen, len(players))
	for id, count := range seen {
		assert.Equal(t, 1, count, "trainer %d placed more than once", id)
	}
}

func TestGenerateRoundOddUnitBecomesBye(t *testing.T) {
	matches := seededLadder(t).GenerateRound(models.FormatMonotype, monotypePlayers(5), 1)

	require.Len(t, matches, 3)

	var byes int
	for _, m := range matches {
		if m.IsBye(models.FormatMonotype) {
			byes++
			require.Len(t, m.Participants, 1)
			// Бай проходит дальше без действий игрока.
			assert.Equal(t, []int{m.Participants[0].TrainerID}, m.Winners)
		}
	}
	assert.Equal(t, 1, byes)
}

func TestGenerateRoundDoublesKeepsPairsTogether(t *testing.T) {
	players := pairedPlayers(3) // 6 участников, 3 пары
	matches := seededLadder(t).GenerateRound(models.FormatDoubles, players, 1)

	require.Len(t, matches, 2)

	for _, m := range matches {
		for i := 0; i+1 < len(m.Participants); i += 2 {
			a, b := m.Participants[i], m.Participants[i+1]
			require.NotNil(t, a.PartnerID)
			assert.Equal(t, b.TrainerID, *a.PartnerID, "units must hold linked partners side by side")
		}
	}

	// Нечётная третья пара — bye с автопроходом обоих напарников.
	var bye *models.Match
	for i := range matches {
		if matches[i].IsBye(models.FormatDoubles) {
			bye = &matches[i]
		}
	}
	require.NotNil(t, bye)
	assert.Len(t, bye.Winners, 2)
}

func TestGenerateRoundDoublesSkipsUnpartnered(t *testing.T) {
	players := pairedPlayers(2)
	players = append(players, models.Participant{TrainerID: 99}) // без пары

	matches := seededLadder(t).GenerateRound(models.FormatDoubles, players, 1)

	require.Len(t, matches, 1)
	assert.Len(t, matches[0].Participants, 4)
	for _, p := range matches[0].Participants {
		assert.NotEqual(t, 99, p.TrainerID)
	}
}

func TestRoundCompleteAndWinnerIDs(t *testing.T) {
	tournament := &models.Tournament{
		CurrentRound: 1,
		Matches: []models.Match{
			{ID: "m1", Round: 1, Winners: []int{1}},
			{ID: "m2", Round: 1, Winners: []int{}},
			{ID: "old", Round: 0, Winners: []int{7}},
		},
	}
	assert.False(t, RoundComplete(tournament))

	tournament.Matches[1].Winners = []int{4}
	assert.True(t, RoundComplete(tournament))
	assert.ElementsMatch(t, []int{1, 4}, RoundWinnerIDs(tournament))
}

func TestNewMatchIDShapeAndUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewMatchID()
		require.Len(t, id, 10)
		assert.False(t, seen[id], "duplicate match id %s", id)
		seen[id] = true
	}
}
