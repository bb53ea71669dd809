package models

import "time"

type TournamentFormat string

const (
	FormatMonotype TournamentFormat = "monotype"
	FormatDoubles  TournamentFormat = "doubles"
)

// RequiredSurvivors — сколько id победителей должно остаться после
// раунда, чтобы турнир считался завершённым.
func (f TournamentFormat) RequiredSurvivors() int {
	if f == FormatDoubles {
		return 2
	}
	return 1
}

// UnitSize — размер юнита сетки: одиночка или сформированная пара.
func (f TournamentFormat) UnitSize() int {
	if f == FormatDoubles {
		return 2
	}
	return 1
}

type TournamentStatus string

const (
	TournamentPending   TournamentStatus = "pending"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

// Participant — запись об участии тренера в конкретном турнире.
// Команда копируется по значению при регистрации: последующие правки
// состава зала на неё не влияют.
type Participant struct {
	TrainerID  int       `json:"trainerId"`
	Nick       string    `json:"nick"`
	CustomSkin *string   `json:"customSkin,omitempty"`
	Pokemon    []Pokemon `json:"pokemon"`

	// Монотайп: из какого зала импортирована команда.
	GymType *string `json:"gymType,omitempty"`

	// Даблы: ссылка на напарника, заполняется воркфлоу приглашений.
	PartnerID   *int    `json:"partnerId,omitempty"`
	PartnerNick *string `json:"partnerNick,omitempty"`
}

// Match — партия одного раунда. Participants содержит 2 записи для
// монотайпа и 4 для даблов ([A1, A2, B1, B2]); матч с единственной
// стороной — это bye, его Winners заполнены уже при создании.
type Match struct {
	ID           string           `json:"id"`
	Round        int              `json:"round"`
	Participants []Participant    `json:"participants"`
	Winners      []int            `json:"winners"`
	Bans         map[int][]string `json:"bans"`
}

// IsBye — у матча нет второй стороны, юнит проходит дальше автоматически.
func (m *Match) IsBye(format TournamentFormat) bool {
	return len(m.Participants) <= format.UnitSize()
}

type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Format       TournamentFormat `json:"format" db:"format"`
	Status       TournamentStatus `json:"status" db:"status"`
	Participants []Participant    `json:"participants" db:"participants"`
	Matches      []Match          `json:"matches" db:"matches"`
	CurrentRound int              `json:"currentRound" db:"current_round"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// FindParticipant возвращает указатель на запись участника внутри среза
// турнира (мутации видны в самом турнире) либо nil.
func (t *Tournament) FindParticipant(trainerID int) *Participant {
	for i := range t.Participants {
		if t.Participants[i].TrainerID == trainerID {
			return &t.Participants[i]
		}
	}
	return nil
}

// FindMatch ищет матч по строковому id.
func (t *Tournament) FindMatch(matchID string) *Match {
	for i := range t.Matches {
		if t.Matches[i].ID == matchID {
			return &t.Matches[i]
		}
	}
	return nil
}

// RoundMatches возвращает матчи указанного раунда в порядке создания.
func (t *Tournament) RoundMatches(round int) []*Match {
	out := make([]*Match, 0, len(t.Matches))
	for i := range t.Matches {
		if t.Matches[i].Round == round {
			out = append(out, &t.Matches[i])
		}
	}
	return out
}
