package models

type BattleStatus string

const (
	BattleScheduled BattleStatus = "scheduled"
	BattleCompleted BattleStatus = "completed"
)

type BattleResult string

const (
	ResultLeaderWin     BattleResult = "leader_win"
	ResultChallengerWin BattleResult = "challenger_win"
)

// Battle — запланированный или завершённый бой за значок.
type Battle struct {
	ID             string       `json:"id"`
	ChallengerNick string       `json:"challengerNick"`
	Date           string       `json:"date"`
	Time           string       `json:"time"`
	Status         BattleStatus `json:"status"`
	Result         BattleResult `json:"result,omitempty"`
}

const GymTeamSize = 6

// Gym — один из 18 фиксированных залов. Записи создаются один раз при
// инициализации базы и никогда не удаляются; reset лишь возвращает зал
// в незанятое состояние.
type Gym struct {
	Tipo         string     `json:"tipo" db:"tipo"`
	Lider        string     `json:"lider" db:"lider"`
	LiderSkin    *string    `json:"liderSkin,omitempty" db:"lider_skin"`
	Time         []*Pokemon `json:"time" db:"team"`
	Challengers  []string   `json:"challengers" db:"challengers"`
	ActiveBattle *Battle    `json:"activeBattle,omitempty" db:"active_battle"`
	History      []Battle   `json:"history" db:"history"`
}

// GymTypes — глобальный список типов залов (ключи записей).
var GymTypes = []string{
	"agua", "dragao", "eletrico", "fada", "fantasma", "fogo",
	"gelo", "inseto", "lutador", "metalico", "normal", "pedra",
	"planta", "psiquico", "sombrio", "terra", "venenoso", "voador",
}

// EmptyGym возвращает зал в начальном состоянии для данного типа.
func EmptyGym(tipo string) *Gym {
	return &Gym{
		Tipo:        tipo,
		Lider:       "",
		Time:        make([]*Pokemon, GymTeamSize),
		Challengers: []string{},
		History:     []Battle{},
	}
}
