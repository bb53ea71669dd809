package models

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

// Invite — предложение сформировать пару перед турниром в формате даблов.
// Статус меняется один раз: pending -> accepted|rejected.
type Invite struct {
	ID             int          `json:"id" db:"id"`
	TournamentID   int          `json:"tournamentId" db:"tournament_id"`
	TournamentName string       `json:"tournamentName" db:"tournament_name"`
	FromNick       string       `json:"fromNick" db:"from_nick"`
	ToNick         string       `json:"toNick" db:"to_nick"`
	Status         InviteStatus `json:"status" db:"status"`
}
