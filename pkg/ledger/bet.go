package ledger

import (
	"time"

	"gamingterminal-server/pkg/machine"
)

// Bet is a record in the `bets` table
type Bet struct {
	ID         string    `json:"id"`
	CardUUID   string    `json:"cardUuid"`
	MachineID  string    `json:"machineId"`
	RoundID    string    `json:"roundId"`
	Amount     int       `json:"amount"`
	Resolved   bool      `json:"resolved"`
	Prize      int       `json:"prize"`
	Paid       bool      `json:"paid"`
	Created    time.Time `json:"created"`
	ResolvedAt time.Time `json:"resolvedAt"`
	Settled    time.Time `json:"settled"`

	card machine.Card
}

// IsResolved implements machine.Bet
func (b *Bet) IsResolved() bool {
	return b.Resolved
}

// Card implements machine.Bet
// The card is only available after BindCard is called
func (b *Bet) Card() machine.Card {
	return b.card
}

// BindCard attaches the card handle the bet was placed with
func (b *Bet) BindCard(card machine.Card) {
	b.card = card
}
