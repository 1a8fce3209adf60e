package floor

import (
	"time"

	"gamingterminal-server/pkg/ledger"
	"gamingterminal-server/pkg/round"
)

// EventType describes what happened at a terminal
type EventType string

// EventType constants
const (
	EventCardInserted EventType = "card-inserted"
	EventCardEjected  EventType = "card-ejected"
	EventRoundOpened  EventType = "round-opened"
	EventRoundClosed  EventType = "round-closed"
	EventBetPlaced    EventType = "bet-placed"
	EventBetResolved  EventType = "bet-resolved"
	EventPrizeGiven   EventType = "prize-given"
)

// eventLogLimit is how many events a terminal keeps for newly connected clients
const eventLogLimit = 25

// Event is sent to every client subscribed to a terminal
type Event struct {
	Type      EventType    `json:"type"`
	MachineID string       `json:"machineId"`
	Card      *ledger.Card `json:"card,omitempty"`
	Bet       *ledger.Bet  `json:"bet,omitempty"`
	Round     *round.Round `json:"round,omitempty"`
	Time      time.Time    `json:"time"`
}

// History is sent to a client when it subscribes
type History struct {
	Terminal *Terminal `json:"terminal"`
	Events   []*Event  `json:"events"`
}
