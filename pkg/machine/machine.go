package machine

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Machine is a gaming terminal
// It tracks the connected cards, validates bets against the game's betting round
// and settles resolved bets
type Machine struct {
	id  string
	log *logrus.Entry

	lock sync.Mutex

	// cards keeps the connection order, connected is used for membership
	cards     []Card
	connected map[Card]struct{}

	game      Game
	dispenser PrizeDispenser
}

// NewMachine returns a machine with no cards and no game
func NewMachine() *Machine {
	id := uuid.New().String()
	return &Machine{
		id:        id,
		log:       logrus.WithField("machine", id),
		cards:     make([]Card, 0),
		connected: make(map[Card]struct{}),
	}
}

// ID returns the unique machine identifier
func (m *Machine) ID() string {
	return m.id
}

// ConnectCard connects a card to the machine
func (m *Machine) ConnectCard(card Card) error {
	if isNil(card) {
		return ErrNilCard
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if _, found := m.connected[card]; found {
		return ErrCardAlreadyConnected
	}

	m.connected[card] = struct{}{}
	m.cards = append(m.cards, card)

	m.log.WithField("card", card.Serial()).Debug("card connected")
	return nil
}

// DisconnectCard removes a connected card from the machine
func (m *Machine) DisconnectCard(card Card) error {
	if isNil(card) {
		return ErrNilCard
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if _, found := m.connected[card]; !found {
		return ErrCardNotConnected
	}

	delete(m.connected, card)
	for i, c := range m.cards {
		if c == card {
			m.cards = append(m.cards[:i], m.cards[i+1:]...)
			break
		}
	}

	m.log.WithField("card", card.Serial()).Debug("card disconnected")
	return nil
}

// ConnectedCards returns a snapshot of the connected cards in the order they were connected
func (m *Machine) ConnectedCards() []Card {
	m.lock.Lock()
	defer m.lock.Unlock()

	cards := make([]Card, len(m.cards))
	copy(cards, m.cards)
	return cards
}

// IsConnected returns true if the card is connected to the machine
func (m *Machine) IsConnected(card Card) bool {
	if isNil(card) {
		return false
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	_, found := m.connected[card]
	return found
}

// SetGame assigns the game. A nil game removes the current one
func (m *Machine) SetGame(game Game) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if isNil(game) {
		game = nil
	}

	m.game = game
}

// Game returns the assigned game, or nil
func (m *Machine) Game() Game {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.game
}

// SetPrizeDispenser sets who is responsible for crediting prizes
func (m *Machine) SetPrizeDispenser(dispenser PrizeDispenser) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if isNil(dispenser) {
		dispenser = nil
	}

	m.dispenser = dispenser
}

// PlaceBet validates a bet and hands it off to the current betting round
func (m *Machine) PlaceBet(card Card, value NullAmount) error {
	if !value.Valid {
		return ErrMissingAmount
	}

	if value.Amount < 0 {
		return ErrNegativeAmount
	}

	if isNil(card) {
		return ErrCardNotConnected
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if _, found := m.connected[card]; !found {
		return ErrCardNotConnected
	}

	if m.game == nil {
		return ErrNoGame
	}

	// the round can close between calls, so it must be checked every time
	round, ok := m.game.CurrentBettingRound()
	if !ok || isNil(round) {
		return ErrNoBettingRound
	}

	if err := round.AcceptBet(card, value.Amount); err != nil {
		return fmt.Errorf("bet was not accepted: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"card":   card.Serial(),
		"amount": value.Amount,
	}).Info("bet placed")

	return nil
}

// GivePrize settles a resolved bet by crediting the bet's card
func (m *Machine) GivePrize(bet Bet) error {
	if isNil(bet) {
		return ErrNilBet
	}

	if !bet.IsResolved() {
		return ErrBetNotResolved
	}

	card := bet.Card()
	if isNil(card) {
		return ErrBetHasNoCard
	}

	m.lock.Lock()
	dispenser := m.dispenser
	m.lock.Unlock()

	log := m.log.WithField("card", card.Serial())
	if dispenser == nil {
		log.Warn("no prize dispenser set, prize was not credited")
		return nil
	}

	if err := dispenser.Dispense(card, bet); err != nil {
		return fmt.Errorf("could not dispense prize: %w", err)
	}

	log.Info("prize given")
	return nil
}

// isNil returns true for nil interfaces and interfaces holding a nil pointer
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}

	return false
}
