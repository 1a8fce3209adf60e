package floor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gamingterminal-server/pkg/ledger"
	"gamingterminal-server/pkg/machine"
	"gamingterminal-server/pkg/round"

	"github.com/sirupsen/logrus"
)

// Terminal is a machine installed on the floor
// It owns the machine's game and the card handles that are inserted in it
type Terminal struct {
	Name    string
	Created time.Time

	floor   *Floor
	machine *machine.Machine
	game    *round.Game

	lock    sync.Mutex
	cards   map[string]*ledger.Card
	clients map[*Client]bool
	events  []*Event

	// opLock serializes bets and prizes so the machine's hand-offs know the caller's context
	opLock  sync.Mutex
	opCtx   context.Context
	lastBet *ledger.Bet
}

func newTerminal(f *Floor, name string) *Terminal {
	t := &Terminal{
		Name:    name,
		Created: time.Now(),
		floor:   f,
		machine: machine.NewMachine(),
		game:    round.NewGame(name),
		cards:   make(map[string]*ledger.Card),
		clients: make(map[*Client]bool),
		events:  make([]*Event, 0, eventLogLimit),
	}

	t.machine.SetGame(t.game)
	t.machine.SetPrizeDispenser(t)
	return t
}

// ID returns the machine ID
func (t *Terminal) ID() string {
	return t.machine.ID()
}

type terminalJSON struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Created time.Time      `json:"created"`
	Cards   []*ledger.Card `json:"cards"`
	Round   *round.Round   `json:"round"`
	Clients int            `json:"clients"`
}

// MarshalJSON provides custom JSON marshalling for terminal
func (t *Terminal) MarshalJSON() ([]byte, error) {
	cards := t.Cards()

	t.lock.Lock()
	clients := len(t.clients)
	t.lock.Unlock()

	return json.Marshal(terminalJSON{
		ID:      t.ID(),
		Name:    t.Name,
		Created: t.Created,
		Cards:   cards,
		Round:   t.game.Current(),
		Clients: clients,
	})
}

// Cards returns a copy of the cards connected to the machine in the order they were inserted
func (t *Terminal) Cards() []*ledger.Card {
	connected := t.machine.ConnectedCards()

	t.lock.Lock()
	defer t.lock.Unlock()

	cards := make([]*ledger.Card, 0, len(connected))
	for _, c := range connected {
		if lc, ok := c.(*ledger.Card); ok {
			cp := *lc
			cards = append(cards, &cp)
		}
	}

	return cards
}

// CurrentRound returns the open betting round, or nil
func (t *Terminal) CurrentRound() *round.Round {
	return t.game.Current()
}

// liveCard returns the handle of an inserted card, or nil
func (t *Terminal) liveCard(cardUUID string) *ledger.Card {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.cards[cardUUID]
}

// cardSnapshot returns a copy of an inserted card, or nil
func (t *Terminal) cardSnapshot(cardUUID string) *ledger.Card {
	t.lock.Lock()
	defer t.lock.Unlock()

	c, found := t.cards[cardUUID]
	if !found {
		return nil
	}

	cp := *c
	return &cp
}

// handle returns the live handle for the card
// Unknown cards get a fresh handle, which the machine will not recognize
func (t *Terminal) handle(cardUUID string) *ledger.Card {
	cardUUID = canonicalUUID(cardUUID)
	if c := t.liveCard(cardUUID); c != nil {
		return c
	}

	return &ledger.Card{UUID: cardUUID, Number: cardUUID}
}

// InsertCard connects a card to the machine
func (t *Terminal) InsertCard(ctx context.Context, cardUUID string) (*ledger.Card, error) {
	f := t.floor
	f.lock.Lock()
	defer f.lock.Unlock()

	card, err := f.ledger.CardByUUID(ctx, canonicalUUID(cardUUID))
	if err != nil {
		return nil, err
	}

	// checked against the ledger's UUID, any spelling of it is the same card
	if other, found := f.inserted[card.UUID]; found {
		if other != t {
			return nil, ErrCardInUse
		}

		// the machine decides what to do with a card that's already connected
		card = t.liveCard(card.UUID)
	}

	if err := t.machine.ConnectCard(card); err != nil {
		return nil, err
	}

	t.lock.Lock()
	t.cards[card.UUID] = card
	snapshot := *card
	t.lock.Unlock()
	f.inserted[card.UUID] = t

	t.broadcast(&Event{Type: EventCardInserted, Card: &snapshot})
	return &snapshot, nil
}

// EjectCard disconnects a card from the machine
func (t *Terminal) EjectCard(cardUUID string) error {
	cardUUID = canonicalUUID(cardUUID)
	f := t.floor
	f.lock.Lock()
	defer f.lock.Unlock()

	card := t.handle(cardUUID)
	if err := t.machine.DisconnectCard(card); err != nil {
		return err
	}

	t.lock.Lock()
	delete(t.cards, cardUUID)
	snapshot := *card
	t.lock.Unlock()
	delete(f.inserted, cardUUID)

	t.broadcast(&Event{Type: EventCardEjected, Card: &snapshot})
	return nil
}

// OpenRound opens a betting round
// A nil maxBets uses the floor's default, zero means the round has no limit
func (t *Terminal) OpenRound(maxBets *int) (*round.Round, error) {
	limit := t.floor.options.MaxBetsPerRound
	if maxBets != nil {
		if *maxBets < 0 {
			return nil, ledger.UserError("maxBets cannot be negative")
		}

		limit = *maxBets
	}

	r, err := t.game.Open(round.Options{
		MaxBets: limit,
		Sink:    t.recordWager,
	})
	if err != nil {
		return nil, err
	}

	t.broadcast(&Event{Type: EventRoundOpened, Round: r})
	return r, nil
}

// CloseRound closes the open betting round
func (t *Terminal) CloseRound() (*round.Round, error) {
	r, err := t.game.Close()
	if err != nil {
		return nil, err
	}

	t.broadcast(&Event{Type: EventRoundClosed, Round: r})
	return r, nil
}

// PlaceBet places a bet with an inserted card
// A nil amount is rejected by the machine
func (t *Terminal) PlaceBet(ctx context.Context, cardUUID string, amount *int) (*ledger.Bet, error) {
	card := t.handle(cardUUID)

	var bet *ledger.Bet
	err := t.withContext(ctx, func() error {
		t.lastBet = nil
		if err := t.machine.PlaceBet(card, machine.AmountFromPtr(amount)); err != nil {
			return err
		}

		bet = t.lastBet
		return nil
	})

	if err != nil {
		return nil, err
	}

	if bet == nil {
		return nil, errors.New("bet was accepted without being recorded")
	}

	t.broadcast(&Event{Type: EventBetPlaced, Bet: bet, Round: t.game.Current()})
	return bet, nil
}

// GivePrize pays out a resolved bet
func (t *Terminal) GivePrize(ctx context.Context, betID string) (*ledger.Bet, error) {
	bet, err := t.floor.ledger.BetByID(ctx, betID)
	if err != nil {
		return nil, err
	}

	if c := t.floor.CardTerminal(bet.CardUUID); c != nil {
		if live := c.liveCard(bet.CardUUID); live != nil {
			bet.BindCard(live)
		}
	}

	if bet.Card() == nil {
		card, err := t.floor.ledger.CardByUUID(ctx, bet.CardUUID)
		if err != nil {
			return nil, err
		}

		bet.BindCard(card)
	}

	if err := t.withContext(ctx, func() error {
		return t.machine.GivePrize(bet)
	}); err != nil {
		return nil, err
	}

	card, _ := bet.Card().(*ledger.Card)
	t.broadcast(&Event{Type: EventPrizeGiven, Bet: bet, Card: t.floor.snapshot(card)})
	return bet, nil
}

// Dispense implements machine.PrizeDispenser
func (t *Terminal) Dispense(card machine.Card, bet machine.Bet) error {
	lb, ok := bet.(*ledger.Bet)
	if !ok {
		return fmt.Errorf("expected *ledger.Bet, got %T", bet)
	}

	ctx, cancel := t.ledgerContext()
	defer cancel()

	balance, err := t.floor.ledger.PayBet(ctx, lb)
	if err != nil {
		return err
	}

	// the card may be inserted in a different terminal than the one paying the prize
	var owner *Terminal
	if lc, ok := card.(*ledger.Card); ok {
		owner = t.floor.CardTerminal(lc.UUID)
	}
	setBalance(owner, card, balance)

	logrus.WithFields(logrus.Fields{
		"machine": t.ID(),
		"bet":     lb.ID,
		"prize":   lb.Prize,
		"balance": balance,
	}).Info("prize credited")

	return nil
}

// recordWager persists a wager accepted by the round
func (t *Terminal) recordWager(w *round.Wager) error {
	card, ok := w.Card.(*ledger.Card)
	if !ok {
		return fmt.Errorf("expected *ledger.Card, got %T", w.Card)
	}

	ctx, cancel := t.ledgerContext()
	defer cancel()

	bet := &ledger.Bet{
		ID:        w.ID,
		CardUUID:  card.UUID,
		MachineID: t.ID(),
		RoundID:   w.RoundID,
		Amount:    w.Amount,
	}

	balance, err := t.floor.ledger.CreateBet(ctx, bet)
	if err != nil {
		return err
	}

	// runs under the machine lock, so the floor lock must not be taken here
	setBalance(t, card, balance)
	bet.BindCard(card)
	t.lastBet = bet
	return nil
}

// setBalance updates a live handle while holding the lock of the terminal it's inserted in
// owner is nil for handles that aren't inserted anywhere
func setBalance(owner *Terminal, card machine.Card, balance int) {
	lc, ok := card.(*ledger.Card)
	if !ok {
		return
	}

	if owner != nil {
		owner.lock.Lock()
		defer owner.lock.Unlock()
	}

	lc.Balance = balance
}

// withContext runs fn while the machine's hand-offs use ctx
func (t *Terminal) withContext(ctx context.Context, fn func() error) error {
	t.opLock.Lock()
	defer t.opLock.Unlock()

	t.opCtx = ctx
	defer func() {
		t.opCtx = nil
	}()

	return fn()
}

// ledgerContext must only be called from within withContext
func (t *Terminal) ledgerContext() (context.Context, context.CancelFunc) {
	ctx := t.opCtx
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithTimeout(ctx, t.floor.options.LedgerTimeout)
}

// Subscribe adds a client that receives the terminal's events
// The client is sent the current state and the recent events
func (t *Terminal) Subscribe(client *Client) {
	t.lock.Lock()
	client.terminal = t
	t.clients[client] = true
	events := make([]*Event, len(t.events))
	copy(events, t.events)
	t.lock.Unlock()

	logrus.WithField("client", client.String()).Debug("client subscribed")
	client.Send(&History{Terminal: t, Events: events})
}

// Unsubscribe removes a client
// Returns true if it was the last client
func (t *Terminal) Unsubscribe(client *Client) (lastClient bool) {
	t.lock.Lock()
	delete(t.clients, client)
	nClients := len(t.clients)
	t.lock.Unlock()

	logrus.WithField("client", client.String()).Debug("client unsubscribed")
	return nClients == 0
}

// Events returns the recent events
func (t *Terminal) Events() []*Event {
	t.lock.Lock()
	defer t.lock.Unlock()

	events := make([]*Event, len(t.events))
	copy(events, t.events)
	return events
}

// broadcast sends the event to every client and keeps it for new subscribers
// Cards in events must be snapshots, live handles change with every bet
func (t *Terminal) broadcast(e *Event) {
	e.MachineID = t.ID()
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	t.lock.Lock()
	events := append(t.events, e)
	if count := len(events); count > eventLogLimit {
		events = events[count-eventLogLimit:]
	}
	t.events = events

	clients := make([]*Client, 0, len(t.clients))
	for client := range t.clients {
		clients = append(clients, client)
	}
	t.lock.Unlock()

	for _, client := range clients {
		if !client.Send(e) {
			logrus.WithField("client", client.String()).Warn("client buffer is full, dropping event")
		}
	}
}
