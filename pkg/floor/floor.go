package floor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gamingterminal-server/internal/util"
	"gamingterminal-server/pkg/ledger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrTerminalNotFound is returned when a terminal ID is unknown
var ErrTerminalNotFound = errors.New("terminal not found")

// ErrCardInUse is returned when a card is inserted while it's in another terminal
var ErrCardInUse = ledger.UserError("card is inserted in another terminal")

// Ledger persists cards, bets and payouts
type Ledger interface {
	CreateCard(ctx context.Context, holder string, balance int) (*ledger.Card, error)
	CardByUUID(ctx context.Context, cardUUID string) (*ledger.Card, error)
	CreateBet(ctx context.Context, bet *ledger.Bet) (int, error)
	BetByID(ctx context.Context, id string) (*ledger.Bet, error)
	ResolveBet(ctx context.Context, id string, prize int) (*ledger.Bet, error)
	PayBet(ctx context.Context, bet *ledger.Bet) (int, error)
}

// Options configures the floor
type Options struct {
	// MaxBetsPerRound is used when a round is opened without maxBets. Zero means unlimited
	MaxBetsPerRound int

	// LedgerTimeout bounds ledger writes made while a machine processes a bet or a prize
	LedgerTimeout time.Duration
}

// Floor hosts the terminals and keeps track of which card is in which terminal
type Floor struct {
	ledger  Ledger
	options Options

	lock      sync.RWMutex
	terminals map[string]*Terminal
	// inserted maps a card UUID to the terminal it's inserted in
	inserted map[string]*Terminal
}

// canonicalUUID returns the card UUID in the form the ledger stores it
// Any spelling uuid.Parse accepts refers to the same card
func canonicalUUID(cardUUID string) string {
	id, err := uuid.Parse(cardUUID)
	if err != nil {
		return cardUUID
	}

	return id.String()
}

// NewFloor returns an empty floor
func NewFloor(l Ledger, options Options) *Floor {
	if options.LedgerTimeout <= 0 {
		options.LedgerTimeout = time.Second * 5
	}

	return &Floor{
		ledger:    l,
		options:   options,
		terminals: make(map[string]*Terminal),
		inserted:  make(map[string]*Terminal),
	}
}

// AddTerminal installs a new terminal
// If name is empty, a random one is picked
func (f *Floor) AddTerminal(name string) *Terminal {
	if name == "" {
		name = util.GetRandomName()
	}

	t := newTerminal(f, name)

	f.lock.Lock()
	f.terminals[t.ID()] = t
	f.lock.Unlock()

	logrus.WithFields(logrus.Fields{
		"machine": t.ID(),
		"name":    name,
	}).Info("terminal installed")

	return t
}

// Terminal returns a terminal by its ID
func (f *Floor) Terminal(id string) (*Terminal, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	t, found := f.terminals[id]
	if !found {
		return nil, ErrTerminalNotFound
	}

	return t, nil
}

// Terminals returns every terminal ordered by installation time
func (f *Floor) Terminals() []*Terminal {
	f.lock.RLock()
	terminals := make([]*Terminal, 0, len(f.terminals))
	for _, t := range f.terminals {
		terminals = append(terminals, t)
	}
	f.lock.RUnlock()

	sort.Slice(terminals, func(i, j int) bool {
		if terminals[i].Created.Equal(terminals[j].Created) {
			return terminals[i].ID() < terminals[j].ID()
		}

		return terminals[i].Created.Before(terminals[j].Created)
	})

	return terminals
}

// CreateCard issues a new card
func (f *Floor) CreateCard(ctx context.Context, holder string, balance int) (*ledger.Card, error) {
	card, err := f.ledger.CreateCard(ctx, holder, balance)
	if err != nil {
		return nil, err
	}

	logrus.WithField("card", card.String()).Info("card issued")
	return card, nil
}

// Card returns the card
// If the card is inserted in a terminal, the balance of the live handle is used
func (f *Floor) Card(ctx context.Context, cardUUID string) (*ledger.Card, error) {
	cardUUID = canonicalUUID(cardUUID)

	f.lock.RLock()
	t, found := f.inserted[cardUUID]
	f.lock.RUnlock()

	if found {
		if c := t.cardSnapshot(cardUUID); c != nil {
			return c, nil
		}
	}

	return f.ledger.CardByUUID(ctx, cardUUID)
}

// snapshot copies a card while holding the lock of the terminal it's inserted in
// Must not be called while holding the floor lock
func (f *Floor) snapshot(card *ledger.Card) *ledger.Card {
	if card == nil {
		return nil
	}

	if owner := f.CardTerminal(card.UUID); owner != nil {
		owner.lock.Lock()
		defer owner.lock.Unlock()
	}

	cp := *card
	return &cp
}

// CardTerminal returns the terminal the card is inserted in, or nil
func (f *Floor) CardTerminal(cardUUID string) *Terminal {
	f.lock.RLock()
	defer f.lock.RUnlock()

	return f.inserted[canonicalUUID(cardUUID)]
}

// Bet returns a bet from the ledger
func (f *Floor) Bet(ctx context.Context, betID string) (*ledger.Bet, error) {
	return f.ledger.BetByID(ctx, betID)
}

// ResolveBet records the outcome of a bet
// The terminal where the bet was placed is notified
func (f *Floor) ResolveBet(ctx context.Context, betID string, prize int) (*ledger.Bet, error) {
	bet, err := f.ledger.ResolveBet(ctx, betID, prize)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"bet":   bet.ID,
		"prize": prize,
	}).Info("bet resolved")

	if t, err := f.Terminal(bet.MachineID); err == nil {
		t.broadcast(&Event{Type: EventBetResolved, Bet: bet})
	}

	return bet, nil
}
