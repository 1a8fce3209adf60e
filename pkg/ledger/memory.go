package ledger

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"gamingterminal-server/pkg/token"

	"github.com/google/uuid"
)

// Memory is an in-process ledger
// It is used when no database is configured. Records are copied on the way in and out,
// so callers get a new pointer on every load, the same as with Postgres
type Memory struct {
	lock  sync.Mutex
	cards map[string]Card
	bets  map[string]Bet
}

// NewMemory returns an empty in-process ledger
func NewMemory() *Memory {
	return &Memory{
		cards: make(map[string]Card),
		bets:  make(map[string]Bet),
	}
}

func now() time.Time {
	return time.Now().In(time.UTC)
}

// CreateCard issues a new card
func (m *Memory) CreateCard(ctx context.Context, holder string, balance int) (*Card, error) {
	if balance < 0 {
		return nil, ErrInsufficientFunds
	}

	number := token.CardNumber(cardNumberGroups)

	m.lock.Lock()
	defer m.lock.Unlock()

	c := Card{
		UUID:    uuid.New().String(),
		Number:  number,
		Holder:  holder,
		Balance: balance,
		Created: now(),
		Updated: now(),
	}

	m.cards[c.UUID] = c
	return &c, nil
}

// CardByUUID returns a card by its UUID
func (m *Memory) CardByUUID(ctx context.Context, cardUUID string) (*Card, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	c, found := m.cards[strings.ToLower(cardUUID)]
	if !found {
		return nil, sql.ErrNoRows
	}

	return &c, nil
}

// CardByNumber returns a card by the number printed on it
func (m *Memory) CardByNumber(ctx context.Context, number string) (*Card, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, c := range m.cards {
		if c.Number == strings.ToUpper(number) {
			return &c, nil
		}
	}

	return nil, sql.ErrNoRows
}

// AdjustBalance changes the balance of the card
func (m *Memory) AdjustBalance(ctx context.Context, card *Card, amount int, reason string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	balance, err := m.adjustBalanceLocked(card.UUID, amount)
	if err != nil {
		return err
	}

	card.Balance = balance
	return nil
}

func (m *Memory) adjustBalanceLocked(cardUUID string, amount int) (int, error) {
	c, found := m.cards[cardUUID]
	if !found {
		return 0, ErrCardNotFound
	}

	if c.Balance+amount < 0 {
		return 0, ErrInsufficientFunds
	}

	c.Balance += amount
	c.Updated = now()
	m.cards[cardUUID] = c
	return c.Balance, nil
}

// CreateBet persists the bet and debits the stake from the card
func (m *Memory) CreateBet(ctx context.Context, bet *Bet) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if bet.ID == "" {
		bet.ID = uuid.New().String()
	}

	balance, err := m.adjustBalanceLocked(bet.CardUUID, -1*bet.Amount)
	if err != nil {
		return 0, err
	}

	bet.Created = now()
	record := *bet
	record.card = nil
	m.bets[bet.ID] = record

	return balance, nil
}

// BetByID returns a bet
func (m *Memory) BetByID(ctx context.Context, id string) (*Bet, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	b, found := m.bets[strings.ToLower(id)]
	if !found {
		return nil, sql.ErrNoRows
	}

	return &b, nil
}

// ResolveBet records the outcome of a bet
func (m *Memory) ResolveBet(ctx context.Context, id string, prize int) (*Bet, error) {
	if prize < 0 {
		return nil, ErrNegativePrize
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	b, found := m.bets[strings.ToLower(id)]
	if !found {
		return nil, sql.ErrNoRows
	}

	if b.Resolved {
		return nil, ErrAlreadyResolved
	}

	b.Resolved = true
	b.Prize = prize
	b.ResolvedAt = now()
	m.bets[b.ID] = b

	return &b, nil
}

// PayBet credits the prize to the bet's card and marks the bet as paid
func (m *Memory) PayBet(ctx context.Context, bet *Bet) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	current, found := m.bets[bet.ID]
	if !found {
		return 0, sql.ErrNoRows
	}

	if !current.Resolved {
		return 0, ErrNotResolved
	}

	if current.Paid {
		return 0, ErrAlreadyPaid
	}

	balance, err := m.adjustBalanceLocked(current.CardUUID, current.Prize)
	if err != nil {
		return 0, err
	}

	current.Paid = true
	current.Settled = now()
	m.bets[current.ID] = current

	bet.Paid = true
	bet.Settled = current.Settled
	return balance, nil
}
