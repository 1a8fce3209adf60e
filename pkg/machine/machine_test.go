package machine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testCard struct {
	serial string
}

func (t *testCard) Serial() string {
	return t.serial
}

func card(serial string) *testCard {
	return &testCard{serial: serial}
}

type testBet struct {
	resolved bool
	card     Card
}

func (t *testBet) IsResolved() bool {
	return t.resolved
}

func (t *testBet) Card() Card {
	return t.card
}

type testRound struct {
	accepted []int
	err      error
}

func (t *testRound) AcceptBet(card Card, amount int) error {
	if t.err != nil {
		return t.err
	}

	t.accepted = append(t.accepted, amount)
	return nil
}

// testGame returns the round for the first n calls and nothing after that
type testGame struct {
	round *testRound
	n     int
	calls int
}

func (t *testGame) CurrentBettingRound() (Round, bool) {
	t.calls++
	if t.n >= 0 && t.calls > t.n {
		return nil, false
	}

	return t.round, true
}

func openGame() *testGame {
	return &testGame{round: &testRound{}, n: -1}
}

type testDispenser struct {
	cards []Card
	err   error
}

func (t *testDispenser) Dispense(card Card, bet Bet) error {
	if t.err != nil {
		return t.err
	}

	t.cards = append(t.cards, card)
	return nil
}

func TestNewMachine(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	a.NotNil(m)
	a.NotEmpty(m.ID())
	a.Empty(m.ConnectedCards())
	a.Nil(m.Game())
	a.NotEqual(m.ID(), NewMachine().ID())
}

func TestMachine_ConnectCard(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	c1 := card("c1")
	c2 := card("c2")

	a.NoError(m.ConnectCard(c1))
	a.Contains(m.ConnectedCards(), c1)
	a.True(m.IsConnected(c1))

	a.NoError(m.ConnectCard(c2))
	a.Equal([]Card{c1, c2}, m.ConnectedCards())

	// equal values are still different cards
	a.NoError(m.ConnectCard(card("c1")))
	a.Len(m.ConnectedCards(), 3)
}

func TestMachine_ConnectCard_errors(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	a.Equal(ErrNilCard, m.ConnectCard(nil))

	var typedNil *testCard
	a.Equal(ErrNilCard, m.ConnectCard(typedNil))

	c := card("c1")
	a.NoError(m.ConnectCard(c))

	err := m.ConnectCard(c)
	a.Equal(ErrCardAlreadyConnected, err)
	a.True(IsInvalidArgument(err))
	a.False(IsInvalidBettingRound(err))
	a.Len(m.ConnectedCards(), 1)
}

func TestMachine_ConnectCard_concurrent(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	c := card("c1")

	const workers = 50
	var wg sync.WaitGroup
	results := make(chan error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- m.ConnectCard(c)
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	connected := 0
	for err := range results {
		if err == nil {
			connected++
			continue
		}

		a.Equal(ErrCardAlreadyConnected, err)
	}

	a.Equal(1, connected)
	a.Equal([]Card{c}, m.ConnectedCards())
}

func TestMachine_concurrentCards(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	game := openGame()
	m.SetGame(game)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c := card("c")
			for j := 0; j < 10; j++ {
				a.NoError(m.ConnectCard(c))
				a.NoError(m.PlaceBet(c, Amount(1)))
				a.True(m.IsConnected(c))
				a.NoError(m.DisconnectCard(c))
			}
		}()
	}

	wg.Wait()
	a.Empty(m.ConnectedCards())
	a.Len(game.round.accepted, 200)
}

func TestMachine_DisconnectCard(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	c1 := card("c1")
	c2 := card("c2")

	a.NoError(m.ConnectCard(c1))
	a.NoError(m.ConnectCard(c2))

	a.NoError(m.DisconnectCard(c2))
	a.NotContains(m.ConnectedCards(), c2)
	a.Contains(m.ConnectedCards(), c1)

	a.NoError(m.DisconnectCard(c1))
	a.NotContains(m.ConnectedCards(), c1)
	a.Empty(m.ConnectedCards())

	// can be connected again
	a.NoError(m.ConnectCard(c1))
	a.True(m.IsConnected(c1))
}

func TestMachine_DisconnectCard_errors(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	c := card("c1")
	a.NoError(m.ConnectCard(c))

	a.Equal(ErrNilCard, m.DisconnectCard(nil))
	a.Equal(ErrCardNotConnected, m.DisconnectCard(card("c2")))
	a.True(IsInvalidArgument(m.DisconnectCard(card("c1"))))
	a.Equal([]Card{c}, m.ConnectedCards())

	a.NoError(m.DisconnectCard(c))
	a.Equal(ErrCardNotConnected, m.DisconnectCard(c))
}

func TestMachine_ConnectedCards_isSnapshot(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	c := card("c1")
	a.NoError(m.ConnectCard(c))

	cards := m.ConnectedCards()
	cards[0] = card("intruder")

	a.Equal([]Card{c}, m.ConnectedCards())
}

func TestMachine_PlaceBet(t *testing.T) {
	a := assert.New(t)

	g := openGame()
	m := NewMachine()
	m.SetGame(g)
	c := card("c1")
	a.NoError(m.ConnectCard(c))

	a.NoError(m.PlaceBet(c, Amount(1)))
	a.NoError(m.PlaceBet(c, Amount(0)))
	a.Equal([]int{1, 0}, g.round.accepted)
}

func TestMachine_PlaceBet_invalidArguments(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	m.SetGame(openGame())
	c := card("c1")
	a.NoError(m.ConnectCard(c))

	a.Equal(ErrMissingAmount, m.PlaceBet(c, NullAmount{}))
	a.Equal(ErrMissingAmount, m.PlaceBet(c, AmountFromPtr(nil)))
	a.Equal(ErrNegativeAmount, m.PlaceBet(c, Amount(-1)))
	a.Equal(ErrCardNotConnected, m.PlaceBet(card("c2"), Amount(1)))
	a.Equal(ErrCardNotConnected, m.PlaceBet(nil, Amount(1)))
}

func TestMachine_PlaceBet_validationOrder(t *testing.T) {
	a := assert.New(t)

	// no game and no connected card: argument errors win
	m := NewMachine()
	unknown := card("unknown")
	a.Equal(ErrMissingAmount, m.PlaceBet(unknown, NullAmount{}))
	a.Equal(ErrNegativeAmount, m.PlaceBet(unknown, Amount(-5)))
	a.Equal(ErrCardNotConnected, m.PlaceBet(unknown, Amount(5)))

	a.NoError(m.ConnectCard(unknown))
	err := m.PlaceBet(unknown, Amount(5))
	a.Equal(ErrNoGame, err)
	a.True(IsInvalidBettingRound(err))
	a.False(IsInvalidArgument(err))
}

func TestMachine_PlaceBet_noBettingRound(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	c := card("c1")
	a.NoError(m.ConnectCard(c))

	m.SetGame(&testGame{n: 0})
	err := m.PlaceBet(c, Amount(1))
	a.Equal(ErrNoBettingRound, err)
	a.True(IsInvalidBettingRound(err))

	// a typed nil round counts as no round
	var nilRound *testRound
	m.SetGame(&testGame{round: nilRound, n: -1})
	a.Equal(ErrNoBettingRound, m.PlaceBet(c, Amount(1)))

	m.SetGame(nil)
	a.Equal(ErrNoGame, m.PlaceBet(c, Amount(1)))
}

func TestMachine_PlaceBet_roundCloses(t *testing.T) {
	a := assert.New(t)

	g := &testGame{round: &testRound{}, n: 3}
	m := NewMachine()
	m.SetGame(g)
	c := card("c1")
	a.NoError(m.ConnectCard(c))

	a.NoError(m.PlaceBet(c, Amount(1)))
	a.NoError(m.PlaceBet(c, Amount(0)))
	a.NoError(m.PlaceBet(c, Amount(0)))

	err := m.PlaceBet(c, Amount(1))
	a.Equal(ErrNoBettingRound, err)
	a.True(IsInvalidBettingRound(err))
	a.Equal(4, g.calls)
	a.Equal([]int{1, 0, 0}, g.round.accepted)
}

func TestMachine_PlaceBet_roundRejects(t *testing.T) {
	a := assert.New(t)

	rejected := errors.New("table limit")
	m := NewMachine()
	m.SetGame(&testGame{round: &testRound{err: rejected}, n: -1})
	c := card("c1")
	a.NoError(m.ConnectCard(c))

	err := m.PlaceBet(c, Amount(10))
	a.ErrorIs(err, rejected)
	a.False(IsInvalidArgument(err))
	a.False(IsInvalidBettingRound(err))
	a.True(m.IsConnected(c))
}

func TestMachine_GivePrize(t *testing.T) {
	a := assert.New(t)

	m := NewMachine()
	c := card("c1")
	bet := &testBet{resolved: true, card: c}

	// without a dispenser the prize is accepted but not credited
	a.NoError(m.GivePrize(bet))

	d := &testDispenser{}
	m.SetPrizeDispenser(d)
	a.NoError(m.GivePrize(bet))
	a.Equal([]Card{c}, d.cards)

	// the card does not need to be connected
	a.False(m.IsConnected(c))
}

func TestMachine_GivePrize_errors(t *testing.T) {
	a := assert.New(t)

	d := &testDispenser{}
	m := NewMachine()
	m.SetPrizeDispenser(d)

	a.Equal(ErrNilBet, m.GivePrize(nil))

	var typedNil *testBet
	a.Equal(ErrNilBet, m.GivePrize(typedNil))

	err := m.GivePrize(&testBet{resolved: false, card: card("c1")})
	a.Equal(ErrBetNotResolved, err)
	a.True(IsInvalidArgument(err))

	a.Equal(ErrBetHasNoCard, m.GivePrize(&testBet{resolved: true}))
	a.Empty(d.cards)

	failed := errors.New("ledger offline")
	d.err = failed
	a.ErrorIs(m.GivePrize(&testBet{resolved: true, card: card("c1")}), failed)
}

func TestNullAmount(t *testing.T) {
	a := assert.New(t)

	a.Equal("<none>", NullAmount{}.String())
	a.Equal("25", Amount(25).String())

	v := 7
	a.Equal(Amount(7), AmountFromPtr(&v))
}
