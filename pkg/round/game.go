package round

import (
	"errors"
	"sync"

	"gamingterminal-server/pkg/machine"

	"github.com/sirupsen/logrus"
)

// ErrRoundOpen is returned when a round is opened while another one is active
var ErrRoundOpen = errors.New("a betting round is already open")

// ErrNoRound is returned when there is no open round
var ErrNoRound = errors.New("there is no open betting round")

// Game hands out betting rounds that are opened and closed by an operator
type Game struct {
	Name string

	lock    sync.Mutex
	current *Round
	history []*Round
}

// NewGame returns a game without an open round
func NewGame(name string) *Game {
	return &Game{
		Name:    name,
		history: make([]*Round, 0),
	}
}

// Open starts a new betting round
func (g *Game) Open(options Options) (*Round, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.current != nil && !g.current.IsClosed() {
		return nil, ErrRoundOpen
	}

	g.current = newRound(options)
	g.history = append(g.history, g.current)

	logrus.WithFields(logrus.Fields{
		"game":    g.Name,
		"round":   g.current.ID,
		"maxBets": options.MaxBets,
	}).Info("betting round opened")

	return g.current, nil
}

// Close ends the open betting round
func (g *Game) Close() (*Round, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.current == nil || g.current.IsClosed() {
		return nil, ErrNoRound
	}

	r := g.current
	r.close()
	g.current = nil

	logrus.WithFields(logrus.Fields{
		"game":   g.Name,
		"round":  r.ID,
		"total":  r.Total(),
		"wagers": len(r.Wagers()),
	}).Info("betting round closed")

	return r, nil
}

// Current returns the open round, or nil
func (g *Game) Current() *Round {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.current == nil || g.current.IsClosed() {
		return nil
	}

	return g.current
}

// Rounds returns every round the game has opened
func (g *Game) Rounds() []*Round {
	g.lock.Lock()
	defer g.lock.Unlock()

	rounds := make([]*Round, len(g.history))
	copy(rounds, g.history)
	return rounds
}

// CurrentBettingRound implements machine.Game
func (g *Game) CurrentBettingRound() (machine.Round, bool) {
	r := g.Current()
	if r == nil {
		return nil, false
	}

	return r, true
}
