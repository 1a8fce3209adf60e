package round

import (
	"encoding/json"
	"sync"
	"time"

	"gamingterminal-server/pkg/machine"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrRoundClosed is returned when a bet is offered to a closed round
var ErrRoundClosed = machine.InvalidBettingRoundError("betting round is closed")

// Wager is a bet accepted by a round
type Wager struct {
	ID      string       `json:"id"`
	RoundID string       `json:"roundId"`
	Card    machine.Card `json:"-"`
	Amount  int          `json:"amount"`
	Placed  time.Time    `json:"placed"`
}

// Sink is called before a wager is recorded
// If it returns an error, the wager is rejected
type Sink func(w *Wager) error

// Options configures a betting round
type Options struct {
	// MaxBets closes the round after the specified number of wagers. Zero means unlimited
	MaxBets int `json:"maxBets"`

	// Sink is an optional hook for persisting wagers
	Sink Sink `json:"-"`
}

// Round is a betting round
type Round struct {
	ID      string
	Opened  time.Time
	Closed  time.Time
	options Options

	lock   sync.Mutex
	wagers []*Wager
	closed bool
}

type roundJSON struct {
	ID       string     `json:"id"`
	Opened   time.Time  `json:"opened"`
	Closed   *time.Time `json:"closed"`
	IsClosed bool       `json:"isClosed"`
	MaxBets  int        `json:"maxBets"`
	Wagers   int        `json:"wagers"`
	Total    int        `json:"total"`
}

// MarshalJSON provides custom JSON marshalling for round
func (r *Round) MarshalJSON() ([]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	total := 0
	for _, w := range r.wagers {
		total += w.Amount
	}

	var closed *time.Time
	if r.closed {
		c := r.Closed
		closed = &c
	}

	return json.Marshal(roundJSON{
		ID:       r.ID,
		Opened:   r.Opened,
		Closed:   closed,
		IsClosed: r.closed,
		MaxBets:  r.options.MaxBets,
		Wagers:   len(r.wagers),
		Total:    total,
	})
}

func newRound(options Options) *Round {
	return &Round{
		ID:      uuid.New().String(),
		Opened:  time.Now(),
		options: options,
		wagers:  make([]*Wager, 0),
	}
}

// AcceptBet records a wager
func (r *Round) AcceptBet(card machine.Card, amount int) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return ErrRoundClosed
	}

	w := &Wager{
		ID:      uuid.New().String(),
		RoundID: r.ID,
		Card:    card,
		Amount:  amount,
		Placed:  time.Now(),
	}

	if r.options.Sink != nil {
		if err := r.options.Sink(w); err != nil {
			return err
		}
	}

	r.wagers = append(r.wagers, w)

	if r.options.MaxBets > 0 && len(r.wagers) >= r.options.MaxBets {
		logrus.WithField("round", r.ID).WithField("wagers", len(r.wagers)).Debug("bet limit reached, closing round")
		r.closeLocked()
	}

	return nil
}

// Wagers returns a copy of the accepted wagers
func (r *Round) Wagers() []*Wager {
	r.lock.Lock()
	defer r.lock.Unlock()

	wagers := make([]*Wager, len(r.wagers))
	copy(wagers, r.wagers)
	return wagers
}

// Total returns the sum of all wagers
func (r *Round) Total() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	total := 0
	for _, w := range r.wagers {
		total += w.Amount
	}

	return total
}

// IsClosed returns true if the round no longer accepts bets
func (r *Round) IsClosed() bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.closed
}

func (r *Round) close() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.closeLocked()
}

func (r *Round) closeLocked() {
	if r.closed {
		return
	}

	r.closed = true
	r.Closed = time.Now()
}
