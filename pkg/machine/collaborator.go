package machine

// Card is a removable token that can be connected to a machine
// Cards are compared by identity, so implementations should be pointer types
type Card interface {
	// Serial returns a human-readable identifier used in logs
	Serial() string
}

// Bet is a wager placed with a card
type Bet interface {
	// IsResolved returns true once the outcome of the bet is known
	IsResolved() bool

	// Card returns the card the bet was placed with
	Card() Card
}

// Game decides when bets may be placed
type Game interface {
	// CurrentBettingRound returns the active betting round
	// If there is no active round, the second value is false
	CurrentBettingRound() (Round, bool)
}

// Round is an active betting round
type Round interface {
	// AcceptBet is called once the machine validates a bet
	AcceptBet(card Card, amount int) error
}

// PrizeDispenser credits the prize of a resolved bet
type PrizeDispenser interface {
	Dispense(card Card, bet Bet) error
}
