package machine

import "errors"

// InvalidArgumentError is returned when a call is malformed
// The caller must fix the call before trying again
type InvalidArgumentError string

func (i InvalidArgumentError) Error() string {
	return string(i)
}

// InvalidBettingRoundError is returned when a bet is placed while no betting round is active
// The call may succeed once a round opens
type InvalidBettingRoundError string

func (i InvalidBettingRoundError) Error() string {
	return string(i)
}

// ErrNilCard is returned when a card is required
var ErrNilCard = InvalidArgumentError("card is required")

// ErrCardAlreadyConnected is returned when the card is already connected
var ErrCardAlreadyConnected = InvalidArgumentError("card is already connected")

// ErrCardNotConnected is returned when the card is not connected to the machine
var ErrCardNotConnected = InvalidArgumentError("card is not connected")

// ErrMissingAmount is returned when a bet has no amount
var ErrMissingAmount = InvalidArgumentError("bet amount is required")

// ErrNegativeAmount is returned when a bet amount is less than zero
var ErrNegativeAmount = InvalidArgumentError("bet amount cannot be negative")

// ErrNilBet is returned when a bet is required
var ErrNilBet = InvalidArgumentError("bet is required")

// ErrBetNotResolved is returned when a prize is requested for an unresolved bet
var ErrBetNotResolved = InvalidArgumentError("bet is not resolved")

// ErrBetHasNoCard is returned when a resolved bet does not reference a card
var ErrBetHasNoCard = InvalidArgumentError("bet does not have a card")

// ErrNoGame is returned when a bet is placed before a game is assigned
var ErrNoGame = InvalidBettingRoundError("machine does not have a game")

// ErrNoBettingRound is returned when the game does not have an active betting round
var ErrNoBettingRound = InvalidBettingRoundError("there is no active betting round")

// IsInvalidArgument returns true if err is an InvalidArgumentError
func IsInvalidArgument(err error) bool {
	var target InvalidArgumentError
	return errors.As(err, &target)
}

// IsInvalidBettingRound returns true if err is an InvalidBettingRoundError
func IsInvalidBettingRound(err error) bool {
	var target InvalidBettingRoundError
	return errors.As(err, &target)
}
