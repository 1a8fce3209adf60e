package ledger

import (
	"errors"

	"github.com/lib/pq"
)

// UserError is an error that is safe to return in a response
type UserError string

func (u UserError) Error() string {
	return string(u)
}

// ErrInsufficientFunds is returned when a card's balance would drop below zero
var ErrInsufficientFunds = UserError("insufficient funds")

// ErrAlreadyResolved is returned when a bet is resolved twice
var ErrAlreadyResolved = UserError("bet is already resolved")

// ErrNotResolved is returned when an unresolved bet is paid
var ErrNotResolved = UserError("bet is not resolved")

// ErrAlreadyPaid is returned when the prize of a bet was already paid
var ErrAlreadyPaid = UserError("prize was already paid")

// ErrNegativePrize is returned when a bet is resolved with a negative prize
var ErrNegativePrize = UserError("prize cannot be negative")

const (
	pqCheckViolationErrorCode pq.ErrorCode = "23514"
	pqNoDataFoundErrorCode    pq.ErrorCode = "P0002"
)

// translate maps postgres constraint errors to ledger errors
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqCheckViolationErrorCode:
			return ErrInsufficientFunds
		case pqNoDataFoundErrorCode:
			return ErrCardNotFound
		}
	}

	return err
}
