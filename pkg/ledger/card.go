package ledger

import (
	"errors"
	"time"
)

// ErrCardNotFound is returned when a balance is adjusted for an unknown card
var ErrCardNotFound = errors.New("card not found")

// cardNumberGroups is how many groups of four characters make up a card number
const cardNumberGroups = 3

// Card is a record in the `cards` table
// The pointer is used as the card's identity when it is connected to a machine
type Card struct {
	UUID    string    `json:"uuid"`
	Number  string    `json:"number"`
	Holder  string    `json:"holder"`
	Balance int       `json:"balance"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Serial returns the card number
func (c *Card) Serial() string {
	return c.Number
}

// String returns a traceable identifier for the card
func (c *Card) String() string {
	return c.Number + ":" + c.UUID
}
