package machine

import "strconv"

// NullAmount is a wager amount that may be absent
type NullAmount struct {
	Amount int
	Valid  bool
}

// Amount returns a valid NullAmount
func Amount(amount int) NullAmount {
	return NullAmount{Amount: amount, Valid: true}
}

// AmountFromPtr returns an absent NullAmount if amount is nil
func AmountFromPtr(amount *int) NullAmount {
	if amount == nil {
		return NullAmount{}
	}

	return Amount(*amount)
}

func (n NullAmount) String() string {
	if !n.Valid {
		return "<none>"
	}

	return strconv.Itoa(n.Amount)
}
