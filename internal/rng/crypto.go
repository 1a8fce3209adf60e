package rng

import (
	"crypto/rand"
	"math/big"
)

// Crypto draws from crypto/rand
// Card numbers are printed on cards and must not be predictable
type Crypto struct{}

// Intn returns a random number in [0, n)
func (c Crypto) Intn(n int) int {
	b, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}

	return int(b.Int64())
}
