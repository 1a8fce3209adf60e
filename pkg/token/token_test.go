package token

import (
	"strings"
	"testing"

	"gamingterminal-server/internal/rng"

	"github.com/stretchr/testify/assert"
)

// sequence returns 0, 1, 2... wrapping at n
type sequence struct {
	next int
}

func (s *sequence) Intn(n int) int {
	v := s.next % n
	s.next++
	return v
}

func TestGenerate(t *testing.T) {
	token := Generate(8)
	assert.Equal(t, 8, len(token))

	token2 := Generate(8)
	assert.NotEqual(t, token, token2)

	for _, r := range token + token2 {
		assert.True(t, strings.ContainsRune(alphabet, r))
	}
}

func TestCardNumber(t *testing.T) {
	assert.Regexp(t, "^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$", CardNumber(3))

	defer func(g rng.Generator) {
		generator = g
	}(generator)

	generator = &sequence{}
	assert.Equal(t, "ABCD-EFGH", CardNumber(2))
	assert.Equal(t, "JKLM", CardNumber(1))
}
