package token

import (
	"strings"

	"gamingterminal-server/internal/rng"
)

// alphabet leaves out characters that are easy to misread on a printed card
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var generator rng.Generator = rng.Crypto{}

// Generate returns a crypto-secure random string of length n using an unambiguous alphabet
func Generate(n int) string {
	var sb strings.Builder
	sb.Grow(n)

	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[generator.Intn(len(alphabet))])
	}

	return sb.String()
}

// CardNumber returns a random card number formatted as groups of four characters
// e.g., ABCD-EFGH-JKLM
func CardNumber(groups int) string {
	s := Generate(groups * 4)

	parts := make([]string, groups)
	for i := range parts {
		parts[i] = s[i*4 : i*4+4]
	}

	return strings.Join(parts, "-")
}
