package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Generator creates opaque URL-safe tokens for email confirmation links,
// password resets and invitations.
type Generator interface {
	NewToken() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
