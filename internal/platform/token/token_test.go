package token

import (
	"strings"
	"testing"
)

func TestRandomGenerator_NewToken(t *testing.T) {
	g := NewRandomGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := g.NewToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		if tok == "" {
			t.Fatalf("empty token")
		}
		// Raw URL-safe base64: no padding, nothing that needs escaping in
		// a query string.
		if strings.ContainsAny(tok, "+/=") {
			t.Fatalf("token is not URL safe: %q", tok)
		}
		if _, ok := seen[tok]; ok {
			t.Fatalf("duplicate token: %q", tok)
		}
		seen[tok] = struct{}{}
	}
}
