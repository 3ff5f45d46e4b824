// internal/form/csrf_test.go
//
// Run: go test ./internal/form -v

package form

import (
	"testing"
	"time"
)

func TestTokenSigner(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	s, err := NewTokenSigner(key)
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	tok, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !s.Verify(tok) {
		t.Fatalf("fresh token rejected")
	}

	other, _ := NewTokenSigner([]byte("ffffffffffffffffffffffffffffffff"))
	other.now = s.now
	if other.Verify(tok) {
		t.Fatalf("token verified under a different key")
	}

	tampered := []byte(tok)
	if tampered[40] == 'A' {
		tampered[40] = 'B'
	} else {
		tampered[40] = 'A'
	}
	if s.Verify(string(tampered)) {
		t.Fatalf("tampered token accepted")
	}

	now = now.Add(TokenMaxAge + time.Second)
	if s.Verify(tok) {
		t.Fatalf("expired token accepted")
	}

	if _, err := NewTokenSigner([]byte("short")); err == nil {
		t.Fatalf("short key accepted")
	}
}
