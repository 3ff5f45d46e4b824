// internal/form/csrf.go
//
// Stateless CSRF tokens for rendered public forms.
//
// Context
// -------
// The renderer embeds a hidden `_csrf` input.  A token is
//
//	base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
// • nonce – 16 random bytes.
// • unixMicro – issue time, 8 bytes, big-endian.
// • HMAC – keyed with security.csrf_key from config.
//
// Verification checks the signature and that the issue time lies within
// MaxAge.  No server-side state is kept, so any instance can verify a token
// another instance issued.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	maxSkew    = time.Minute

	// TokenMaxAge bounds how long a rendered form may sit open.
	TokenMaxAge = 2 * time.Hour
)

// TokenSigner issues and verifies CSRF tokens with one key.
type TokenSigner struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewTokenSigner wraps key, which must be at least 32 bytes.
func NewTokenSigner(key []byte) (*TokenSigner, error) {
	if len(key) < 32 {
		return nil, errors.New("csrf key must be at least 32 bytes")
	}
	return &TokenSigner{key: key, maxAge: TokenMaxAge, now: time.Now}, nil
}

// Generate creates a new token.  Call once per form render.
func (s *TokenSigner) Generate() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(s.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, s.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok passes the HMAC and age checks.
func (s *TokenSigner) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}
	nonce, tsBytes, sig := raw[:16], raw[16:24], raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := s.now()
	if now.Sub(issued) > s.maxAge || issued.Sub(now) > maxSkew {
		return false
	}
	return hmac.Equal(sig, s.sign(nonce, tsBytes))
}

func (s *TokenSigner) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
