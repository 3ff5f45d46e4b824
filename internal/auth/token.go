// internal/auth/token.go
//
// Signed session tokens (JWT, HS256).
//
// Context
// -------
// Identity is an external collaborator: some upstream login flow proves who
// the caller is and asks Signer.Issue for a token.  Management requests carry
// that token either as the `forms_session` cookie or as an
// `Authorization: Bearer …` header.  Parse verifies the signature, the
// algorithm, and the expiry, and hands back the owner ID.
//
// Notes
// -----
// • Only HS256 is accepted.  A token signed with any other method is
//   rejected before the key is consulted.
// • Oxford commas, two spaces after periods.

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of an issued session token.
const DefaultTTL = 14 * 24 * time.Hour

// ErrInvalidToken covers every parse, signature, and expiry failure.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the JWT payload.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies tokens with one shared secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer.  ttl <= 0 selects DefaultTTL.
func NewSigner(secret []byte, ttl time.Duration) (*Signer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes, got %d", len(secret))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// TTL is how long issued tokens live.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Issue signs a token for userID.
func (s *Signer) Issue(userID, email string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}
	now := s.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies raw and returns its claims.
func (s *Signer) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || tok == nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
