// internal/routing/slug.go
//
// Slug and path helpers.
//
// • MakeSlug(title) ─ converts arbitrary text into a URL-safe slug restricted
//   to ASCII a-z, 0-9 and “-”.
// • UniqueSlug(ctx, base, exists) ─ returns base, or base plus a timestamp
//   and random suffix when base is already taken.
//
// Rules (MakeSlug)
// ----------------
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.  That strips
//    spaces, punctuation, emoji, and non-ASCII.
// 3. Collapse consecutive “-” to a single “-”.
// 4. Trim leading / trailing “-”.
// 5. If the result is empty, return "untitled-form".
//
// Notes
// -----
// • No Unicode transliteration.  A title of only non-ASCII letters falls
//   back to "untitled-form".
// • Slugs are max 100 bytes before any uniqueness suffix.

package routing

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// MakeSlug converts title → lower-kebab ASCII.
func MakeSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastWasDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			// any non-ASCII or punctuation becomes a single dash
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "untitled-form"
	}
	if len(slug) > 100 {
		slug = slug[:100]
		// trim trailing dash if the cut landed on one
		slug = strings.TrimRightFunc(slug, func(r rune) bool { return r == '-' })
	}
	return slug
}

// UniqueSlug returns base when exists reports it free, otherwise
// base-<unix ms>-<5 random [a-z0-9]>.  The suffixed form is not re-checked.
func UniqueSlug(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	taken, err := exists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return Suffixed(base, time.Now()), nil
}

// Suffixed appends the timestamp and random suffix unconditionally.
func Suffixed(base string, now time.Time) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 5)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("%s-%d-%s", base, now.UnixMilli(), b)
}
