// internal/auth/context.go
//
// Request-scoped principal helpers.
//
// Usage
// -----
//     // Attach the signed-in owner to the request context.
//     ctx = auth.WithUser(ctx, "u_123")
//
//     // Downstream code retrieves the ID.
//     id, ok := auth.UserID(ctx)   // "u_123", true
//
// Notes
// -----
// • Owner IDs are opaque strings issued by the identity provider.  The
//   forms service never interprets them beyond equality.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying the given userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID extracts the userID from ctx.  It returns ("", false) if no user is
// set or the stored value is empty.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}
