// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
This handler sits high in the chain, immediately after request logging
but before the component routers.  For every request it:

  1. Parses the User-Agent header.
  2. Extracts the left-most client IP from X-Forwarded-For or
     X-Real-IP when TrustProxy is set, falling back to `r.RemoteAddr`.
  3. Stores a `*RequestInfo` value in `request.Context` under an
     unexported key, so handlers can read the client address and bot flag
     without reparsing.

Notes
-----
  • Forwarding headers are client-controlled.  Only honour them when the
    service runs behind a proxy that overwrites them.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich returns middleware that attaches *RequestInfo and forwards.
func Enrich(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				IP:        ClientIP(r, trustProxy),
				UA:        ParseUA(r.UserAgent()),
				Timestamp: time.Now().UTC(),
			}

			zap.S().Debugw("request info",
				"ip", info.IP,
				"browser", info.UA.Browser,
				"device", info.UA.Device,
				"bot", info.UA.IsBot,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// ClientIP extracts the left-most parseable address from X-Forwarded-For or
// X-Real-IP (when trustProxy), falling back to r.RemoteAddr ("ip:port").
// It returns "unknown" when nothing parses.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, part := range strings.Split(xff, ",") {
				if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
					return ip.String()
				}
			}
		}
		if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
			if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
				return ip.String()
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(r.RemoteAddr); ip != nil {
		return ip.String()
	}
	return "unknown"
}
