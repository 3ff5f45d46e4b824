// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net"
	"net/http"
)

// ForceHTTPS returns middleware that 308-redirects plain-HTTP requests to
// the HTTPS version of the same URL.  Loopback hosts are exempt so local
// development keeps working.  Requests forwarded by a TLS-terminating proxy
// (X-Forwarded-Proto: https) pass through.
func ForceHTTPS(enabled bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		if !enabled {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" || isLoopback(r.Host) {
				h.ServeHTTP(w, r)
				return
			}
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}

// isLoopback reports whether host (with optional :port) names this machine.
func isLoopback(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
