// internal/middleware/security.go
//
// Response security headers for the forms service.
//
// Context
// -------
// Two kinds of response leave this service: JSON from /api and the hosted
// form pages under /f/.  Both get the same transport and sniffing headers.
// The Content-Security-Policy differs:
//
//   - /api responses never render, so they get a deny-all policy.
//   - Hosted pages load their own stylesheet and script, post back to
//     themselves, and may then be redirected to the owner's thank-you URL.
//     Browsers check form-action against that redirect, so it allows any
//     https: target.
//
// Notes
// -----
// • A header already set further up the chain is left alone.
// • Forms are not embeddable (`frame-ancestors 'none'`).
// • Oxford commas, two spaces after periods.

package middleware

import (
	"net/http"
	"strings"
)

// FormPagePrefix marks the hosted-page routes that get PageCSP.
const FormPagePrefix = "/f/"

const (
	// APICSP applies to everything outside FormPagePrefix.
	APICSP = "default-src 'none'; frame-ancestors 'none'"

	// PageCSP applies to hosted form pages and their assets.
	PageCSP = "default-src 'self'; img-src 'self' data: https:; object-src 'none'; " +
		"base-uri 'self'; form-action 'self' https:; frame-ancestors 'none'"
)

// baseHeaders go on every response, in this order.
var baseHeaders = [][2]string{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
}

// Security sets the headers before next runs, so they are present even
// when the handler writes its body straight away.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range baseHeaders {
			setDefault(h, kv[0], kv[1])
		}
		setDefault(h, "Content-Security-Policy", policyFor(r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func policyFor(path string) string {
	if strings.HasPrefix(path, FormPagePrefix) {
		return PageCSP
	}
	return APICSP
}

func setDefault(h http.Header, name, value string) {
	if h.Get(name) == "" {
		h.Set(name, value)
	}
}
