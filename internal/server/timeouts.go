// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers (default 10 s)
//   • WriteTimeout  – cap total response time (default 15 s)
//   • IdleTimeout   – close keep-alives on idle clients (default 60 s)
//
// Values come from the `http` config section; zero selects the default.
//

package server

import (
	"net/http"
	"time"
)

// Timeouts groups the three server deadlines.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// New constructs an *http.Server with t applied over sensible defaults.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	if t.Read <= 0 {
		t.Read = 10 * time.Second
	}
	if t.Write <= 0 {
		t.Write = 15 * time.Second
	}
	if t.Idle <= 0 {
		t.Idle = 60 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: t.Read,
		ReadTimeout:       t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}
