// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web blank-imports the
// components it serves and calls Mount once the shared services exist.
//
// Notes
// -----
// • Components register routes on the shared router instead of returning
//   sub-routers, so two components may use the same path prefix.
// • Oxford commas, two spaces after periods.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/adept-forms/internal/auth"
	"github.com/yanizio/adept-forms/internal/builder"
	"github.com/yanizio/adept-forms/internal/form"
)

// Deps are the shared services handed to every component.
type Deps struct {
	Forms      *form.Service
	Sessions   *builder.Sessions
	Auth       *auth.Signer
	TrustProxy bool
}

// Component contract.
//
// Routes registers page and API endpoints on r, e.g.:
//
//	r.Get("/f/{slug}", c.page)
//	r.Route("/api/forms", func(api chi.Router) { ... })
type Component interface {
	Name() string
	Routes(r chi.Router, d Deps)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount registers every component's routes on r.
func Mount(r chi.Router, d Deps) {
	for _, c := range All() {
		c.Routes(r, d)
	}
}
