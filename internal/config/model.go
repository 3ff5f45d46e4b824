// internal/config/model.go
//
// Typed configuration model for the forms service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `FORMS_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"strings"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	TrustProxy   bool          `koanf:"trust_proxy"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Database section
//

// Database holds the driver, DSN template, and secret.  The "memory"
// driver keeps everything in process and needs no DSN.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  When it contains a `%s` verb the
// *secret* portion (`Password`, usually a `vault:` reference) is injected
// there at runtime, keeping credentials out of flat files and git history.
type Database struct {
	Driver   string `koanf:"driver"   validate:"required,oneof=mysql pgx sqlite memory"`
	DSN      string `koanf:"dsn"      validate:"required_unless=Driver memory"`
	Password string `koanf:"password"`
	Migrate  bool   `koanf:"migrate"`
}

// ResolvedDSN substitutes Password into the DSN template.
func (d Database) ResolvedDSN() string {
	if strings.Contains(d.DSN, "%s") {
		return strings.Replace(d.DSN, "%s", d.Password, 1)
	}
	return d.DSN
}

//
// Security section
//

// Security holds signing keys.  Both must be at least 32 bytes.
type Security struct {
	SessionSecret string        `koanf:"session_secret" validate:"required,min=32"`
	SessionTTL    time.Duration `koanf:"session_ttl"    validate:"gte=0"`
	CSRFKey       string        `koanf:"csrf_key"       validate:"required,min=32"`
}

//
// Rate-limit section
//

// RateLimit configures public submission throttling.  An empty RedisAddr
// keeps counters in process memory.
type RateLimit struct {
	Max       int           `koanf:"max"        validate:"gte=0"`
	Window    time.Duration `koanf:"window"     validate:"gte=0"`
	RedisAddr string        `koanf:"redis_addr" validate:"omitempty,hostname_port"`
}

//
// Builder section
//

// Builder tunes live editing sessions.
type Builder struct {
	AutoSaveDelay time.Duration `koanf:"autosave_delay" validate:"gte=0"`
	IdleTTL       time.Duration `koanf:"idle_ttl"       validate:"gte=0"`
	MaxSessions   int           `koanf:"max_sessions"   validate:"gte=0"`
}

//
// Webhook section
//

// Webhook tunes post-submit deliveries.
type Webhook struct {
	Workers int           `koanf:"workers" validate:"gte=0"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or FORMS_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // FORMS_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	Debug     bool      `koanf:"debug"`
	HTTP      HTTP      `koanf:"http"`
	Database  Database  `koanf:"database"`
	Security  Security  `koanf:"security"`
	RateLimit RateLimit `koanf:"ratelimit"`
	Builder   Builder   `koanf:"builder"`
	Webhook   Webhook   `koanf:"webhook"`
	Paths     Paths     `koanf:"-"` // not loaded from config files
}
