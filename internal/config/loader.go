// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `FORMS_`, where `__` maps to “.”
     (e.g., `FORMS_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, every string value that starts with `vault:` is swapped
for the secret it names, then the tree is unmarshalled into strongly-typed
structs, defaulted, validated, enriched with the runtime root path, and
cached in an `atomic.Pointer` for lock-free reads.  `Reload()` calls
`Load()` again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans, root discovery, YAML read, env overlay.
  • ERROR spans, YAML parse, env overlay, secret resolution, unmarshal,
    and validation failures.
  • INFO span, final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Secret values are never logged.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "FORMS_"

// VaultPrefix marks a value to be fetched from Vault, e.g.
// "vault:secret/forms#db_password".
const VaultPrefix = "vault:"

// SecretResolver turns a `vault:` reference into its secret value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

var (
	current  atomic.Pointer[Config]
	resolver atomic.Value // SecretResolver, remembered for Reload
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves FORMS_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.  sr may be nil when no value uses the vault: prefix.
func Load(ctx context.Context, sr SecretResolver) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: FORMS_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, sr); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	applyDefaults(&cfg)
	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	if sr != nil {
		resolver.Store(sr)
	}
	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"db_driver", cfg.Database.Driver,
		"redis", cfg.RateLimit.RedisAddr != "",
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// envKey maps FORMS_HTTP__LISTEN_ADDR to http.listen_addr.  FORMS_ROOT is
// consumed by rootDir and kept out of the tree.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	if s == "ROOT" {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// resolveSecrets replaces every vault: string in k.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, sr SecretResolver) error {
	all := k.All()
	keys := make([]string, 0, len(all))
	for key, val := range all {
		if s, ok := val.(string); ok && strings.HasPrefix(s, VaultPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		if sr == nil {
			return fmt.Errorf("%s uses %s but no secret resolver is configured", key, VaultPrefix)
		}
		val, err := sr.Resolve(ctx, k.String(key))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return err
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

// applyDefaults fills zero tunables.
func applyDefaults(c *Config) {
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.Security.SessionTTL == 0 {
		c.Security.SessionTTL = 14 * 24 * time.Hour
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 10
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Hour
	}
	if c.Builder.AutoSaveDelay == 0 {
		c.Builder.AutoSaveDelay = 2 * time.Second
	}
	if c.Builder.IdleTTL == 0 {
		c.Builder.IdleTTL = 30 * time.Minute
	}
	if c.Builder.MaxSessions == 0 {
		c.Builder.MaxSessions = 500
	}
	if c.Webhook.Workers == 0 {
		c.Webhook.Workers = 4
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 10 * time.Second
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }

// Reload re-runs Load with the resolver remembered from the last Load.
func Reload(ctx context.Context) error {
	sr, _ := resolver.Load().(SecretResolver)
	_, err := Load(ctx, sr)
	return err
}
