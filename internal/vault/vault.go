// internal/vault/vault.go
//
// Vault client wrapper for the forms service.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for the two secrets the service needs
//     at boot: the database password and the session signing key.
//   - Adds background token renewal, a KV‑v2 helper, and per‑key caching.
//   - Implements config.SecretResolver, so configuration values written as
//     `vault:<mount>/<path>#<key>` are fetched before validation.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx)                     // during boot.
//  2. cfg, err := config.Load(ctx, cli)              // resolves vault: refs.
//  3. pw,  err := cli.GetKV(ctx, path, key, ttl)     // ad-hoc reads.
//
// Notes
// -----
//   - New returns ErrNotConfigured when VAULT_ADDR is unset so local
//     development can run without Vault.
//   - Oxford commas, two spaces after periods, no em dash.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by New when VAULT_ADDR is unset.
var ErrNotConfigured = errors.New("vault: VAULT_ADDR not set")

// refPrefix matches config.VaultPrefix.
const refPrefix = "vault:"

// resolveTTL caches secrets fetched through Resolve.
const resolveTTL = 5 * time.Minute

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Create once at startup and pass it to
// config.Load.  Zero value is invalid.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token‑renewal loop
// that stops with ctx.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault‑token).
func New(ctx context.Context) (*Client, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		return nil, ErrNotConfigured
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := &Client{
		api:   apiCli,
		log:   zap.S().With("component", "vault"),
		cache: make(map[string]cached),
	}

	go c.renewLoop(ctx)

	return c, nil
}

// GetKV fetches a single key from a KV‑v2 secret.  If ttl > 0 the result is
// cached for that duration.  Subsequent callers within the TTL receive the
// cached copy.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non‑empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}

	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}

	return sval, nil
}

// Resolve implements config.SecretResolver.  ref has the form
// "vault:<mount>/<path>#<key>".
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, path, key, resolveTTL)
}

// ParseRef splits a vault: reference into secret path and key.
func ParseRef(ref string) (path, key string, err error) {
	rest, ok := strings.CutPrefix(ref, refPrefix)
	if !ok {
		return "", "", fmt.Errorf("vault ref %q: missing %q prefix", ref, refPrefix)
	}
	path, key, ok = strings.Cut(rest, "#")
	if !ok || path == "" || key == "" || !strings.Contains(path, "/") {
		return "", "", fmt.Errorf("vault ref %q: want vault:<mount>/<path>#<key>", ref)
	}
	return path, key, nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Probe the current token.
		sec, err := c.api.Auth().Token().RenewSelf(0)
		if err != nil {
			c.log.Warnw("token renew self failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.log.Infow("token is not renewable, sleeping", "for", time.Hour)
			backoff(ctx, time.Hour)
			continue
		}

		renewer, err := c.api.NewRenewer(&vault.RenewerInput{
			Secret: sec,
			Grace:  15 * time.Second,
		})
		if err != nil {
			c.log.Warnw("renewer init failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		go renewer.Renew()

		for {
			select {
			case <-ctx.Done():
				renewer.Stop()
				return
			case err := <-renewer.DoneCh():
				renewer.Stop()
				if err != nil {
					c.log.Warnw("token renewal stopped", "err", err)
				}
				backoff(ctx, 15*time.Second)
				goto probe
			case ev := <-renewer.RenewCh():
				if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
					c.log.Debugw("token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
				}
			}
		}
	probe:
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
