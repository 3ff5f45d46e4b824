// cmd/web/main.go
//
// Adept Forms – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Connect Vault when VAULT_ADDR is set, then load conf/global.yaml with
//     FORMS_ overrides and vault: references resolved.
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Open the store: memstore for the "memory" driver, otherwise sqlx over
//     MySQL, Postgres, or SQLite, migrated when configured.
//
//  5. Build the submission rate limiter (Redis when configured), the
//     webhook dispatcher, the form service, and the builder registry.
//
//  6. Mount middleware, /metrics, /healthz, and every registered component
//     on one chi router.
//
//  7. Serve until SIGINT or SIGTERM, then drain: HTTP first, then unsaved
//     builder edits, then queued webhooks.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yanizio/adept-forms/internal/auth"
	"github.com/yanizio/adept-forms/internal/builder"
	"github.com/yanizio/adept-forms/internal/component"
	"github.com/yanizio/adept-forms/internal/config"
	"github.com/yanizio/adept-forms/internal/database"
	"github.com/yanizio/adept-forms/internal/form"
	"github.com/yanizio/adept-forms/internal/logger"
	"github.com/yanizio/adept-forms/internal/message"
	"github.com/yanizio/adept-forms/internal/middleware"
	"github.com/yanizio/adept-forms/internal/ratelimit"
	"github.com/yanizio/adept-forms/internal/requestinfo"
	"github.com/yanizio/adept-forms/internal/server"
	"github.com/yanizio/adept-forms/internal/store"
	"github.com/yanizio/adept-forms/internal/store/memstore"
	"github.com/yanizio/adept-forms/internal/store/sqlstore"
	"github.com/yanizio/adept-forms/internal/vault"

	_ "github.com/yanizio/adept-forms/components/forms"
	_ "github.com/yanizio/adept-forms/components/public"
)

const (
	serverEnvPath   = "/usr/local/etc/adept-forms/global.env"
	shutdownTimeout = 15 * time.Second
	webhookQueue    = 256
)

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Vault and config ────────────────────────────────────────────
	//
	var resolver config.SecretResolver
	vc, err := vault.New(ctx)
	switch {
	case err == nil:
		resolver = vc
	case errors.Is(err, vault.ErrNotConfigured):
		// Local development: plain values only.
	default:
		log.Fatalf("connect vault: %v", err)
	}

	cfg, err := config.Load(ctx, resolver)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, runningInTTY(), cfg.Debug)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 2.  Store ───────────────────────────────────────────────────────
	//
	st, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		logOut.Fatalw("open store", "driver", cfg.Database.Driver, "err", err)
	}
	defer closeStore()

	//
	// ── 3.  Services ────────────────────────────────────────────────────
	//
	limiter, closeLimiter := newLimiter(ctx, cfg.RateLimit)
	defer closeLimiter()

	hooks := message.NewDispatcher(cfg.Webhook.Workers, webhookQueue, cfg.Webhook.Timeout)

	csrf, err := form.NewTokenSigner([]byte(cfg.Security.CSRFKey))
	if err != nil {
		logOut.Fatalw("csrf signer", "err", err)
	}
	signer, err := auth.NewSigner([]byte(cfg.Security.SessionSecret), cfg.Security.SessionTTL)
	if err != nil {
		logOut.Fatalw("session signer", "err", err)
	}

	forms := form.NewService(st, form.Options{
		Limiter: limiter,
		Hooks:   hooks,
		CSRF:    csrf,
	})

	sessions := builder.NewSessions(forms.LoadForBuilder, forms.SaveSnapshot, builder.RegistryOptions{
		AutoSaveDelay: cfg.Builder.AutoSaveDelay,
		IdleTTL:       cfg.Builder.IdleTTL,
		MaxEntries:    cfg.Builder.MaxSessions,
	})
	go sessions.Run(ctx)

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.Recoverer,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		middleware.Security,
		logger.Middleware,
		requestinfo.Enrich(cfg.HTTP.TrustProxy),
	)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	component.Mount(r, component.Deps{
		Forms:      forms,
		Sessions:   sessions,
		Auth:       signer,
		TrustProxy: cfg.HTTP.TrustProxy,
	})

	//
	// ── 5.  Serve and drain ─────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	errc := make(chan error, 1)
	go func() {
		logOut.Infow("forms service online", "addr", cfg.HTTP.ListenAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logOut.Errorw("http server", "err", err)
		}
	case <-ctx.Done():
		logOut.Infow("shutdown requested")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logOut.Warnw("http shutdown", "err", err)
	}
	if failed := sessions.Flush(shutCtx); failed > 0 {
		logOut.Warnw("unsaved builder edits lost", "sessions", failed)
	}
	sessions.Close()
	hooks.Close()
	logOut.Infow("forms service stopped")
}

// openStore picks the store for the configured driver.  The returned func
// releases it.
func openStore(ctx context.Context, c config.Database) (store.Store, func(), error) {
	if c.Driver == "memory" {
		zap.S().Warnw("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	db, err := database.Open(ctx, c.Driver, c.ResolvedDSN())
	if err != nil {
		return nil, nil, err
	}
	sq := sqlstore.New(db)
	if c.Migrate {
		if err := sq.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	zap.S().Infow("database online", "driver", c.Driver)
	return sq, func() { _ = db.Close() }, nil
}

// newLimiter returns the Redis limiter when an address is configured and
// the in-process one otherwise.  An unreachable Redis is logged, not fatal:
// the limiter fails open.
func newLimiter(ctx context.Context, c config.RateLimit) (ratelimit.Limiter, func()) {
	if c.RedisAddr == "" {
		return ratelimit.NewMemory(c.Max, c.Window, 0), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zap.S().Warnw("redis unreachable, rate limits fail open", "addr", c.RedisAddr, "err", err)
	}
	return ratelimit.NewRedis(client, c.Max, c.Window), func() { _ = client.Close() }
}
