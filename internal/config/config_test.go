// internal/config/config_test.go
//
// Run: go test ./internal/config -v

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const baseYAML = `
http:
  listen_addr: "127.0.0.1:8080"
database:
  driver: sqlite
  dsn: "file:forms.db?_pragma=foreign_keys(1)"
security:
  session_secret: "vault:secret/forms#session"
  csrf_key: "0123456789abcdef0123456789abcdef"
ratelimit:
  max: 5
  window: 30m
`

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := f[ref]; ok {
		return v, nil
	}
	return "", errors.New("no such secret")
}

func writeRoot(t *testing.T, yaml string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FORMS_ROOT", root)
}

func TestLoadLayersAndSecrets(t *testing.T) {
	writeRoot(t, baseYAML)
	t.Setenv("FORMS_HTTP__LISTEN_ADDR", "0.0.0.0:9090")

	sr := fakeResolver{"vault:secret/forms#session": strings.Repeat("s", 32)}
	cfg, err := Load(context.Background(), sr)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != "0.0.0.0:9090" {
		t.Fatalf("env override ignored: %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Security.SessionSecret != strings.Repeat("s", 32) {
		t.Fatalf("vault reference not resolved")
	}
	if cfg.RateLimit.Max != 5 || cfg.RateLimit.Window != 30*time.Minute {
		t.Fatalf("ratelimit = %#v", cfg.RateLimit)
	}
	if cfg.Builder.AutoSaveDelay != 2*time.Second || cfg.Builder.MaxSessions != 500 {
		t.Fatalf("defaults not applied: %#v", cfg.Builder)
	}
	if Get() != cfg {
		t.Fatalf("Get should return the cached config")
	}
}

func TestLoadWithoutResolverFails(t *testing.T) {
	writeRoot(t, baseYAML)
	if _, err := Load(context.Background(), nil); err == nil {
		t.Fatalf("vault reference without resolver should fail")
	}
}

func TestValidationNamesKey(t *testing.T) {
	writeRoot(t, strings.Replace(baseYAML, `"0123456789abcdef0123456789abcdef"`, `"short"`, 1))
	sr := fakeResolver{"vault:secret/forms#session": strings.Repeat("s", 32)}
	_, err := Load(context.Background(), sr)
	if err == nil || !strings.Contains(err.Error(), "security.csrf_key") {
		t.Fatalf("expected csrf_key validation error, got %v", err)
	}
}

func TestResolvedDSN(t *testing.T) {
	d := Database{DSN: "forms:%s@tcp(db:3306)/forms", Password: "pw"}
	if got := d.ResolvedDSN(); got != "forms:pw@tcp(db:3306)/forms" {
		t.Fatalf("ResolvedDSN = %q", got)
	}
}

func TestMemoryDriverNeedsNoDSN(t *testing.T) {
	yaml := strings.Replace(baseYAML, `  driver: sqlite
  dsn: "file:forms.db?_pragma=foreign_keys(1)"`, "  driver: memory", 1)
	writeRoot(t, yaml)
	sr := fakeResolver{"vault:secret/forms#session": strings.Repeat("s", 32)}
	cfg, err := Load(context.Background(), sr)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "memory" || cfg.Database.DSN != "" {
		t.Fatalf("database = %#v", cfg.Database)
	}
}
