package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/config"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Storage.Driver != "memory" || cfg.Cache.Kind != "memory" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Auth.AllowSessionGrant {
		t.Fatal("session grant must be disabled by default")
	}
	if cfg.Auth.Session.CookieName != "lj_session" {
		t.Fatalf("cookie name = %q", cfg.Auth.Session.CookieName)
	}
	if cfg.AccessTTL() != 30*time.Minute || cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("ttls = %v/%v", cfg.AccessTTL(), cfg.SessionTTL())
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  env: prod
server:
  addr: ":9000"
jwt:
  issuer: "https://id.example.com"
  access_ttl: "15m"
auth:
  allow_session_grant: true
  session:
    ttl: "2h"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	// El env pisa al YAML.
	t.Setenv("LJ_ADDR", ":7000")
	t.Setenv("LJ_ALLOW_SESSION_GRANT", "false")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != "prod" || cfg.JWT.Issuer != "https://id.example.com" {
		t.Fatalf("yaml values = %+v", cfg)
	}
	if cfg.Server.Addr != ":7000" {
		t.Fatalf("addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.Auth.AllowSessionGrant {
		t.Fatal("env must override allow_session_grant")
	}
	if cfg.AccessTTL() != 15*time.Minute || cfg.SessionTTL() != 2*time.Hour {
		t.Fatalf("ttls = %v/%v", cfg.AccessTTL(), cfg.SessionTTL())
	}
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.JWT.AccessTTL = "banana"
	if cfg.AccessTTL() != 30*time.Minute {
		t.Fatalf("AccessTTL = %v, want default on parse error", cfg.AccessTTL())
	}
}
