package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Issuer.ID != "aif://heimdall.example.com" {
		t.Fatalf("issuer = %q", cfg.Issuer.ID)
	}
	if cfg.Issuer.TokenTTL != 15*time.Minute {
		t.Fatalf("ttl = %v", cfg.Issuer.TokenTTL)
	}
	if cfg.Storage.Driver != "mongo" {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
	if len(cfg.Policy.SupportedModels) == 0 || len(cfg.Policy.StandardPermissions) == 0 {
		t.Fatal("policy defaults missing")
	}
	if len(cfg.Policy.AllowedTrustTagKeys) == 0 {
		t.Fatal("trust tag allow-list default missing")
	}
}

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":9999"
issuer:
  id: "aif://custom.example.com"
  token_ttl: 1h
storage:
  driver: memory
auth:
  api_keys:
    key-abc: builder-1
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Issuer.ID != "aif://custom.example.com" || cfg.Issuer.TokenTTL != time.Hour {
		t.Fatalf("issuer = %+v", cfg.Issuer)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Auth.APIKeys["key-abc"] != "builder-1" {
		t.Fatalf("api keys = %v", cfg.Auth.APIKeys)
	}
}

func TestEnvOverridesBeatYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HEIMDALL_ADDR", ":7777")
	t.Setenv("HEIMDALL_TOKEN_TTL", "30m")
	t.Setenv("HEIMDALL_STORAGE_DRIVER", "postgres")
	t.Setenv("HEIMDALL_RATE_ENABLED", "true")
	t.Setenv("HEIMDALL_API_KEYS", "k1=owner-a,k2=owner-b")
	t.Setenv("HEIMDALL_SUPPORTED_MODELS", "m1, m2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Issuer.TokenTTL != 30*time.Minute {
		t.Fatalf("ttl = %v", cfg.Issuer.TokenTTL)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
	if !cfg.Rate.Enabled {
		t.Fatal("rate not enabled")
	}
	if cfg.Auth.APIKeys["k1"] != "owner-a" || cfg.Auth.APIKeys["k2"] != "owner-b" {
		t.Fatalf("api keys = %v", cfg.Auth.APIKeys)
	}
	if len(cfg.Policy.SupportedModels) != 2 || cfg.Policy.SupportedModels[1] != "m2" {
		t.Fatalf("models = %v", cfg.Policy.SupportedModels)
	}
}

func TestParseKVList(t *testing.T) {
	got := parseKVList("a=1, b=2,malformed,c=3", ",")
	if len(got) != 3 || got["a"] != "1" || got["b"] != "2" || got["c"] != "3" {
		t.Fatalf("got = %v", got)
	}
	if got := parseKVList("", ","); len(got) != 0 {
		t.Fatalf("empty input: %v", got)
	}
}
