package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("OWNER_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.OwnerPassword != "" {
		t.Fatalf("expected empty OWNER_PASSWORD when unset, got %q", cfg.OwnerPassword)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "bogus")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.DataDir != "data" {
		t.Fatalf("data dir = %q, want data", cfg.DataDir)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("token ttl = %d, want 480", cfg.AccessTokenTTLMinutes)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address = %q", cfg.Address())
	}
}
