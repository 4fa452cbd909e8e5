package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"DUEL_PORT", "DUEL_METRICS_PORT", "DUEL_ADMIN_TOKEN", "DUEL_RATE_LIMIT_PER_MINUTE",
	"DUEL_DATABASE_URL", "DUEL_HERMES_URL", "DUEL_SESSION_TTL_MS", "DUEL_MAX_SESSIONS",
	"DUEL_ORIGIN_LAT", "DUEL_ORIGIN_LNG", "DUEL_RADIUS_KM", "DUEL_LOG_LEVEL", "DUEL_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RateLimitPerMinute != 120 {
		t.Errorf("expected rate limit 120, got %d", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected empty database URL, got %s", cfg.Database.URL)
	}
	if cfg.Pool.OriginLat != 43.641920 || cfg.Pool.OriginLng != -79.397100 {
		t.Errorf("unexpected default origin %f,%f", cfg.Pool.OriginLat, cfg.Pool.OriginLng)
	}
	if cfg.Pool.RadiusKm != 10 {
		t.Errorf("expected radius 10km, got %f", cfg.Pool.RadiusKm)
	}
	if cfg.Pool.MaxCandidates != 60 {
		t.Errorf("expected max candidates 60, got %d", cfg.Pool.MaxCandidates)
	}
	if cfg.Session.MaxSessions != 10000 {
		t.Errorf("expected max sessions 10000, got %d", cfg.Session.MaxSessions)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	if cfg.SessionTTL() != 30*time.Minute {
		t.Errorf("expected SessionTTL 30m, got %v", cfg.SessionTTL())
	}
	if cfg.ReapInterval() != time.Minute {
		t.Errorf("expected ReapInterval 1m, got %v", cfg.ReapInterval())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DUEL_PORT", "9000")
	t.Setenv("DUEL_METRICS_PORT", "9001")
	t.Setenv("DUEL_ADMIN_TOKEN", "secret-token")
	t.Setenv("DUEL_RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("DUEL_DATABASE_URL", "postgres://localhost/duel_test")
	t.Setenv("DUEL_HERMES_URL", "nats://nats:4222")
	t.Setenv("DUEL_SESSION_TTL_MS", "60000")
	t.Setenv("DUEL_MAX_SESSIONS", "5")
	t.Setenv("DUEL_ORIGIN_LAT", "51.5074")
	t.Setenv("DUEL_ORIGIN_LNG", "-0.1278")
	t.Setenv("DUEL_RADIUS_KM", "2.5")
	t.Setenv("DUEL_LOG_LEVEL", "debug")
	t.Setenv("DUEL_LOG_FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Server.RateLimitPerMinute != 30 {
		t.Errorf("expected rate limit 30, got %d", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Database.URL != "postgres://localhost/duel_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.SessionTTL() != time.Minute {
		t.Errorf("expected ttl 1m, got %v", cfg.SessionTTL())
	}
	if cfg.Session.MaxSessions != 5 {
		t.Errorf("expected max sessions 5, got %d", cfg.Session.MaxSessions)
	}
	if cfg.Pool.OriginLat != 51.5074 || cfg.Pool.OriginLng != -0.1278 {
		t.Errorf("unexpected origin %f,%f", cfg.Pool.OriginLat, cfg.Pool.OriginLng)
	}
	if cfg.Pool.RadiusKm != 2.5 {
		t.Errorf("expected radius 2.5, got %f", cfg.Pool.RadiusKm)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected log format 'text', got '%s'", cfg.Logging.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "duel.yaml")
	data := []byte(`
server:
  port: 8800
pool:
  radius_km: 3
  max_candidates: 20
session:
  ttl_ms: 5000
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8800 {
		t.Errorf("expected port 8800, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port to survive, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Pool.RadiusKm != 3 || cfg.Pool.MaxCandidates != 20 {
		t.Errorf("unexpected pool config %+v", cfg.Pool)
	}
	if cfg.Pool.OriginLat != 43.641920 {
		t.Errorf("expected default origin lat to survive, got %f", cfg.Pool.OriginLat)
	}
	if cfg.SessionTTL() != 5*time.Second {
		t.Errorf("expected ttl 5s, got %v", cfg.SessionTTL())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
