package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Fatalf("unexpected default backend: %s", cfg.DBBackend)
	}
	if len(cfg.Beams) != 3 {
		t.Fatalf("unexpected default beams: %v", cfg.Beams)
	}
	if cfg.SDFLead != 25*time.Minute {
		t.Fatalf("unexpected SDF lead: %v", cfg.SDFLead)
	}
	if cfg.CooldownLookback != 12*time.Hour {
		t.Fatalf("unexpected cooldown lookback: %v", cfg.CooldownLookback)
	}
}

func TestLoadReadsCriticalEnvKeys(t *testing.T) {
	t.Setenv("PSRSCHED_DB_BACKEND", "postgres")
	t.Setenv("PSRSCHED_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")
	t.Setenv("PSRSCHED_BEAMS", "1,2,3,4")
	t.Setenv("PSRSCHED_PROJECT_CODE", "LK010")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabasePostgres {
		t.Fatalf("unexpected backend: %s", cfg.DBBackend)
	}
	if len(cfg.Beams) != 4 {
		t.Fatalf("unexpected beams: %v", cfg.Beams)
	}
	if cfg.ProjectCode != "LK010" {
		t.Fatalf("unexpected project code: %q", cfg.ProjectCode)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown backend", key: "PSRSCHED_DB_BACKEND", value: "oracle"},
		{name: "single beam", key: "PSRSCHED_BEAMS", value: "2"},
		{name: "duplicate beams", key: "PSRSCHED_BEAMS", value: "2,2,3"},
		{name: "latitude out of range", key: "PSRSCHED_SITE_LATITUDE", value: "120.0"},
		{name: "buffer factor over one", key: "PSRSCHED_BUFFER_FACTOR", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected load to fail with %s=%s", tt.key, tt.value)
			}
		})
	}
}
