package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOTH_API_URL", "")
	t.Setenv("BOOTH_API_TIMEOUT", "")
	t.Setenv("CAPTURE_MAX_FRAME_SIZE", "")
	t.Setenv("GALLERY_REFRESH_SCHEDULE", "")

	cfg := Load()

	if cfg.API.URL != "http://localhost:8000" {
		t.Errorf("expected default API URL, got '%s'", cfg.API.URL)
	}
	if cfg.API.Timeout != 2*time.Minute {
		t.Errorf("expected default timeout 2m, got %v", cfg.API.Timeout)
	}
	if cfg.Capture.MaxFrameSize != 1920 {
		t.Errorf("expected default max frame size 1920, got %d", cfg.Capture.MaxFrameSize)
	}
	if cfg.Gallery.RefreshSchedule != "@every 5m" {
		t.Errorf("expected default refresh schedule, got '%s'", cfg.Gallery.RefreshSchedule)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BOOTH_API_URL", "http://booth.local:9000")
	t.Setenv("BOOTH_DEVICE_KEY", "abc123")
	t.Setenv("BOOTH_API_TIMEOUT", "30s")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "9")

	cfg := Load()

	if cfg.API.URL != "http://booth.local:9000" {
		t.Errorf("expected API URL from env, got '%s'", cfg.API.URL)
	}
	if cfg.API.DeviceKey != "abc123" {
		t.Errorf("expected device key from env, got '%s'", cfg.API.DeviceKey)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.API.Timeout)
	}
	if cfg.Database.MaxOpenConns != 9 {
		t.Errorf("expected max open conns 9, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestEnvInt_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"empty", "", 7},
		{"not a number", "abc", 7},
		{"zero", "0", 7},
		{"negative", "-3", 7},
		{"valid", "12", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_INT", tt.value)
			if got := envInt("TEST_ENV_INT", 7); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestEnvDuration_Invalid(t *testing.T) {
	t.Setenv("TEST_ENV_DURATION", "soon")
	if got := envDuration("TEST_ENV_DURATION", time.Minute); got != time.Minute {
		t.Errorf("expected fallback 1m, got %v", got)
	}
	t.Setenv("TEST_ENV_DURATION", "-5s")
	if got := envDuration("TEST_ENV_DURATION", time.Minute); got != time.Minute {
		t.Errorf("expected fallback for negative duration, got %v", got)
	}
}

func TestLoadCatalog(t *testing.T) {
	catalog := LoadCatalog()

	if !catalog.HasGender("men") || !catalog.HasGender("women") {
		t.Errorf("expected men and women genders, got %v", catalog.Genders)
	}
	if len(catalog.Categories) != 4 {
		t.Errorf("expected 4 categories, got %d", len(catalog.Categories))
	}
	if !catalog.HasCategory("superhero") {
		t.Error("expected superhero category")
	}
	if !catalog.HasMode("landscape") || catalog.HasMode("square") {
		t.Errorf("unexpected modes %v", catalog.Modes)
	}
	if !catalog.HasModel("headswap") {
		t.Errorf("expected headswap model, got %v", catalog.Models)
	}
}
