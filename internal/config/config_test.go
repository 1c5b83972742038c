package config

import (
	"testing"
	"time"

	"github.com/qrgame/qr-game-backend/internal/room"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 4000 {
		t.Fatalf("want default port 4000, got %d", cfg.Port)
	}
	if cfg.Timing != room.DefaultTiming() {
		t.Fatalf("want default timing, got %+v", cfg.Timing)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("want wildcard origins by default, got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(PortEnv, "8080")
	t.Setenv(ThinkMsEnv, "2500")
	t.Setenv(AllowedOriginsEnv, "https://quiz.example.com, https://staging.example.com")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Fatalf("want port 8080, got %d", cfg.Port)
	}
	if cfg.Timing.Think != 2500*time.Millisecond {
		t.Fatalf("want think 2.5s, got %v", cfg.Timing.Think)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://staging.example.com" {
		t.Fatalf("origins not parsed: %v", cfg.AllowedOrigins)
	}
}

func TestLoad_IgnoresGarbage(t *testing.T) {
	t.Setenv(PortEnv, "not-a-number")
	t.Setenv(AnswerMsEnv, "-5")

	cfg := Load()

	if cfg.Port != 4000 {
		t.Fatalf("garbage port should fall back, got %d", cfg.Port)
	}
	if cfg.Timing.Answer != room.DefaultTiming().Answer {
		t.Fatalf("negative duration should fall back, got %v", cfg.Timing.Answer)
	}
}
