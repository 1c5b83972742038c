package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/qrgame/qr-game-backend/internal/room"
)

const (
	PortEnv           = "PORT"
	AllowedOriginsEnv = "ALLOWED_ORIGINS"

	ThinkMsEnv      = "THINK_DURATION_MS"
	AnswerMsEnv     = "ANSWER_DURATION_MS"
	ResultMsEnv     = "RESULT_DURATION_MS"
	CloseGraceMsEnv = "ROOM_CLOSE_GRACE_MS"
	IdleMsEnv       = "ROOM_IDLE_TIMEOUT_MS"
)

type Config struct {
	Port           int
	AllowedOrigins []string
	Timing         room.Timing
}

// Load reads the environment with sane defaults; nothing is required, so a
// bare `go run ./cmd/server` works.
func Load() Config {
	timing := room.DefaultTiming()
	timing.Think = getDurationMs(ThinkMsEnv, timing.Think)
	timing.Answer = getDurationMs(AnswerMsEnv, timing.Answer)
	timing.Result = getDurationMs(ResultMsEnv, timing.Result)
	timing.CloseGrace = getDurationMs(CloseGraceMsEnv, timing.CloseGrace)
	timing.Idle = getDurationMs(IdleMsEnv, timing.Idle)

	return Config{
		Port:           getInt(PortEnv, 4000),
		AllowedOrigins: getList(AllowedOriginsEnv, []string{"*"}),
		Timing:         timing,
	}
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func getDurationMs(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
