package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger writes colored text in dev/local and JSON everywhere else.
func NewLogger(env, level string, addSource bool) *slog.Logger {
	return newLogger(os.Stdout, env, level, addSource)
}

func newLogger(w io.Writer, env, level string, addSource bool) *slog.Logger {
	lvl := ParseLevel(level)
	if env == "dev" || env == "local" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
			AddSource:  addSource,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
	}))
}

// ParseLevel maps debug/info/warn/error; anything else means info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
