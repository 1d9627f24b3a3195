package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bankapp-ledger-engine/internal/config"
)

// NewLogger creates the JSON slog.Logger used by both binaries, tagged with
// the service name and environment.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg.Logging.Level).With(
		"service", cfg.Application.Name,
		"env", cfg.Application.Env,
	)
	logger.Info("Logger initialized", "level", ParseLevel(cfg.Logging.Level).String())
	return logger
}

// New builds a JSON logger writing to w. Source locations are added at debug level.
func New(w io.Writer, level string) *slog.Logger {
	lvl := ParseLevel(level)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	})
	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog level; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
