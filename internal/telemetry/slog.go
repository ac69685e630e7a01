package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// serviceName is attached to every log record so back-office lines stay
// identifiable when aggregated with logs from other services.
const serviceName = "license-office"

// ParseLevel maps a configuration level string ("debug", "info", "warn",
// "error", case-insensitive) onto a slog.Level. Unknown values fall back to
// Info so a typo in LBO_LOGGING_LEVEL never silences the logs.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// NewLogger builds a logger writing to w. format "json" (case-insensitive)
// selects the JSON handler; anything else gets the text handler for local
// development. Source locations are only recorded at debug level.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("service", serviceName))
}

// SetupLogger installs a NewLogger over stdout as the slog default, so the
// handlers, repositories, and lifecycle service can log through the plain
// slog.Info/Warn/Error calls without carrying a *slog.Logger around.
func SetupLogger(format, level string) {
	slog.SetDefault(NewLogger(os.Stdout, format, level))
	slog.Info("logger initialised", "format", format, "level", ParseLevel(level).String())
}
