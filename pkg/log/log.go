// Package log configures the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is reported as an error together with LevelInfo.
func ParseLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return slog.LevelInfo, fmt.Errorf("unknown log level %q", logLevel)
}

// New builds a text logger on w. Unknown levels fall back to info.
func New(w io.Writer, logLevel string) *slog.Logger {
	level, _ := ParseLevel(logLevel)

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Setup installs a stderr text logger as the slog default.
func Setup(logLevel string) *slog.Logger {
	logger := New(os.Stderr, logLevel)
	slog.SetDefault(logger)

	return logger
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
