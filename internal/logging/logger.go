package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level     string
	Writer    io.Writer
	Component string
}

// NewLogger builds the process logger: JSON to stderr so log lines can
// never be mistaken for channel frames on a redirected fd.
func NewLogger(opts Options) *slog.Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	h := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	lg := slog.New(h)
	if strings.TrimSpace(opts.Component) != "" {
		lg = lg.With("component", strings.TrimSpace(opts.Component))
	}
	return lg
}

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
