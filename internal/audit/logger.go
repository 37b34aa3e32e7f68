package audit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a text logger writing to every non-nil writer.
func NewLogger(verbose bool, writers ...io.Writer) *slog.Logger {
	var ws []io.Writer
	for _, w := range writers {
		if w != nil {
			ws = append(ws, w)
		}
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(io.MultiWriter(ws...), &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// OpenAppend opens path for appending, creating it if needed.
func OpenAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
