package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// openLogger writes text-format records to path, creating the directory if
// needed. The TUI owns the terminal, so nothing goes to stderr.
func openLogger(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(handler), file, nil
}
