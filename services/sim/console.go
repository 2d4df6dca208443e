//go:build !tinygo

package sim

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
)

// ConsoleWriter forwards the monitor's text lines into slog. Per-tick sample
// lines are debug level; everything else is info.
type ConsoleWriter struct {
	mu      sync.Mutex
	logger  *slog.Logger
	pending []byte
}

func NewConsoleWriter(logger *slog.Logger) *ConsoleWriter {
	return &ConsoleWriter{logger: logger.With("src", "console")}
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.pending[:i]))
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

func (w *ConsoleWriter) emit(line string) {
	if line == "" {
		return
	}
	level := slog.LevelInfo
	if len(line) > 2 && line[:2] == "X:" {
		level = slog.LevelDebug
	}
	w.logger.Log(context.Background(), level, line)
}
