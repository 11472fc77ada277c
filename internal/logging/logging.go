// Package logging is the injected logging capability shared by the
// poller, mailbox and notifier. No package-level logger state.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

type Logger struct {
	l       *log.Logger
	verbose bool
	closer  io.Closer
}

func New(w io.Writer, verbose bool) *Logger {
	return &Logger{l: log.New(w, "", log.LstdFlags), verbose: verbose}
}

// Open builds a logger writing to stderr and, when path is non-empty,
// to that file as well. Close releases the file.
func Open(path string, verbose bool) (*Logger, error) {
	if path == "" {
		return New(os.Stderr, verbose), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	lg := New(io.MultiWriter(os.Stderr, f), verbose)
	lg.closer = f
	return lg, nil
}

func (lg *Logger) Printf(format string, args ...any) {
	lg.l.Printf(format, args...)
}

// Debugf logs only when the verbose toggle is on.
func (lg *Logger) Debugf(format string, args ...any) {
	if lg.verbose {
		lg.l.Printf(format, args...)
	}
}

func (lg *Logger) Close() error {
	if lg.closer != nil {
		return lg.closer.Close()
	}
	return nil
}
