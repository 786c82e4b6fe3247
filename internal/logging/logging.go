// Package logging configures charmbracelet/log for suggestbox.
//
// The terminal belongs to the form while it runs, so log output goes to a
// file. Components take a prefixed child of the default logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Setup opens path for appending and installs it as the default log output.
// The returned closer must be closed on exit. An empty path discards logs.
func Setup(path string, level string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var out io.WriteCloser = nopCloser{io.Discard}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}

	log.SetDefault(log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
		Formatter:       log.TextFormatter,
		Level:           lvl,
	}))
	return out, nil
}

// New returns a logger for a component, tagged with prefix
func New(prefix string) *log.Logger {
	return log.Default().WithPrefix(prefix)
}

// ParseLevel maps a config level name to a log level; empty means info
func ParseLevel(level string) (log.Level, error) {
	if strings.TrimSpace(level) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
