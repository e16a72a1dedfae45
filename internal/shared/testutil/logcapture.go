// Package testutil provides shared test helpers: builders for trial
// workbook fixtures and an slog handler that captures log output for
// assertions.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log entry.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is an slog.Handler that records every entry it handles so
// tests can assert on log output.
type LogCapture struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewTestLogger returns a logger whose output is captured for assertions.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	t.Helper()
	capture := &LogCapture{}
	return slog.New(capture), capture
}

// Handle implements slog.Handler.
func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, LogRecord{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

// Enabled implements slog.Handler. Every level is captured.
func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

// WithAttrs implements slog.Handler.
func (c *LogCapture) WithAttrs([]slog.Attr) slog.Handler { return c }

// WithGroup implements slog.Handler.
func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Records returns a copy of the captured entries.
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := make([]LogRecord, len(c.records))
	copy(records, c.records)
	return records
}

// Count returns the number of captured entries.
func (c *LogCapture) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Contains reports whether any entry at the level contains the substring.
func (c *LogCapture) Contains(level slog.Level, substring string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.Level == level && strings.Contains(r.Message, substring) {
			return true
		}
	}
	return false
}

// AttrValue returns the value of the named attribute on the first entry
// carrying it.
func (c *LogCapture) AttrValue(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if value, ok := r.Attrs[key]; ok {
			return value, true
		}
	}
	return nil, false
}

// AssertLogged fails the test when no entry at the level contains the
// substring.
func AssertLogged(t *testing.T, capture *LogCapture, level slog.Level, substring string) {
	t.Helper()

	if capture.Contains(level, substring) {
		return
	}
	t.Errorf("expected a %s log containing %q", level, substring)
	for _, r := range capture.Records() {
		t.Logf("  captured: [%s] %s %v", r.Level, r.Message, r.Attrs)
	}
}

// AssertNoErrors fails the test when any error-level entry was captured.
func AssertNoErrors(t *testing.T, capture *LogCapture) {
	t.Helper()

	for _, r := range capture.Records() {
		if r.Level >= slog.LevelError {
			t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
		}
	}
}
