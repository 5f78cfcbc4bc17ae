// Package logging provides the append-only session log consumed by the
// install core.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Logger is the boundary the install core writes through. Writes happen in
// call order and never block execution on failure.
type Logger interface {
	Log(level Level, message string, metadata map[string]string)
}

// Nop discards everything
type Nop struct{}

func (Nop) Log(Level, string, map[string]string) {}

// SessionLogger appends JSON lines to a per-session file
type SessionLogger struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	logger *slog.Logger
}

// SessionOptions configures NewSessionLogger
type SessionOptions struct {
	// Dir receives session-<stamp>.jsonl.
	Dir string
	// Level filters both the file and the optional tee.
	Level slog.Level
	// Tee, when set, also receives a human-readable text rendition.
	Tee io.Writer
	// Now overrides the clock used for the file name.
	Now func() time.Time
}

// NewSessionLogger creates the log directory and opens a fresh session file.
func NewSessionLogger(opts SessionOptions) (*SessionLogger, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	name := fmt.Sprintf("session-%s.jsonl", now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(opts.Dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler = slog.NewJSONHandler(file, handlerOpts)
	if opts.Tee != nil {
		handler = NewTeeHandler(handler, slog.NewTextHandler(opts.Tee, handlerOpts))
	}

	return &SessionLogger{
		path:   path,
		file:   file,
		logger: slog.New(handler),
	}, nil
}

func (l *SessionLogger) Log(level Level, message string, metadata map[string]string) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, metadata[k]))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	l.logger.LogAttrs(context.Background(), level.slogLevel(), message, attrs...)
}

// Path is the session file location
func (l *SessionLogger) Path() string {
	return l.path
}

// ReadContents returns everything written so far
func (l *SessionLogger) ReadContents() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "", fmt.Errorf("failed to read session log: %w", err)
	}
	return string(data), nil
}

func (l *SessionLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Entry is one record captured by Memory
type Entry struct {
	Level    Level
	Message  string
	Metadata map[string]string
}

// Memory keeps entries in memory, for tests and dry runs
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Log(level Level, message string, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: message, Metadata: metadata})
}

func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Messages returns the logged messages in order
func (m *Memory) Messages() []string {
	entries := m.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}
