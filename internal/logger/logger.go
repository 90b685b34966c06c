package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents a logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelNone disables all logging.
	LevelNone
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name, defaulting to info for anything unknown.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	case "none", "NONE":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Logger writes leveled, timestamped lines to a log file. The terminal is
// owned by the TUI, so nothing is ever written to stdout or stderr.
// The level is shared between a logger and all its prefixed children, so
// SetLevel on any of them takes effect everywhere at once.
type Logger struct {
	level  *atomic.Int32
	out    *log.Logger
	prefix string
	file   *os.File
}

var (
	global *Logger
	once   sync.Once
)

// Init initializes the global logger. It is safe to call more than once;
// only the first call takes effect.
func Init(level Level, path string) error {
	var err error
	once.Do(func() {
		global, err = New(level, path, "")
	})
	return err
}

// New creates a logger writing to the file at path. An empty path or
// LevelNone yields a logger that discards everything.
func New(level Level, path, prefix string) (*Logger, error) {
	l := &Logger{level: new(atomic.Int32), prefix: prefix}

	if level == LevelNone || path == "" {
		l.out = log.New(io.Discard, "", 0)
		l.level.Store(int32(LevelNone))
		return l, nil
	}
	l.level.Store(int32(level))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l.file = file
	l.out = log.New(file, "", 0)
	return l, nil
}

// Global returns the global logger, a discarding one if Init was never
// called.
func Global() *Logger {
	if global == nil {
		lvl := new(atomic.Int32)
		lvl.Store(int32(LevelNone))
		global = &Logger{level: lvl, out: log.New(io.Discard, "", 0)}
	}
	return global
}

// WithPrefix returns a logger that tags every line with a component name,
// sharing the parent's output and level. A later SetLevel on the parent
// (or any sibling) applies to this logger too.
func (l *Logger) WithPrefix(prefix string) *Logger {
	if l.prefix != "" {
		prefix = l.prefix + ":" + prefix
	}
	return &Logger{level: l.level, out: l.out, prefix: prefix, file: l.file}
}

// SetLevel changes the logging level for this logger and every logger
// derived from it with WithPrefix.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < Level(l.level.Load()) {
		return
	}

	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}
	l.out.Printf("%s [%s] %s%s",
		time.Now().Format("2006-01-02 15:04:05.000"),
		level, prefix, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Global convenience functions.

func Debug(format string, args ...interface{}) { Global().Debug(format, args...) }
func Info(format string, args ...interface{})  { Global().Info(format, args...) }
func Warn(format string, args ...interface{})  { Global().Warn(format, args...) }
func Error(format string, args ...interface{}) { Global().Error(format, args...) }
