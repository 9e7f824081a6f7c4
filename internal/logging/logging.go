// Package logging is jellyrename's structured logging layer. Lines are
// timestamped "key=value" text written to stderr and, when a file sink is
// configured, to a size-rotated log file. Packages obtain component-scoped
// loggers so every line names its source.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/paths"
)

// Level orders log severities. Lines below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError

	// levelOff sits above every real level; Nop loggers use it.
	levelOff
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a config string to a Level. Unrecognized values fall back
// to info rather than erroring; a typo in the config should not silence or
// flood the log.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is one key=value pair on a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field at the call site.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config selects level, file sink, and rotation bounds.
type Config struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultConfig logs at info with a 10 MB / 5 backup rotation window.
func DefaultConfig() Config {
	return Config{Level: "info", MaxSizeMB: 10, MaxBackups: 5}
}

// Logger fans log lines out to stderr and an optional rotating file. All
// component loggers created from it share the same sinks and level.
type Logger struct {
	mu       sync.Mutex
	level    Level
	console  io.Writer
	file     *os.File
	filePath string
	maxSize  int64
	keep     int
}

// New opens a Logger per cfg. An empty cfg.File picks the default location
// under the user's data directory; a leading ~ expands to the home dir.
func New(cfg Config) (*Logger, error) {
	l := &Logger{
		level:   ParseLevel(cfg.Level),
		console: os.Stderr,
		maxSize: int64(cfg.MaxSizeMB) * 1024 * 1024,
		keep:    cfg.MaxBackups,
	}
	if l.maxSize <= 0 {
		l.maxSize = 10 * 1024 * 1024
	}
	if l.keep <= 0 {
		l.keep = 5
	}

	target := cfg.File
	if target == "" {
		p, err := paths.LogPath()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve log path: %w", err)
		}
		target = p
	}
	if strings.HasPrefix(target, "~") {
		home, err := paths.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("unable to get home dir: %w", err)
		}
		target = filepath.Join(home, target[1:])
	}
	l.filePath = target

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	if err := l.openFile(); err != nil {
		return nil, err
	}
	return l, nil
}

// Nop returns a logger that drops everything. Tests use it.
func Nop() *Logger {
	return &Logger{level: levelOff}
}

// Component binds a name that every line from the returned logger carries.
func (l *Logger) Component(name string) *ComponentLogger {
	return &ComponentLogger{parent: l, name: name}
}

// ComponentLogger tags lines with one component name.
type ComponentLogger struct {
	parent *Logger
	name   string
}

func (c *ComponentLogger) Debug(msg string, fields ...Field) {
	c.parent.log(LevelDebug, c.name, msg, nil, fields...)
}

func (c *ComponentLogger) Info(msg string, fields ...Field) {
	c.parent.log(LevelInfo, c.name, msg, nil, fields...)
}

func (c *ComponentLogger) Warn(msg string, fields ...Field) {
	c.parent.log(LevelWarn, c.name, msg, nil, fields...)
}

func (c *ComponentLogger) Error(msg string, err error, fields ...Field) {
	c.parent.log(LevelError, c.name, msg, err, fields...)
}

// formatLine renders one log line, newline included.
func formatLine(ts time.Time, level Level, component, msg string, err error, fields []Field) string {
	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, component, msg)
	if err != nil {
		fmt.Fprintf(&b, " | error=%s", err)
	}
	for _, f := range fields {
		fmt.Fprintf(&b, " | %s=%v", f.Key, f.Value)
	}
	b.WriteByte('\n')
	return b.String()
}

func (l *Logger) log(level Level, component, msg string, err error, fields ...Field) {
	if level < l.level {
		return
	}

	line := formatLine(time.Now(), level, component, msg, err, fields)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.console != nil {
		io.WriteString(l.console, line)
	}
	if l.file == nil {
		return
	}
	if rotErr := l.rotateIfNeeded(); rotErr != nil {
		fmt.Fprintf(os.Stderr, "log rotation error: %v\n", rotErr)
	}
	io.WriteString(l.file, line)
}

func (l *Logger) openFile() error {
	if l.filePath == "" {
		return nil
	}
	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	l.file = f
	return nil
}

// rotateIfNeeded shifts the backup chain and reopens the file once it grows
// past maxSize. Called with the mutex held.
func (l *Logger) rotateIfNeeded() error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.maxSize {
		return nil
	}

	l.file.Close()
	l.file = nil
	if err := rotateFiles(l.filePath, l.keep); err != nil {
		return err
	}
	return l.openFile()
}

// SetLevel changes the threshold for subsequent lines.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel reports the current threshold.
func (l *Logger) GetLevel() Level {
	return l.level
}

// FilePath reports where the file sink writes, empty for Nop loggers.
func (l *Logger) FilePath() string {
	return l.filePath
}

// Close releases the file sink. Console output is unaffected.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
