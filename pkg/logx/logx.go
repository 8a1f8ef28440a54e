// Package logx provides component-scoped leveled logging for Autocoder.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes timestamped, leveled lines tagged with a component name.
type Logger struct {
	component string
}

// Level is a log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

var (
	debugEnabled bool
	debugMutex   sync.RWMutex

	// logWriter overrides stderr when non-nil. Tests swap it for a buffer.
	logWriter     io.Writer
	logWriterLock sync.Mutex
)

func init() { //nolint:gochecknoinits // Required for env var initialization
	initDebugFromEnv()
}

// initDebugFromEnv enables debug output when DEBUG or the pipeline's
// SYSTEM_DEBUG variable is set.
func initDebugFromEnv() {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	for _, name := range []string{"DEBUG", "SYSTEM_DEBUG"} {
		if v := os.Getenv(name); v == "1" || strings.EqualFold(v, "true") {
			debugEnabled = true
		}
	}
}

// NewLogger creates a logger for the given component.
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// SetDebug enables or disables debug output globally.
func SetDebug(enabled bool) {
	debugMutex.Lock()
	debugEnabled = enabled
	debugMutex.Unlock()
}

// IsDebugEnabled returns whether debug logging is enabled.
func IsDebugEnabled() bool {
	debugMutex.RLock()
	defer debugMutex.RUnlock()
	return debugEnabled
}

// SetOutput redirects all loggers to w. A nil writer restores stderr.
func SetOutput(w io.Writer) {
	logWriterLock.Lock()
	logWriter = w
	logWriterLock.Unlock()
}

func (l *Logger) log(level Level, format string, args ...any) {
	timestamp := time.Now().UTC().Format(timestampFormat)
	message := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] [%s] %s: %s\n", timestamp, l.component, level, message)

	logWriterLock.Lock()
	defer logWriterLock.Unlock()
	var w io.Writer = os.Stderr
	if logWriter != nil {
		w = logWriter
	}
	_, _ = io.WriteString(w, line)
}

func (l *Logger) Debug(format string, args ...any) {
	if !IsDebugEnabled() {
		return
	}
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}
