package logging

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry
type Level int

const (
	// DebugLevel covers per-step trace output
	DebugLevel Level = iota
	// InfoLevel is the default level
	InfoLevel
	// WarnLevel reports conditions a trace recovered from, such as inferred phases
	WarnLevel
	// ErrorLevel reports failed traces
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level, falling back to InfoLevel
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field is a key-value pair attached to a log entry
type Field struct {
	Key   string
	Value any
}

// Logger is the structured logger used by traces and the CLI
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that adds fields to every entry
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger writes one JSON object per line
type JSONLogger struct {
	writer io.Writer
	level  Level
	fields []Field
	mu     *sync.Mutex
}

// LogEntry is the JSON shape of a single line
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }
func (NopLogger) SetLevel(level Level)              {}
func (NopLogger) GetLevel() Level                   { return ErrorLevel }

func NewNopLogger() Logger {
	return NopLogger{}
}

// TimedOperation logs the duration of an operation when it ends
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
