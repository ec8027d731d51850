package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LevelEnv names the environment variable read by DefaultLogger
const LevelEnv = "GRIDTRACE_LOG_LEVEL"

// NewJSONLogger creates a logger writing JSON lines to writer
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &JSONLogger{
		writer: writer,
		level:  level,
		mu:     &sync.Mutex{},
	}
}

// NewDefaultLogger creates a logger writing to stderr at INFO level.
// Stdout is left to command output.
func NewDefaultLogger() *JSONLogger {
	return NewJSONLogger(os.Stderr, InfoLevel)
}

func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		// Call-site fields win over preset ones.
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.writer, "[ERROR] failed to marshal log entry %q: %v\n", msg, err)
		return
	}
	data = append(data, '\n')
	l.writer.Write(data)
}

func (l *JSONLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// With returns a child logger sharing the writer, lock and level of l.
func (l *JSONLogger) With(fields ...Field) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)

	return &JSONLogger{
		writer: l.writer,
		level:  l.level,
		fields: merged,
		mu:     l.mu,
	}
}

func (l *JSONLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *JSONLogger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// DefaultLogger returns the process-wide logger, creating it from
// GRIDTRACE_LOG_LEVEL on first use
func DefaultLogger() Logger {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	if logger != nil {
		return logger
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		l := NewDefaultLogger()
		if lvl := os.Getenv(LevelEnv); lvl != "" {
			l.SetLevel(ParseLevel(lvl))
		}
		defaultLogger = l
	}
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

func Debug(msg string, fields ...Field) {
	DefaultLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...Field) {
	DefaultLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...Field) {
	DefaultLogger().Warn(msg, fields...)
}

// ErrorLog logs at error level on the default logger. Error is taken by the
// field constructor.
func ErrorLog(msg string, fields ...Field) {
	DefaultLogger().Error(msg, fields...)
}

func With(fields ...Field) Logger {
	return DefaultLogger().With(fields...)
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the operation started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at info level with its latency
func (t *TimedOperation) End(extra ...Field) {
	t.EndWithLevel(InfoLevel, t.msg, extra...)
}

// EndWithLevel logs the operation at level with its latency
func (t *TimedOperation) EndWithLevel(level Level, msg string, extra ...Field) {
	fields := make([]Field, 0, len(t.fields)+len(extra)+1)
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	fields = append(fields, Latency(t.Elapsed()))
	switch level {
	case DebugLevel:
		t.logger.Debug(msg, fields...)
	case InfoLevel:
		t.logger.Info(msg, fields...)
	case WarnLevel:
		t.logger.Warn(msg, fields...)
	default:
		t.logger.Error(msg, fields...)
	}
}

// EndError logs the operation as failed
func (t *TimedOperation) EndError(err error, extra ...Field) {
	t.EndWithLevel(ErrorLevel, t.msg, append(extra, Error(err))...)
}
