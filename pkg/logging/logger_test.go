package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeStringer string

func (f fakeStringer) String() string { return string(f) }

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" Info ", InfoLevel},
		{"warn", WarnLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"verbose", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDomainFields(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"trace", Trace("set-phases"), "trace", "set-phases"},
		{"mrid", MRID("br1"), "mrid", "br1"},
		{"terminal", TerminalID("br1-t2"), "terminal", "br1-t2"},
		{"phases", Phases(fakeStringer("ABCN")), "phases", "ABCN"},
		{"direction", Direction(fakeStringer("DOWNSTREAM")), "direction", "DOWNSTREAM"},
		{"nil stringer", Direction(nil), "direction", nil},
		{"step", Step(7), "step", 7},
		{"latency", Latency(1500 * time.Millisecond), "latency", "1.5s"},
		{"error", Error(errors.New("boom")), "error", "boom"},
		{"nil error", Error(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("got %+v, want {Key:%s Value:%v}", tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("step")
	logger.Info("trace started")
	logger.Warn("phase inferred")
	logger.Error("trace failed")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("levels = %s, %s", entries[0].Level, entries[1].Level)
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("phases"), Trace("set-phases"))
	child.Info("applied", MRID("c1"), Trace("override"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].Fields
	if fields["component"] != "phases" {
		t.Errorf("component = %v", fields["component"])
	}
	if fields["mrid"] != "c1" {
		t.Errorf("mrid = %v", fields["mrid"])
	}
	if fields["trace"] != "override" {
		t.Errorf("call-site field should win, trace = %v", fields["trace"])
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("no fields")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := entry["fields"]; ok {
		t.Error("fields key should be omitted when empty")
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	StartTimer(logger, "trace complete", Trace("clear-direction")).
		EndWithLevel(DebugLevel, "trace complete", Count(4))
	StartTimer(logger, "trace complete", Trace("set-direction")).
		EndError(errors.New("queue exhausted"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "DEBUG" || entries[0].Fields["count"] != float64(4) {
		t.Errorf("first entry = %+v", entries[0])
	}
	if _, ok := entries[0].Fields["latency"]; !ok {
		t.Error("latency missing")
	}
	if entries[1].Level != "ERROR" || entries[1].Fields["error"] != "queue exhausted" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestGlobalHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	defer SetDefaultLogger(NopLogger{})

	Debug("debug")
	Info("info")
	Warn("warn")
	ErrorLog("error")
	With(String("service", "gridtrace")).Info("child")

	entries := decodeLines(t, &buf)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i, want := range []string{"DEBUG", "INFO", "WARN", "ERROR", "INFO"} {
		if entries[i].Level != want {
			t.Errorf("entry %d level = %s, want %s", i, entries[i].Level, want)
		}
	}
	if entries[4].Fields["service"] != "gridtrace" {
		t.Errorf("service = %v", entries[4].Fields["service"])
	}
}

func BenchmarkJSONLogger_Filtered(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, ErrorLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("step", MRID("c1"), Step(i))
	}
}
