package logging

import (
	"fmt"
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Stringer logs the String form of v, or nil.
func Stringer(key string, v fmt.Stringer) Field {
	if v == nil {
		return Field{Key: key, Value: nil}
	}
	return Field{Key: key, Value: v.String()}
}

// Domain fields

func Component(name string) Field {
	return String("component", name)
}

func Trace(name string) Field {
	return String("trace", name)
}

func MRID(id string) Field {
	return String("mrid", id)
}

func TerminalID(id string) Field {
	return String("terminal", id)
}

func Phases(code fmt.Stringer) Field {
	return Stringer("phases", code)
}

func Direction(dir fmt.Stringer) Field {
	return Stringer("direction", dir)
}

func Step(n int) Field {
	return Int("step", n)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
