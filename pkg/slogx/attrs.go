// Package slogx holds slog attribute helpers shared by the engine packages.
package slogx

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// KeyLoggerName is the attribute key naming the component that logged.
	KeyLoggerName = "logger"
	// KeyCallID is the attribute key for the id of a model invocation.
	KeyCallID = "call_id"
)

// Error returns an "error" attribute holding the error message.
// A nil error is rendered as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Stringer creates an attribute from the String() of value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName returns an attribute naming the component that logged.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// CallID returns an attribute for the id of a model invocation.
func CallID(id string) slog.Attr {
	return slog.String(KeyCallID, id)
}

// Duration renders d in milliseconds, which is what the lifecycle events report.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Int64(key, d.Milliseconds())
}
