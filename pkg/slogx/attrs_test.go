package slogx

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type name string

func (n name) String() string { return string(n) }

func TestAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want any
	}{
		{"error", Error(errors.New("boom")), "error", "boom"},
		{"nil error", Error(nil), "error", ""},
		{"stringer", Stringer("who", name("owl")), "who", "owl"},
		{"logger name", LoggerName("retry"), KeyLoggerName, "retry"},
		{"call id", CallID("call-1"), KeyCallID, "call-1"},
		{"duration", Duration("elapsed", 1500*time.Millisecond), "elapsed", int64(1500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}
