package events

import (
	"log/slog"

	"github.com/go-openapi/strfmt"
)

// FunctionType names the kind of model function that produced an event.
type FunctionType string

const (
	GenerateText FunctionType = "generate-text"
	StreamText   FunctionType = "stream-text"
)

// ModelInfo identifies the model behind an invocation.
type ModelInfo struct {
	Provider  string `json:"provider"`
	ModelName string `json:"modelName"`
}

// Metadata is attached to every lifecycle event of an invocation.
// It is a value: Finish returns a completed copy and leaves the receiver as is.
type Metadata struct {
	CallID            string          `json:"callId"`
	FunctionID        string          `json:"functionId,omitempty"`
	RunID             string          `json:"runId,omitempty"`
	SessionID         string          `json:"sessionId,omitempty"`
	UserID            string          `json:"userId,omitempty"`
	Model             ModelInfo       `json:"model"`
	StartTimestamp    strfmt.DateTime `json:"startTimestamp"`
	StartEpochSeconds int64           `json:"startEpochSeconds"`
	DurationInMs      *int64          `json:"durationInMs,omitempty"`
}

// Finish returns a copy of the metadata carrying the call duration.
func (m Metadata) Finish(durationInMs int64) Metadata {
	m.DurationInMs = &durationInMs
	return m
}

// Finished reports whether the duration has been recorded.
func (m Metadata) Finished() bool {
	return m.DurationInMs != nil
}

func (m Metadata) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("call_id", m.CallID),
		slog.String("provider", m.Model.Provider),
		slog.String("model", m.Model.ModelName),
	}
	if m.FunctionID != "" {
		attrs = append(attrs, slog.String("function_id", m.FunctionID))
	}
	if m.RunID != "" {
		attrs = append(attrs, slog.String("run_id", m.RunID))
	}
	if m.DurationInMs != nil {
		attrs = append(attrs, slog.Int64("duration_ms", *m.DurationInMs))
	}
	return slog.GroupValue(attrs...)
}
