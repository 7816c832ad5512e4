package api

import (
	"context"

	"github.com/bearjaws/modelfusion/events"
	"github.com/fogfish/opts"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Usage reports the tokens consumed by a call when the provider returns them.
type Usage = events.Usage

// TextGenerationResult is the outcome of a single-shot text generation.
type TextGenerationResult struct {
	// Response is the raw provider response, passed through untouched.
	Response any
	Texts    []string
	Usage    *Usage
}

// Model is the part of a collaborator the engine needs for bookkeeping.
type Model[S any] interface {
	ModelInformation() events.ModelInfo
	Settings() S
	// SettingsForEvent returns the settings that may be shown to observers.
	SettingsForEvent() *orderedmap.OrderedMap[string, any]
	// Observers returns observers configured on the model settings.
	Observers() []events.Observer
}

// TextGenerationModel generates complete texts from a prompt of type P.
type TextGenerationModel[P, S any] interface {
	Model[S]
	DoGenerateTexts(ctx context.Context, prompt P, call CallOptions) (TextGenerationResult, error)
	// WithSettings returns a derived model. The receiver is left untouched.
	WithSettings(options ...opts.Option[S]) (TextGenerationModel[P, S], error)
}

// TextStreamingModel streams deltas of type D for a prompt of type P.
type TextStreamingModel[P, D, S any] interface {
	Model[S]
	DoStreamText(ctx context.Context, prompt P, call CallOptions) (DeltaStream[D], error)
	// ExtractTextDelta returns the text carried by a delta. It must be pure.
	ExtractTextDelta(delta D) (string, bool)
	// WithStreamSettings returns a derived model. The receiver is left untouched.
	WithStreamSettings(options ...opts.Option[S]) (TextStreamingModel[P, D, S], error)
}

// TrimWhitespaceSetting is implemented by settings that control whether
// generated texts are trimmed. Settings that do not implement it are trimmed.
type TrimWhitespaceSetting interface {
	TrimWhitespace() bool
}

// ShouldTrimWhitespace reports whether texts produced with settings s are trimmed.
func ShouldTrimWhitespace(s any) bool {
	if tw, ok := s.(TrimWhitespaceSetting); ok {
		return tw.TrimWhitespace()
	}
	return true
}
