package openai

import (
	"slices"

	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/retry"
	"github.com/bearjaws/modelfusion/throttle"
	"github.com/fogfish/opts"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Settings configure a chat model.
type Settings struct {
	Model string
	// Temperature is left to the API default when nil.
	Temperature *float64
	// MaxTokens caps the completion length when positive.
	MaxTokens int64
	// N is the number of generated texts. Values below 2 request a single one.
	N        int64
	Retry    retry.Policy
	Throttle throttle.Policy

	requestOptions []option.RequestOption
	keepWhitespace bool
	observers      []events.Observer
}

func defaultSettings() Settings {
	return Settings{
		Model:    openai.ChatModelGPT4oMini,
		Retry:    retry.Exponential(),
		Throttle: throttle.Off(),
	}
}

// TrimWhitespace reports whether generated texts are trimmed.
func (s Settings) TrimWhitespace() bool {
	return !s.keepWhitespace
}

var (
	Model     = opts.ForName[Settings, string]("Model")
	MaxTokens = opts.ForName[Settings, int64]("MaxTokens")
	N         = opts.ForName[Settings, int64]("N")
	Retry     = opts.ForName[Settings, retry.Policy]("Retry")
	Throttle  = opts.ForName[Settings, throttle.Policy]("Throttle")
)

func Temperature(t float64) opts.Option[Settings] {
	return opts.Type[Settings](func(s *Settings) error {
		s.Temperature = &t
		return nil
	})
}

// TrimWhitespace controls trimming of generated texts. It is on by default.
func TrimWhitespace(trim bool) opts.Option[Settings] {
	return opts.Type[Settings](func(s *Settings) error {
		s.keepWhitespace = !trim
		return nil
	})
}

// Observers adds observers notified for every call of the model.
func Observers(observers ...events.Observer) opts.Option[Settings] {
	return opts.Type[Settings](func(s *Settings) error {
		s.observers = slices.Concat(s.observers, observers)
		return nil
	})
}

// RequestOptions adds client options such as the API key or base URL.
func RequestOptions(options ...option.RequestOption) opts.Option[Settings] {
	return opts.Type[Settings](func(s *Settings) error {
		s.requestOptions = slices.Concat(s.requestOptions, options)
		return nil
	})
}
