package anthropic

import (
	"slices"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/retry"
	"github.com/bearjaws/modelfusion/throttle"
	"github.com/fogfish/opts"
)

// Settings configure a messages model.
type Settings struct {
	Model anthropic.Model
	// MaxTokens is required by the API. Defaults to 1024.
	MaxTokens   int64
	Temperature *float64
	Retry       retry.Policy
	Throttle    throttle.Policy

	requestOptions []option.RequestOption
	keepWhitespace bool
	observers      []events.Observer
}

func defaultSettings() Settings {
	return Settings{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 1024,
		Retry:     retry.Exponential(),
		Throttle:  throttle.Off(),
	}
}

func (s Settings) TrimWhitespace() bool {
	return !s.keepWhitespace
}

var (
	Model     = opts.ForName[Settings, anthropic.Model]("Model")
	MaxTokens = opts.ForName[Settings, int64]("MaxTokens")
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
