package modelfusion

import (
	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/fogfish/opts"
)

// Option configures a single model function call.
type Option = opts.Option[api.FunctionOptions]

// FunctionID names the call in its lifecycle events.
func FunctionID(id string) Option {
	return api.FunctionID(id)
}

// InRun attaches the call to a run, adding the run's observers and ids.
func InRun(run *api.Run) Option {
	return api.InRun(run)
}

// WithObservers adds observers for this call only.
func WithObservers(observer events.Observer, extra ...events.Observer) Option {
	return api.WithObservers(observer, extra...)
}

// WithSettings overrides model settings for this call only.
//
//	modelfusion.GenerateText(ctx, model, prompt,
//		modelfusion.WithSettings(openai.Temperature(0)),
//	)
func WithSettings[S any](options ...opts.Option[S]) Option {
	return api.WithSettings(options...)
}
