package api

import (
	"fmt"

	"github.com/bearjaws/modelfusion/events"
	"github.com/fogfish/opts"
)

// Run groups invocations that belong to one logical unit of work.
type Run struct {
	RunID     string
	SessionID string
	UserID    string
	// Observers receive the lifecycle events of every invocation in the run.
	Observers []events.Observer
	// ErrorHandler receives observer failures. When nil they are logged and dropped.
	ErrorHandler func(error)
}

// FunctionOptions are the per-invocation options of a model function.
type FunctionOptions struct {
	FunctionID string
	Run        *Run
	Observers  []events.Observer

	settings any
}

// CallOptions is what the engine hands to a collaborator model.
type CallOptions struct {
	FunctionID string
	Run        *Run
}

// CallOptions returns the collaborator-facing view of the options.
func (o FunctionOptions) CallOptions() CallOptions {
	return CallOptions{FunctionID: o.FunctionID, Run: o.Run}
}

// HasSettings reports whether a settings override is pending.
func (o FunctionOptions) HasSettings() bool {
	return o.settings != nil
}

// WithoutSettings returns a copy with the settings override removed.
func (o FunctionOptions) WithoutSettings() FunctionOptions {
	o.settings = nil
	return o
}

// ApplyFunctionOptions folds options into a FunctionOptions value.
func ApplyFunctionOptions(options ...opts.Option[FunctionOptions]) (FunctionOptions, error) {
	var fo FunctionOptions
	if err := opts.Apply(&fo, options); err != nil {
		return FunctionOptions{}, fmt.Errorf("invalid function options: %w", err)
	}
	return fo, nil
}

// SettingsOverride extracts the pending settings override for a model whose
// settings have type S.
func SettingsOverride[S any](o FunctionOptions) ([]opts.Option[S], error) {
	if o.settings == nil {
		return nil, nil
	}
	so, ok := o.settings.([]opts.Option[S])
	if !ok {
		var zero S
		return nil, fmt.Errorf("settings override of type %T does not apply to model settings %T", o.settings, zero)
	}
	return so, nil
}

// AllObservers returns the observers of an invocation in notification order:
// model settings observers, then run observers, then function observers.
func AllObservers(modelObservers []events.Observer, o FunctionOptions) []events.Observer {
	all := make([]events.Observer, 0, len(modelObservers)+len(o.Observers)+4)
	all = append(all, modelObservers...)
	if o.Run != nil {
		all = append(all, o.Run.Observers...)
	}
	return append(all, o.Observers...)
}

var (
	// FunctionID sets the id reported in the call metadata.
	FunctionID = opts.ForName[FunctionOptions, string]("FunctionID")

	// InRun attaches the invocation to a run.
	InRun = opts.ForName[FunctionOptions, *Run]("Run")
)

// WithObservers adds function-level observers.
func WithObservers(observer events.Observer, extra ...events.Observer) opts.Option[FunctionOptions] {
	return opts.Type[FunctionOptions](func(o *FunctionOptions) error {
		o.Observers = append(o.Observers, observer)
		o.Observers = append(o.Observers, extra...)
		return nil
	})
}

// WithSettings overrides the model settings for a single invocation.
// Successive overrides of the same settings type accumulate.
func WithSettings[S any](options ...opts.Option[S]) opts.Option[FunctionOptions] {
	return opts.Type[FunctionOptions](func(o *FunctionOptions) error {
		if o.settings == nil {
			o.settings = append([]opts.Option[S](nil), options...)
			return nil
		}
		prev, ok := o.settings.([]opts.Option[S])
		if !ok {
			return fmt.Errorf("conflicting settings overrides %T and %T", o.settings, options)
		}
		o.settings = append(prev, options...)
		return nil
	})
}
