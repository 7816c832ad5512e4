package executor

import (
	"context"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/internal/runsafe"
	"github.com/fogfish/opts"
)

// Response is the outcome of a successful call.
type Response[V any] struct {
	Value V
	// Result is the collaborator's result, raw provider response included.
	Result   api.TextGenerationResult
	Metadata events.Metadata
}

// Call runs one non-streaming invocation of model.
//
// extract derives the function value from the generation result, given the
// settings of the model that produced it.
//
// A settings override in options is applied to the model once and is not
// passed on. Cancellation of ctx ends the call with an *api.AbortError; any
// other failure is returned unchanged. Observers are notified in every case.
func Call[P, S, V any](
	ctx context.Context,
	functionType events.FunctionType,
	model api.TextGenerationModel[P, S],
	prompt P,
	extract func(settings S, result api.TextGenerationResult) (V, error),
	options ...opts.Option[api.FunctionOptions],
) (Response[V], error) {
	fo, err := api.ApplyFunctionOptions(options...)
	if err != nil {
		return Response[V]{}, err
	}
	if fo.HasSettings() {
		override, err := api.SettingsOverride[S](fo)
		if err != nil {
			return Response[V]{}, err
		}
		if model, err = model.WithSettings(override...); err != nil {
			return Response[V]{}, err
		}
		fo = fo.WithoutSettings()
	}

	inv := start(ctx, functionType, model, fo, prompt)

	type output struct {
		result api.TextGenerationResult
		value  V
	}
	res := runsafe.Run(ctx, func(ctx context.Context) (output, error) {
		result, err := model.DoGenerateTexts(ctx, prompt, fo.CallOptions())
		if err != nil {
			return output{}, err
		}
		v, err := extract(model.Settings(), result)
		if err != nil {
			return output{}, err
		}
		return output{result: result, value: v}, nil
	})
	if !res.OK() {
		return Response[V]{}, inv.fail(ctx, res.Err, res.Aborted)
	}

	meta := inv.finish(ctx, events.Success{
		Output:   res.Value.value,
		Response: res.Value.result.Response,
		Usage:    res.Value.result.Usage,
	})
	return Response[V]{
		Value:    res.Value.value,
		Result:   res.Value.result,
		Metadata: meta,
	}, nil
}
