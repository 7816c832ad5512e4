package executor

import (
	"context"
	"log/slog"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/pkg/slogx"
	"github.com/bearjaws/modelfusion/pkg/timex"
	"github.com/bearjaws/modelfusion/pkg/uuidx"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// invocation is the bookkeeping shared by calls and streams.
type invocation struct {
	functionType events.FunctionType
	source       *events.Source
	measure      timex.Measurement
	metadata     events.Metadata
	settings     *orderedmap.OrderedMap[string, any]
	input        any
}

type bookkeeping interface {
	ModelInformation() events.ModelInfo
	SettingsForEvent() *orderedmap.OrderedMap[string, any]
	Observers() []events.Observer
}

func newCallID() string {
	return uuidx.Prefixed("call")
}

// start records the start of an invocation and notifies Started.
func start(ctx context.Context, ft events.FunctionType, model bookkeeping, fo api.FunctionOptions, input any) *invocation {
	measure := timex.Start()

	meta := events.Metadata{
		CallID:            newCallID(),
		FunctionID:        fo.FunctionID,
		Model:             model.ModelInformation(),
		StartTimestamp:    measure.StartTimestamp(),
		StartEpochSeconds: measure.StartEpochSeconds(),
	}

	var errorHandler func(error)
	if run := fo.Run; run != nil {
		meta.RunID = run.RunID
		meta.SessionID = run.SessionID
		meta.UserID = run.UserID
		errorHandler = run.ErrorHandler
	}

	inv := &invocation{
		functionType: ft,
		source:       events.NewSource(api.AllObservers(model.Observers(), fo), errorHandler),
		measure:      measure,
		metadata:     meta,
		settings:     model.SettingsForEvent(),
		input:        input,
	}

	slog.DebugContext(ctx, "model call started",
		slogx.LoggerName("executor"),
		slogx.CallID(meta.CallID),
		slog.String("function", string(ft)),
	)
	inv.source.Notify(ctx, events.Started{
		FunctionType: ft,
		Metadata:     meta,
		Settings:     inv.settings,
		Input:        input,
	})
	return inv
}

// finish notifies Finished and returns the completed metadata. Observers see
// a context that is no longer cancelled, so an aborted call can still be reported.
func (inv *invocation) finish(ctx context.Context, outcome events.Outcome) events.Metadata {
	meta := inv.metadata.Finish(inv.measure.DurationInMs())
	ctx = context.WithoutCancel(ctx)

	slog.DebugContext(ctx, "model call finished",
		slogx.LoggerName("executor"),
		slogx.CallID(meta.CallID),
		slog.String("function", string(inv.functionType)),
		slog.String("status", string(outcome.Status())),
		slog.Int64("duration_ms", *meta.DurationInMs),
	)
	inv.source.Notify(ctx, events.Finished{
		FunctionType: inv.functionType,
		Metadata:     meta,
		Settings:     inv.settings,
		Input:        inv.input,
		Result:       outcome,
	})
	return meta
}

// fail finishes the invocation with the outcome matching err and returns the
// error to hand to the caller. A cancelled ctx wins over an ordinary failure.
func (inv *invocation) fail(ctx context.Context, err error, aborted bool) error {
	if !aborted && ctx.Err() != nil {
		aborted, err = true, ctx.Err()
	}
	if aborted {
		inv.finish(ctx, events.Aborted{})
		return api.NewAbortError(err)
	}
	inv.finish(ctx, events.Failure{Err: err})
	return err
}
