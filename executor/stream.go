package executor

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/internal/runsafe"
	"github.com/fogfish/opts"
)

// State is the lifecycle state of a TextStream.
type State int

const (
	StateStreaming State = iota
	StateCompleted
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no more fragments can be produced.
func (s State) Terminal() bool {
	return s != StateStreaming
}

// Stream starts a streamed invocation of model and returns the fragment
// sequence. Nothing is pulled from the provider until the caller calls Next.
//
// Stream itself fails only when the collaborator cannot open the delta
// stream. Every later failure surfaces through Err once Next returns false.
func Stream[P, D, S any](
	ctx context.Context,
	model api.TextStreamingModel[P, D, S],
	prompt P,
	options ...opts.Option[api.FunctionOptions],
) (*TextStream[D], error) {
	fo, err := api.ApplyFunctionOptions(options...)
	if err != nil {
		return nil, err
	}
	if fo.HasSettings() {
		override, err := api.SettingsOverride[S](fo)
		if err != nil {
			return nil, err
		}
		if model, err = model.WithStreamSettings(override...); err != nil {
			return nil, err
		}
		fo = fo.WithoutSettings()
	}

	inv := start(ctx, events.StreamText, model, fo, prompt)

	res := runsafe.Run(ctx, func(ctx context.Context) (api.DeltaStream[D], error) {
		return model.DoStreamText(ctx, prompt, fo.CallOptions())
	})
	if !res.OK() {
		return nil, inv.fail(ctx, res.Err, res.Aborted)
	}

	return &TextStream[D]{
		ctx:      ctx,
		inv:      inv,
		upstream: res.Value,
		extract:  model.ExtractTextDelta,
	}, nil
}

// TextStream is the lazily pulled sequence of text fragments of a streamed
// invocation. It has a single consumer: Next and Close must not be called
// concurrently. To stop a stream from another goroutine, cancel its context.
//
//	for stream.Next() {
//		fmt.Print(stream.Current())
//	}
//	if err := stream.Err(); err != nil { ... }
type TextStream[D any] struct {
	ctx      context.Context
	inv      *invocation
	upstream api.DeltaStream[D]
	extract  func(D) (string, bool)

	current   string
	text      strings.Builder
	lastDelta D
	hasDelta  bool

	mu        sync.Mutex
	state     State
	err       error
	finalMeta events.Metadata
	once      sync.Once
}

// Next pulls the upstream until the next non-empty fragment and reports
// whether one is available. Deltas that carry no text are skipped.
func (s *TextStream[D]) Next() bool {
	if s.State().Terminal() {
		return false
	}

	for {
		if err := s.ctx.Err(); err != nil {
			s.abort(err)
			return false
		}

		if !s.upstream.Next() {
			err := s.upstream.Err()
			switch {
			case s.ctx.Err() != nil:
				s.abort(s.ctx.Err())
			case api.IsAbort(err):
				s.abort(err)
			case err != nil:
				s.terminate(StateFailed, err, events.Failure{Err: err})
			default:
				s.complete()
			}
			return false
		}

		if err := s.ctx.Err(); err != nil {
			s.abort(err)
			return false
		}

		delta := s.upstream.Current()
		s.lastDelta, s.hasDelta = delta, true

		fragment, ok, err := s.extractSafe(delta)
		if err != nil {
			s.terminate(StateFailed, err, events.Failure{Err: err})
			return false
		}
		if !ok || fragment == "" {
			continue
		}

		s.current = fragment
		s.text.WriteString(fragment)
		return true
	}
}

func (s *TextStream[D]) extractSafe(delta D) (fragment string, ok bool, err error) {
	res := runsafe.Run(s.ctx, func(context.Context) (string, error) {
		text, found := s.extract(delta)
		if !found {
			return "", nil
		}
		return text, nil
	})
	if !res.OK() {
		return "", false, res.Err
	}
	return res.Value, res.Value != "", nil
}

// Current returns the fragment produced by the last successful Next.
func (s *TextStream[D]) Current() string {
	return s.current
}

// Err returns the error that ended the stream: an *api.AbortError when it was
// cancelled or closed early, the upstream failure when it failed, nil otherwise.
func (s *TextStream[D]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the current lifecycle state.
func (s *TextStream[D]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close stops the stream. Closing before completion counts as a cancellation
// and reports an aborted invocation.
func (s *TextStream[D]) Close() error {
	s.abort(context.Canceled)
	return nil
}

// Text returns the concatenation of every fragment produced so far.
func (s *TextStream[D]) Text() string {
	return s.text.String()
}

// LastFullDelta returns the last delta received from the provider.
func (s *TextStream[D]) LastFullDelta() (D, bool) {
	return s.lastDelta, s.hasDelta
}

// Metadata returns the metadata recorded when the invocation started.
func (s *TextStream[D]) Metadata() events.Metadata {
	return s.inv.metadata
}

// FinalMetadata returns the metadata reported with the Finished event once the
// stream reached a terminal state.
func (s *TextStream[D]) FinalMetadata() (events.Metadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalMeta, s.finalMeta.Finished()
}

// All ranges over the fragments. A failure is yielded once as the last
// element. Breaking out of the loop closes the stream.
func (s *TextStream[D]) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for s.Next() {
			if !yield(s.Current(), nil) {
				_ = s.Close()
				return
			}
		}
		if err := s.Err(); err != nil {
			yield("", err)
		}
	}
}

// Fragments ranges over the fragments. Check Err after the loop.
func (s *TextStream[D]) Fragments() iter.Seq[string] {
	return func(yield func(string) bool) {
		for s.Next() {
			if !yield(s.Current()) {
				_ = s.Close()
				return
			}
		}
	}
}

// FullResponse pairs the fragment sequence with the start metadata.
type FullResponse[D any] struct {
	Stream   *TextStream[D]
	Metadata events.Metadata
}

// AsFullResponse returns the stream together with its start metadata.
func (s *TextStream[D]) AsFullResponse() FullResponse[D] {
	return FullResponse[D]{Stream: s, Metadata: s.Metadata()}
}

func (s *TextStream[D]) abort(cause error) {
	s.terminate(StateAborted, api.NewAbortError(cause), events.Aborted{})
}

func (s *TextStream[D]) complete() {
	var response any
	if s.hasDelta {
		response = s.lastDelta
	}
	s.terminate(StateCompleted, nil, events.Success{Output: s.text.String(), Response: response})
}

// terminate moves the stream to a terminal state exactly once, closes the
// upstream and notifies Finished.
func (s *TextStream[D]) terminate(state State, err error, outcome events.Outcome) {
	s.once.Do(func() {
		s.mu.Lock()
		s.state = state
		s.err = err
		s.mu.Unlock()

		_ = s.upstream.Close()
		meta := s.inv.finish(s.ctx, outcome)

		s.mu.Lock()
		s.finalMeta = meta
		s.mu.Unlock()
	})
}
