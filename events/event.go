package events

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Status is the terminal status reported by a Finished event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusAbort   Status = "abort"
)

// Event is a lifecycle event: either Started or Finished.
type Event interface {
	lifecycleEvent()
	Meta() Metadata
}

// Started is emitted before the collaborator is invoked.
type Started struct {
	FunctionType FunctionType
	Metadata     Metadata
	Settings     *orderedmap.OrderedMap[string, any]
	Input        any
}

func (Started) lifecycleEvent() {}

func (e Started) Meta() Metadata { return e.Metadata }

// Finished is emitted once the invocation reached a terminal state.
type Finished struct {
	FunctionType FunctionType
	Metadata     Metadata
	Settings     *orderedmap.OrderedMap[string, any]
	Input        any
	Result       Outcome
}

func (Finished) lifecycleEvent() {}

func (e Finished) Meta() Metadata { return e.Metadata }

// Status returns the status of the outcome.
func (e Finished) Status() Status {
	if e.Result == nil {
		panic("finished event without outcome")
	}
	return e.Result.Status()
}

// Outcome is one of Success, Failure or Aborted.
type Outcome interface {
	outcome()
	Status() Status
}

// Success carries the extracted output and the raw provider response.
type Success struct {
	Output   any
	Response any
	// Usage is nil when the provider did not report token counts.
	Usage *Usage
}

// Usage counts the tokens consumed by a call.
type Usage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// Add accumulates other into u.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

func (Success) outcome() {}

func (Success) Status() Status { return StatusSuccess }

// Failure carries the error that ended the invocation.
type Failure struct {
	Err error
}

func (Failure) outcome() {}

func (Failure) Status() Status { return StatusFailure }

// Aborted marks an invocation cancelled by its caller.
type Aborted struct{}

func (Aborted) outcome() {}

func (Aborted) Status() Status { return StatusAbort }
