// Package runstate collects per-call records of a run from lifecycle events,
// with fork and join support for fan-out work.
package runstate

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/bearjaws/modelfusion/events"
	"github.com/google/uuid"
)

// Call is the record of one finished invocation.
type Call struct {
	CallID       string
	FunctionID   string
	FunctionType events.FunctionType
	Model        events.ModelInfo
	Status       events.Status
	Duration     time.Duration
	// Usage is nil when the provider did not report token counts.
	Usage *events.Usage
}

// Totals summarizes the calls held by an aggregator.
type Totals struct {
	Calls     int
	Succeeded int
	Failed    int
	Aborted   int
	Duration  time.Duration
	Usage     events.Usage
}

// Aggregator is an events.Observer that records every finished invocation.
// It is safe for concurrent use.
type Aggregator struct {
	id uuid.UUID

	mu       sync.Mutex
	calls    []Call
	initLen  int
	inFlight int
}

var _ events.Observer = (*Aggregator)(nil)

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{id: uuid.New()}
}

// ID returns the identifier assigned when the aggregator was created or forked.
func (a *Aggregator) ID() uuid.UUID {
	return a.id
}

// Len returns the number of recorded calls.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

// InFlight returns the number of invocations started but not yet finished.
func (a *Aggregator) InFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

// Calls returns a copy of the recorded calls in completion order.
func (a *Aggregator) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.calls)
}

// CallsIter iterates over a snapshot of the recorded calls.
func (a *Aggregator) CallsIter() iter.Seq[Call] {
	return slices.Values(a.Calls())
}

func (a *Aggregator) OnStarted(context.Context, events.Started) error {
	a.mu.Lock()
	a.inFlight++
	a.mu.Unlock()
	return nil
}

func (a *Aggregator) OnFinished(_ context.Context, e events.Finished) error {
	call := Call{
		CallID:       e.Metadata.CallID,
		FunctionID:   e.Metadata.FunctionID,
		FunctionType: e.FunctionType,
		Model:        e.Metadata.Model,
		Status:       e.Status(),
	}
	if e.Metadata.DurationInMs != nil {
		call.Duration = time.Duration(*e.Metadata.DurationInMs) * time.Millisecond
	}
	if s, ok := e.Result.(events.Success); ok && s.Usage != nil {
		u := *s.Usage
		call.Usage = &u
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight > 0 {
		a.inFlight--
	}
	a.calls = append(a.calls, call)
	return nil
}

// Totals sums up the recorded calls.
func (a *Aggregator) Totals() Totals {
	var t Totals
	for c := range a.CallsIter() {
		t.Calls++
		switch c.Status {
		case events.StatusSuccess:
			t.Succeeded++
		case events.StatusFailure:
			t.Failed++
		case events.StatusAbort:
			t.Aborted++
		}
		t.Duration += c.Duration
		t.Usage.Add(c.Usage)
	}
	return t
}

// Fork returns a new aggregator seeded with the calls recorded so far.
func (a *Aggregator) Fork() *Aggregator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Aggregator{
		id:      uuid.New(),
		calls:   slices.Clone(a.calls),
		initLen: len(a.calls),
	}
}

// Join appends the calls b recorded after it was forked.
func (a *Aggregator) Join(b *Aggregator) {
	b.mu.Lock()
	added := slices.Clone(b.calls[b.initLen:])
	b.mu.Unlock()

	a.mu.Lock()
	a.calls = append(a.calls, added...)
	a.mu.Unlock()
}
