package executor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/fogfish/opts"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type fakeSettings struct {
	Temperature float64
	Observers   []events.Observer
}

var temperature = opts.ForName[fakeSettings, float64]("Temperature")

type fakeModel struct {
	settings fakeSettings
	generate func(ctx context.Context, prompt string, call api.CallOptions, s fakeSettings) (api.TextGenerationResult, error)
	stream   func(ctx context.Context, prompt string, call api.CallOptions) (api.DeltaStream[string], error)
	extract  func(string) (string, bool)
}

func (m *fakeModel) ModelInformation() events.ModelInfo {
	return events.ModelInfo{Provider: "fake", ModelName: "fake-1"}
}

func (m *fakeModel) Settings() fakeSettings { return m.settings }

func (m *fakeModel) SettingsForEvent() *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()
	om.Set("temperature", m.settings.Temperature)
	return om
}

func (m *fakeModel) Observers() []events.Observer { return m.settings.Observers }

func (m *fakeModel) DoGenerateTexts(ctx context.Context, prompt string, call api.CallOptions) (api.TextGenerationResult, error) {
	return m.generate(ctx, prompt, call, m.settings)
}

func (m *fakeModel) derive(options []opts.Option[fakeSettings]) (*fakeModel, error) {
	c := *m
	if err := opts.Apply(&c.settings, options); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *fakeModel) WithSettings(options ...opts.Option[fakeSettings]) (api.TextGenerationModel[string, fakeSettings], error) {
	return m.derive(options)
}

func (m *fakeModel) DoStreamText(ctx context.Context, prompt string, call api.CallOptions) (api.DeltaStream[string], error) {
	return m.stream(ctx, prompt, call)
}

func (m *fakeModel) ExtractTextDelta(delta string) (string, bool) {
	if m.extract != nil {
		return m.extract(delta)
	}
	return delta, true
}

func (m *fakeModel) WithStreamSettings(options ...opts.Option[fakeSettings]) (api.TextStreamingModel[string, string, fakeSettings], error) {
	return m.derive(options)
}

func textResult(texts ...string) api.TextGenerationResult {
	return api.TextGenerationResult{Response: map[string]any{"texts": texts}, Texts: texts}
}

func streamOf(deltas ...string) *countingStream {
	return &countingStream{inner: api.SliceStream(deltas...)}
}

// countingStream counts upstream pulls and closes.
type countingStream struct {
	inner  api.DeltaStream[string]
	pulls  atomic.Int32
	closes atomic.Int32
	onPull func(n int32)
}

func (c *countingStream) Next() bool {
	n := c.pulls.Add(1)
	if c.onPull != nil {
		c.onPull(n)
	}
	return c.inner.Next()
}

func (c *countingStream) Current() string { return c.inner.Current() }

func (c *countingStream) Err() error { return c.inner.Err() }

func (c *countingStream) Close() error {
	c.closes.Add(1)
	return c.inner.Close()
}

type recorder struct {
	mu     sync.Mutex
	name   string
	events []events.Event
	trace  *[]string
}

func newRecorder(name string, trace *[]string) *recorder {
	return &recorder{name: name, trace: trace}
}

func (r *recorder) OnStarted(_ context.Context, e events.Started) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.trace != nil {
		*r.trace = append(*r.trace, r.name+":started")
	}
	return nil
}

func (r *recorder) OnFinished(_ context.Context, e events.Finished) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.trace != nil {
		*r.trace = append(*r.trace, r.name+":finished")
	}
	return nil
}

func (r *recorder) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *recorder) finished() (events.Finished, bool) {
	for _, e := range r.snapshot() {
		if f, ok := e.(events.Finished); ok {
			return f, true
		}
	}
	return events.Finished{}, false
}
