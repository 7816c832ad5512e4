// Package mock provides a scripted in-memory model for tests and examples.
package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/retry"
	"github.com/bearjaws/modelfusion/throttle"
	"github.com/fogfish/opts"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Settings script the behavior of the model.
type Settings struct {
	Name string
	// Texts are returned by DoGenerateTexts.
	Texts []string
	// Deltas are streamed in order by DoStreamText.
	Deltas []string
	// Delay is waited before each streamed delta.
	Delay time.Duration
	// Err fails calls. FailTimes limits the failure to the first calls; zero
	// fails every call.
	Err       error
	FailTimes int
	// StreamErr is reported after every delta has been streamed.
	StreamErr      error
	KeepWhitespace bool
	Retry          retry.Policy
	Throttle       throttle.Policy
	observers      []events.Observer
}

func (s Settings) TrimWhitespace() bool {
	return !s.KeepWhitespace
}

var (
	Name           = opts.ForName[Settings, string]("Name")
	Delay          = opts.ForName[Settings, time.Duration]("Delay")
	StreamErr      = opts.ForName[Settings, error]("StreamErr")
	KeepWhitespace = opts.ForName[Settings, bool]("KeepWhitespace")
	Retry          = opts.ForName[Settings, retry.Policy]("Retry")
	Throttle       = opts.ForName[Settings, throttle.Policy]("Throttle")
)

// Texts sets the generated texts.
func Texts(texts ...string) opts.Option[Settings] {
	return opts.Type[Settings](func(s *Settings) error {
		s.Texts = texts
		return nil
	})
}

// Deltas sets the streamed deltas.
func Deltas(deltas ...string) opts.Option[Settings] {
	return opts.Type[Settings](func(s *Settings) error {
		s.Deltas = deltas
		return nil
	})
}

// Fail makes the first times calls fail with err; times <= 0 fails every call.
func Fail(err error, times int) opts.Option[Settings] {
	return opts.Type[Settings](func(s *Settings) error {
		s.Err = err
		s.FailTimes = times
		return nil
	})
}

// Observers sets the observers notified for every call of the model.
func Observers(observers ...events.Observer) opts.Option[Settings] {
	return opts.Type[Settings](func(s *Settings) error {
		s.observers = observers
		return nil
	})
}

// Delta is one streamed element.
type Delta struct {
	Index int
	Text  string
}

// Response is the raw response of DoGenerateTexts.
type Response struct {
	Texts []string
	Call  int
}

// Model is a scripted collaborator. Derived models share the call counter.
type Model struct {
	settings Settings
	calls    *atomic.Int32
}

func New(options ...opts.Option[Settings]) (*Model, error) {
	s := Settings{Name: "mock"}
	if err := opts.Apply(&s, options); err != nil {
		return nil, err
	}
	return &Model{settings: s, calls: new(atomic.Int32)}, nil
}

// Calls returns the number of provider calls made, retries included.
func (m *Model) Calls() int {
	return int(m.calls.Load())
}

func (m *Model) ModelInformation() events.ModelInfo {
	return events.ModelInfo{Provider: "mock", ModelName: m.settings.Name}
}

func (m *Model) Settings() Settings {
	return m.settings
}

func (m *Model) SettingsForEvent() *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()
	om.Set("name", m.settings.Name)
	if m.settings.KeepWhitespace {
		om.Set("trimWhitespace", false)
	}
	return om
}

func (m *Model) Observers() []events.Observer {
	return m.settings.observers
}

func (m *Model) with(options []opts.Option[Settings]) (*Model, error) {
	s := m.settings
	if err := opts.Apply(&s, options); err != nil {
		return nil, err
	}
	return &Model{settings: s, calls: m.calls}, nil
}

func (m *Model) WithSettings(options ...opts.Option[Settings]) (api.TextGenerationModel[string, Settings], error) {
	return m.with(options)
}

func (m *Model) WithStreamSettings(options ...opts.Option[Settings]) (api.TextStreamingModel[string, Delta, Settings], error) {
	return m.with(options)
}

func (m *Model) call(ctx context.Context) (int, error) {
	n := int(m.calls.Add(1))
	if err := ctx.Err(); err != nil {
		return n, err
	}
	if m.settings.Err != nil && (m.settings.FailTimes <= 0 || n <= m.settings.FailTimes) {
		return n, m.settings.Err
	}
	return n, nil
}

func (m *Model) DoGenerateTexts(ctx context.Context, _ string, _ api.CallOptions) (api.TextGenerationResult, error) {
	return retry.CallWithThrottle(ctx, m.settings.Retry, m.settings.Throttle, func(ctx context.Context) (api.TextGenerationResult, error) {
		n, err := m.call(ctx)
		if err != nil {
			return api.TextGenerationResult{}, err
		}
		texts := append([]string(nil), m.settings.Texts...)
		return api.TextGenerationResult{
			Response: Response{Texts: texts, Call: n},
			Texts:    texts,
			Usage:    &api.Usage{CompletionTokens: int64(len(texts)), TotalTokens: int64(len(texts))},
		}, nil
	})
}

func (m *Model) DoStreamText(ctx context.Context, _ string, _ api.CallOptions) (api.DeltaStream[Delta], error) {
	_, err := retry.CallWithThrottle(ctx, m.settings.Retry, m.settings.Throttle, m.call)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	deltas := make(chan Delta)
	errs := make(chan error, 1)
	go func() {
		defer close(deltas)
		defer close(errs)

		for i, text := range m.settings.Deltas {
			if m.settings.Delay > 0 {
				t := time.NewTimer(m.settings.Delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case <-t.C:
				}
			}
			select {
			case <-ctx.Done():
				return
			case deltas <- Delta{Index: i, Text: text}:
			}
		}
		if m.settings.StreamErr != nil {
			errs <- m.settings.StreamErr
		}
	}()
	return api.ChannelStream(ctx, deltas, errs, cancel), nil
}

func (m *Model) ExtractTextDelta(delta Delta) (string, bool) {
	return delta.Text, true
}
