package api

import (
	"context"
	"testing"

	"github.com/bearjaws/modelfusion/events"
	"github.com/fogfish/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSettings struct {
	Temperature float64
	MaxTokens   int
}

var (
	temperature = opts.ForName[testSettings, float64]("Temperature")
	maxTokens   = opts.ForName[testSettings, int]("MaxTokens")
)

func named(name string) events.Observer {
	return events.Funcs{Started: func(context.Context, events.Started) error {
		return nil
	}, Finished: func(context.Context, events.Finished) error {
		panic(name)
	}}
}

func TestApplyFunctionOptions(t *testing.T) {
	run := &Run{RunID: "run-1"}
	fo, err := ApplyFunctionOptions(FunctionID("fn"), InRun(run))
	require.NoError(t, err)

	assert.Equal(t, "fn", fo.FunctionID)
	assert.Same(t, run, fo.Run)
	assert.False(t, fo.HasSettings())
	assert.Equal(t, CallOptions{FunctionID: "fn", Run: run}, fo.CallOptions())
}

func TestSettingsOverride(t *testing.T) {
	fo, err := ApplyFunctionOptions(WithSettings(temperature(0.2)), WithSettings(maxTokens(12)))
	require.NoError(t, err)
	require.True(t, fo.HasSettings())

	so, err := SettingsOverride[testSettings](fo)
	require.NoError(t, err)
	require.Len(t, so, 2)

	var s testSettings
	require.NoError(t, opts.Apply(&s, so))
	assert.Equal(t, testSettings{Temperature: 0.2, MaxTokens: 12}, s)

	cleared := fo.WithoutSettings()
	assert.False(t, cleared.HasSettings())
	assert.True(t, fo.HasSettings(), "receiver keeps its override")

	none, err := SettingsOverride[testSettings](cleared)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSettingsOverride_TypeMismatch(t *testing.T) {
	fo, err := ApplyFunctionOptions(WithSettings(temperature(0.2)))
	require.NoError(t, err)

	_, err = SettingsOverride[struct{ Other string }](fo)
	assert.Error(t, err)

	_, err = ApplyFunctionOptions(WithSettings(temperature(0.2)), WithSettings[struct{ Other string }]())
	assert.Error(t, err)
}

func TestAllObservers(t *testing.T) {
	m1, r1, f1 := named("model"), named("run"), named("function")

	fo, err := ApplyFunctionOptions(InRun(&Run{Observers: []events.Observer{r1}}), WithObservers(f1))
	require.NoError(t, err)

	all := AllObservers([]events.Observer{m1}, fo)
	require.Len(t, all, 3)
	for i, want := range []string{"model", "run", "function"} {
		assert.PanicsWithValue(t, want, func() { _ = all[i].OnFinished(context.Background(), events.Finished{}) })
	}

	assert.Empty(t, AllObservers(nil, FunctionOptions{}))
}

func TestShouldTrimWhitespace(t *testing.T) {
	assert.True(t, ShouldTrimWhitespace(testSettings{}))
	assert.True(t, ShouldTrimWhitespace(trim(true)))
	assert.False(t, ShouldTrimWhitespace(trim(false)))
}

type trim bool

func (t trim) TrimWhitespace() bool { return bool(t) }
