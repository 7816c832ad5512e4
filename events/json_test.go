package events

import (
	"errors"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func jsonMetadata() Metadata {
	ts := time.Now().UTC().Truncate(time.Millisecond)
	return Metadata{
		CallID:            "call-123",
		FunctionID:        "summarize",
		RunID:             "run-1",
		Model:             ModelInfo{Provider: "openai", ModelName: "gpt-4o-mini"},
		StartTimestamp:    strfmt.DateTime(ts),
		StartEpochSeconds: ts.Unix(),
	}
}

func TestStartedJSON(t *testing.T) {
	settings := orderedmap.New[string, any]()
	settings.Set("temperature", 0.5)
	settings.Set("maxGenerationTokens", 100)

	started := Started{
		FunctionType: StreamText,
		Metadata:     jsonMetadata(),
		Settings:     settings,
		Input:        "hello",
	}

	data, err := ToJSON(started)
	require.NoError(t, err)

	result := gjson.ParseBytes(data)
	assert.Equal(t, "started", result.Get("type").String())
	assert.Equal(t, "stream-text", result.Get("functionType").String())
	assert.Equal(t, "call-123", result.Get("metadata.callId").String())
	assert.Equal(t, "openai", result.Get("metadata.model.provider").String())
	assert.False(t, result.Get("metadata.durationInMs").Exists())
	assert.Equal(t, `{"temperature":0.5,"maxGenerationTokens":100}`, result.Get("settings").Raw)

	decoded, err := FromJSON(data)
	require.NoError(t, err)
	got, ok := decoded.(Started)
	require.True(t, ok)
	assert.Equal(t, started.Metadata, got.Metadata)
	assert.Equal(t, "hello", got.Input)
	keys := []string{}
	for pair := got.Settings.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"temperature", "maxGenerationTokens"}, keys)
}

func TestFinishedJSON(t *testing.T) {
	meta := jsonMetadata().Finish(250)

	tests := []struct {
		name   string
		result Outcome
		check  func(t *testing.T, raw gjson.Result, got Finished)
	}{
		{
			name:   "success",
			result: Success{Output: "answer", Response: map[string]any{"id": "resp-1"}},
			check: func(t *testing.T, raw gjson.Result, got Finished) {
				assert.Equal(t, "success", raw.Get("result.status").String())
				assert.Equal(t, "answer", raw.Get("result.value").String())
				s, ok := got.Result.(Success)
				require.True(t, ok)
				assert.Equal(t, "answer", s.Output)
				assert.Equal(t, map[string]any{"id": "resp-1"}, s.Response)
				assert.False(t, raw.Get("result.usage").Exists())
				assert.Nil(t, s.Usage)
			},
		},
		{
			name:   "success with usage",
			result: Success{Output: "answer", Usage: &Usage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12}},
			check: func(t *testing.T, raw gjson.Result, got Finished) {
				assert.Equal(t, int64(12), raw.Get("result.usage.totalTokens").Int())
				s, ok := got.Result.(Success)
				require.True(t, ok)
				require.NotNil(t, s.Usage)
				assert.Equal(t, Usage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12}, *s.Usage)
			},
		},
		{
			name:   "failure",
			result: Failure{Err: errors.New("boom")},
			check: func(t *testing.T, raw gjson.Result, got Finished) {
				assert.Equal(t, "failure", raw.Get("result.status").String())
				assert.Equal(t, "boom", raw.Get("result.error").String())
				f, ok := got.Result.(Failure)
				require.True(t, ok)
				assert.EqualError(t, f.Err, "boom")
			},
		},
		{
			name:   "abort",
			result: Aborted{},
			check: func(t *testing.T, raw gjson.Result, got Finished) {
				assert.Equal(t, "abort", raw.Get("result.status").String())
				assert.IsType(t, Aborted{}, got.Result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ToJSON(Finished{FunctionType: GenerateText, Metadata: meta, Input: "q", Result: tt.result})
			require.NoError(t, err)

			raw := gjson.ParseBytes(data)
			assert.Equal(t, "finished", raw.Get("type").String())
			assert.Equal(t, int64(250), raw.Get("metadata.durationInMs").Int())

			decoded, err := FromJSON(data)
			require.NoError(t, err)
			got, ok := decoded.(Finished)
			require.True(t, ok)
			assert.Equal(t, meta, got.Metadata)
			assert.Equal(t, GenerateText, got.FunctionType)
			tt.check(t, raw, got)
		})
	}
}

func TestFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid json", "invalid"},
		{"missing type", `{"functionType":"generate-text"}`},
		{"unknown type", `{"type":"progress"}`},
		{"missing function type", `{"type":"started","metadata":{"callId":"c"}}`},
		{"missing metadata", `{"type":"started","functionType":"generate-text"}`},
		{"missing call id", `{"type":"started","functionType":"generate-text","metadata":{}}`},
		{"invalid timestamp", `{"type":"started","functionType":"generate-text","metadata":{"callId":"c","startTimestamp":"yesterday"}}`},
		{"finished without duration", `{"type":"finished","functionType":"generate-text","metadata":{"callId":"c"},"result":{"status":"abort"}}`},
		{"finished without status", `{"type":"finished","functionType":"generate-text","metadata":{"callId":"c","durationInMs":1}}`},
		{"finished with bad status", `{"type":"finished","functionType":"generate-text","metadata":{"callId":"c","durationInMs":1},"result":{"status":"maybe"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}
