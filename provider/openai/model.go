package openai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/internal/registry"
	"github.com/bearjaws/modelfusion/provider"
	"github.com/bearjaws/modelfusion/retry"
	"github.com/fogfish/opts"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const providerName = "openai"

var presets = registry.New[*ChatModel]()

func GPT4oMini() *ChatModel {
	return preset(openai.ChatModelGPT4oMini)
}

func GPT4o() *ChatModel {
	return preset(openai.ChatModelGPT4o)
}

func O1Mini() *ChatModel {
	return preset(openai.ChatModelO1Mini)
}

func preset(name string) *ChatModel {
	m, _ := presets.GetOrCompute(name, func() *ChatModel {
		s := defaultSettings()
		s.Model = name
		return &ChatModel{settings: s}
	})
	return m
}

var (
	_ api.TextGenerationModel[provider.Prompt, Settings]                             = (*ChatModel)(nil)
	_ api.TextStreamingModel[provider.Prompt, openai.ChatCompletionChunk, Settings] = (*ChatModel)(nil)
)

// ChatModel generates and streams texts with the chat completions API.
// It is immutable and safe for concurrent use.
type ChatModel struct {
	settings Settings

	sdk     *openai.Client
	sdkOnce sync.Once
}

func NewChatModel(options ...opts.Option[Settings]) (*ChatModel, error) {
	s := defaultSettings()
	if err := opts.Apply(&s, options); err != nil {
		return nil, err
	}
	return &ChatModel{settings: s}, nil
}

func (m *ChatModel) client() *openai.Client {
	m.sdkOnce.Do(func() {
		m.sdk = openai.NewClient(slices.Concat(m.settings.requestOptions, []option.RequestOption{option.WithMaxRetries(0)})...)
	})
	return m.sdk
}

func (m *ChatModel) ModelInformation() events.ModelInfo {
	return events.ModelInfo{Provider: providerName, ModelName: m.settings.Model}
}

func (m *ChatModel) Settings() Settings {
	return m.settings
}

// SettingsForEvent leaves out client options, which may carry credentials.
func (m *ChatModel) SettingsForEvent() *orderedmap.OrderedMap[string, any] {
	s := m.settings
	om := orderedmap.New[string, any]()
	om.Set("model", s.Model)
	if s.Temperature != nil {
		om.Set("temperature", *s.Temperature)
	}
	if s.MaxTokens > 0 {
		om.Set("maxTokens", s.MaxTokens)
	}
	if s.N > 1 {
		om.Set("n", s.N)
	}
	if s.keepWhitespace {
		om.Set("trimWhitespace", false)
	}
	return om
}

func (m *ChatModel) Observers() []events.Observer {
	return m.settings.observers
}

func (m *ChatModel) derive(options []opts.Option[Settings]) (*ChatModel, error) {
	s := m.settings
	if err := opts.Apply(&s, options); err != nil {
		return nil, err
	}
	return &ChatModel{settings: s}, nil
}

func (m *ChatModel) WithSettings(options ...opts.Option[Settings]) (api.TextGenerationModel[provider.Prompt, Settings], error) {
	return m.derive(options)
}

func (m *ChatModel) WithStreamSettings(options ...opts.Option[Settings]) (api.TextStreamingModel[provider.Prompt, openai.ChatCompletionChunk, Settings], error) {
	return m.derive(options)
}

func (m *ChatModel) DoGenerateTexts(ctx context.Context, prompt provider.Prompt, call api.CallOptions) (api.TextGenerationResult, error) {
	params, err := m.request(prompt, call)
	if err != nil {
		return api.TextGenerationResult{}, err
	}

	chat, err := retry.CallWithThrottle(ctx, m.settings.Retry, m.settings.Throttle, func(ctx context.Context) (*openai.ChatCompletion, error) {
		chat, err := m.client().Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, mapError(err)
		}
		return chat, nil
	})
	if err != nil {
		return api.TextGenerationResult{}, err
	}

	texts := make([]string, 0, len(chat.Choices))
	for _, choice := range chat.Choices {
		texts = append(texts, choice.Message.Content)
	}
	return api.TextGenerationResult{
		Response: chat,
		Texts:    texts,
		Usage: &api.Usage{
			PromptTokens:     chat.Usage.PromptTokens,
			CompletionTokens: chat.Usage.CompletionTokens,
			TotalTokens:      chat.Usage.TotalTokens,
		},
	}, nil
}

func (m *ChatModel) DoStreamText(ctx context.Context, prompt provider.Prompt, call api.CallOptions) (api.DeltaStream[openai.ChatCompletionChunk], error) {
	params, err := m.request(prompt, call)
	if err != nil {
		return nil, err
	}

	strm, err := retry.CallWithThrottle(ctx, m.settings.Retry, m.settings.Throttle, func(ctx context.Context) (*ssestream.Stream[openai.ChatCompletionChunk], error) {
		strm := m.client().Chat.Completions.NewStreaming(ctx, params)
		if err := strm.Err(); err != nil {
			_ = strm.Close()
			return nil, mapError(err)
		}
		return strm, nil
	})
	if err != nil {
		return nil, err
	}
	return chunkStream{strm}, nil
}

// ExtractTextDelta returns the content delta of the first choice.
func (m *ChatModel) ExtractTextDelta(chunk openai.ChatCompletionChunk) (string, bool) {
	if len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}

func (m *ChatModel) request(prompt provider.Prompt, call api.CallOptions) (openai.ChatCompletionNewParams, error) {
	if err := prompt.Validate(); err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, openai.SystemMessage(prompt.System))
	}
	for _, msg := range prompt.Messages {
		switch msg.Role {
		case provider.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case provider.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	s := m.settings
	params := openai.ChatCompletionNewParams{
		Messages: openai.F(messages),
		Model:    openai.F(s.Model),
	}
	if s.Temperature != nil {
		params.Temperature = openai.Float(*s.Temperature)
	}
	if s.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(s.MaxTokens)
	}
	if s.N > 1 {
		params.N = openai.Int(s.N)
	}
	if call.Run != nil && call.Run.UserID != "" {
		params.User = openai.String(call.Run.UserID)
	}
	return params, nil
}

// chunkStream maps stream failures the same way as request failures.
type chunkStream struct {
	*ssestream.Stream[openai.ChatCompletionChunk]
}

func (s chunkStream) Err() error {
	return mapError(s.Stream.Err())
}

func mapError(err error) error {
	if err == nil || api.IsAbort(err) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		var header http.Header
		if apiErr.Response != nil {
			header = apiErr.Response.Header
		}
		return provider.HTTPError(apiErr.StatusCode, header, err)
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return provider.TransportError(err)
	}
	return err
}
