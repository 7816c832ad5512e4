package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/provider"
	"github.com/bearjaws/modelfusion/retry"
	"github.com/fogfish/opts"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const providerName = "anthropic"

var (
	_ api.TextGenerationModel[provider.Prompt, Settings]                                = (*MessagesModel)(nil)
	_ api.TextStreamingModel[provider.Prompt, anthropic.MessageStreamEventUnion, Settings] = (*MessagesModel)(nil)
)

// MessagesModel generates and streams texts with the Messages API.
type MessagesModel struct {
	settings Settings

	sdk     *anthropic.Client
	sdkOnce sync.Once
}

func NewMessagesModel(options ...opts.Option[Settings]) (*MessagesModel, error) {
	s := defaultSettings()
	if err := opts.Apply(&s, options); err != nil {
		return nil, err
	}
	if s.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", s.MaxTokens)
	}
	return &MessagesModel{settings: s}, nil
}

func (m *MessagesModel) client() *anthropic.Client {
	m.sdkOnce.Do(func() {
		c := anthropic.NewClient(slices.Concat(m.settings.requestOptions, []option.RequestOption{option.WithMaxRetries(0)})...)
		m.sdk = &c
	})
	return m.sdk
}

func (m *MessagesModel) ModelInformation() events.ModelInfo {
	return events.ModelInfo{Provider: providerName, ModelName: string(m.settings.Model)}
}

func (m *MessagesModel) Settings() Settings {
	return m.settings
}

func (m *MessagesModel) SettingsForEvent() *orderedmap.OrderedMap[string, any] {
	s := m.settings
	om := orderedmap.New[string, any]()
	om.Set("model", string(s.Model))
	om.Set("maxTokens", s.MaxTokens)
	if s.Temperature != nil {
		om.Set("temperature", *s.Temperature)
	}
	if s.keepWhitespace {
		om.Set("trimWhitespace", false)
	}
	return om
}

func (m *MessagesModel) Observers() []events.Observer {
	return m.settings.observers
}

func (m *MessagesModel) derive(options []opts.Option[Settings]) (*MessagesModel, error) {
	s := m.settings
	if err := opts.Apply(&s, options); err != nil {
		return nil, err
	}
	return &MessagesModel{settings: s}, nil
}

func (m *MessagesModel) WithSettings(options ...opts.Option[Settings]) (api.TextGenerationModel[provider.Prompt, Settings], error) {
	return m.derive(options)
}

func (m *MessagesModel) WithStreamSettings(options ...opts.Option[Settings]) (api.TextStreamingModel[provider.Prompt, anthropic.MessageStreamEventUnion, Settings], error) {
	return m.derive(options)
}

// DoGenerateTexts returns a single text joining the text blocks of the reply.
func (m *MessagesModel) DoGenerateTexts(ctx context.Context, prompt provider.Prompt, _ api.CallOptions) (api.TextGenerationResult, error) {
	params, err := m.request(prompt)
	if err != nil {
		return api.TextGenerationResult{}, err
	}

	msg, err := retry.CallWithThrottle(ctx, m.settings.Retry, m.settings.Throttle, func(ctx context.Context) (*anthropic.Message, error) {
		msg, err := m.client().Messages.New(ctx, params)
		if err != nil {
			return nil, mapError(err)
		}
		return msg, nil
	})
	if err != nil {
		return api.TextGenerationResult{}, err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return api.TextGenerationResult{
		Response: msg,
		Texts:    []string{sb.String()},
		Usage: &api.Usage{
			PromptTokens:     msg.Usage.InputTokens,
			CompletionTokens: msg.Usage.OutputTokens,
			TotalTokens:      msg.Usage.InputTokens + msg.Usage.OutputTokens,
		},
	}, nil
}

func (m *MessagesModel) DoStreamText(ctx context.Context, prompt provider.Prompt, _ api.CallOptions) (api.DeltaStream[anthropic.MessageStreamEventUnion], error) {
	params, err := m.request(prompt)
	if err != nil {
		return nil, err
	}

	strm, err := retry.CallWithThrottle(ctx, m.settings.Retry, m.settings.Throttle, func(ctx context.Context) (*ssestream.Stream[anthropic.MessageStreamEventUnion], error) {
		strm := m.client().Messages.NewStreaming(ctx, params)
		if err := strm.Err(); err != nil {
			_ = strm.Close()
			return nil, mapError(err)
		}
		return strm, nil
	})
	if err != nil {
		return nil, err
	}
	return eventStream{strm}, nil
}

// ExtractTextDelta returns the text of content block deltas. Every other
// event carries no text.
func (m *MessagesModel) ExtractTextDelta(event anthropic.MessageStreamEventUnion) (string, bool) {
	ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
	if !ok {
		return "", false
	}
	delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
	if !ok {
		return "", false
	}
	return delta.Text, true
}

func (m *MessagesModel) request(prompt provider.Prompt) (anthropic.MessageNewParams, error) {
	if err := prompt.Validate(); err != nil {
		return anthropic.MessageNewParams{}, err
	}

	messages := make([]anthropic.MessageParam, 0, len(prompt.Messages))
	for _, msg := range prompt.Messages {
		switch msg.Role {
		case provider.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case provider.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	s := m.settings
	params := anthropic.MessageNewParams{
		Model:     s.Model,
		Messages:  messages,
		MaxTokens: s.MaxTokens,
	}
	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt.System}}
	}
	if s.Temperature != nil {
		params.Temperature = anthropic.Float(*s.Temperature)
	}
	return params, nil
}

type eventStream struct {
	*ssestream.Stream[anthropic.MessageStreamEventUnion]
}

func (s eventStream) Err() error {
	return mapError(s.Stream.Err())
}

func mapError(err error) error {
	if err == nil || api.IsAbort(err) {
		return err
	}
	var apiErr *anthropic.Error
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
