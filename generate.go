package modelfusion

import (
	"context"
	"errors"
	"strings"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/events"
	"github.com/bearjaws/modelfusion/executor"
)

// ErrNoTexts is returned when a model produced no text at all.
var ErrNoTexts = errors.New("model returned no texts")

// TextResponse is the full result of GenerateTextFull.
type TextResponse struct {
	// Text is the first generated text.
	Text string
	// Texts holds every generated text, trimmed unless the model disables it.
	Texts []string
	// Response is the raw provider response.
	Response any
	Usage    *api.Usage
	Metadata events.Metadata
}

// GenerateText generates a text for prompt. Leading and trailing whitespace is
// removed unless the model settings disable trimming.
func GenerateText[P, S any](ctx context.Context, model api.TextGenerationModel[P, S], prompt P, options ...Option) (string, error) {
	full, err := GenerateTextFull(ctx, model, prompt, options...)
	if err != nil {
		return "", err
	}
	return full.Text, nil
}

// GenerateTextFull is GenerateText returning every text together with the raw
// response and the call metadata.
func GenerateTextFull[P, S any](ctx context.Context, model api.TextGenerationModel[P, S], prompt P, options ...Option) (TextResponse, error) {
	resp, err := executor.Call(ctx, events.GenerateText, model, prompt, extractTexts[S], options...)
	if err != nil {
		return TextResponse{}, err
	}
	return TextResponse{
		Text:     resp.Value[0],
		Texts:    resp.Value,
		Response: resp.Result.Response,
		Usage:    resp.Result.Usage,
		Metadata: resp.Metadata,
	}, nil
}

func extractTexts[S any](settings S, result api.TextGenerationResult) ([]string, error) {
	if len(result.Texts) == 0 {
		return nil, ErrNoTexts
	}
	texts := make([]string, len(result.Texts))
	trim := api.ShouldTrimWhitespace(settings)
	for i, text := range result.Texts {
		if trim {
			text = strings.TrimSpace(text)
		}
		texts[i] = text
	}
	return texts, nil
}

// TextFunction binds a model and a prompt template into a plain function.
func TextFunction[I, P, S any](model api.TextGenerationModel[P, S], template func(I) (P, error), options ...Option) func(context.Context, I) (string, error) {
	return func(ctx context.Context, input I) (string, error) {
		prompt, err := template(input)
		if err != nil {
			return "", err
		}
		return GenerateText(ctx, model, prompt, options...)
	}
}
