/*
Package openai implements the text generation and streaming contracts of the
api package on top of OpenAI's chat completions endpoint.

# Models

Preset models share one instance per name:

	model := openai.GPT4oMini()

Custom configurations are built from settings options:

	model, err := openai.NewChatModel(
		openai.Model("gpt-4o"),
		openai.Temperature(0.2),
		openai.MaxTokens(256),
		openai.RequestOptions(option.WithAPIKey(key)),
	)

Settings can be overridden for a single call without touching the model:

	text, err := modelfusion.GenerateText(ctx, model, prompt,
		modelfusion.WithSettings(openai.Temperature(0)),
	)

# Retries and throttling

The SDK's own retries are disabled. Every request runs under the model's
retry.Policy, which defaults to retry.Exponential, and its throttle.Policy,
which defaults to throttle.Off. Responses with status 408, 409, 429 or 5xx and
transport failures are retried, honouring Retry-After headers. For streams
only the opening request is retried and throttled.

# Prompts

Prompts are provider.Prompt values. The system instructions become a system
message and every turn maps onto a user or assistant message.
*/
package openai
