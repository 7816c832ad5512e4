// Package anthropic implements the text generation and streaming contracts of
// the api package on top of Anthropic's Messages API.
//
//	model, err := anthropic.NewMessagesModel(
//		anthropic.MaxTokens(512),
//		anthropic.RequestOptions(option.WithAPIKey(key)),
//	)
//	text, err := modelfusion.GenerateText(ctx, model, provider.TextPrompt("Write a haiku"))
//
// As with the openai package, SDK retries are disabled and requests run under
// the model's retry and throttle policies.
package anthropic
