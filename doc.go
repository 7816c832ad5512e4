// Package modelfusion is a provider-agnostic engine for calling generative
// text models.
//
// GenerateText runs a single-shot generation and StreamText a streamed one.
// Both work with any collaborator implementing the api package contracts,
// such as the models in provider/openai and provider/anthropic:
//
//	text, err := modelfusion.GenerateText(ctx, openai.GPT4oMini(), provider.TextPrompt("Write a haiku"))
//
// Every invocation reports a Started and a Finished event to the observers
// configured on the model settings, the run and the call options. Cancelling
// the context aborts the invocation; an aborted invocation returns an
// *api.AbortError.
package modelfusion
