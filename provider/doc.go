// Package provider holds what the provider collaborators share: the prompt
// shape they accept and the mapping of HTTP failures onto *api.CallError.
//
// A collaborator lives in its own package (openai, anthropic, mock) and
// implements api.TextGenerationModel and api.TextStreamingModel. It takes
// care of request building, retries and throttling; the engine takes care of
// events, cancellation and result shaping.
package provider
