// Package api defines the contract between the execution engine and the
// collaborator models that talk to a provider.
//
// A collaborator implements TextGenerationModel for single-shot calls and
// TextStreamingModel for streamed calls. The engine never performs network
// I/O itself: it hands the prompt, the call options and the cancellation
// context to the collaborator and observes the outcome.
//
// The package also owns the error taxonomy shared by every layer:
//
//   - AbortError marks an invocation cancelled through its context.
//   - CallError carries provider failures together with retry hints.
package api
