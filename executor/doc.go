// Package executor runs model invocations and reports their lifecycle.
//
// Call runs a single-shot generation; Stream starts a streamed generation
// whose fragments are pulled lazily by the caller. Both notify the observers
// configured on the model, the run and the function options: one Started
// event, then one Finished event with the same call id. Neither retries;
// retry and throttling are the collaborator model's concern.
package executor
