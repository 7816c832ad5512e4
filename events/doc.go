// Package events describes the lifecycle of a model invocation and delivers
// it to observers.
//
// Every invocation emits exactly one Started event followed by exactly one
// Finished event that shares the same call id. A Finished event carries one
// of three outcomes: Success, Failure or Aborted.
//
// Observers are notified synchronously and in order by a Source. An observer
// that returns an error or panics never affects the invocation or the other
// observers; its failure is routed to the run's error handler instead.
package events
