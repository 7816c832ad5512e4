// Package uuidx generates the time-ordered identifiers used for calls and subscriptions.
package uuidx

import "github.com/google/uuid"

// New returns a version 7 UUID. It panics if the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a version 7 UUID in its canonical string form.
func NewString() string {
	return New().String()
}

// Prefixed returns a new id of the form "<prefix>-<uuid>".
func Prefixed(prefix string) string {
	return prefix + "-" + NewString()
}
