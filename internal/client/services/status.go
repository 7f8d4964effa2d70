// Package services contains the client state managers: the session
// (authentication) lifecycle and the per-patient document collection.
// Both own their state exclusively; the presentation layer observes it
// through State() copies and invokes the operations here, never the
// transport directly.
package services

// Status is the lifecycle of an asynchronous operation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusError   Status = "error"
)
