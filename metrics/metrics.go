// Package metrics defines what the server reports about the connections it
// serves. Components accept a ServerMetrics and fall back to the no-op
// implementation when none is provided, so metrics are optional.
package metrics

import "time"

// Outcomes a single connection may end with.
const (
	OutcomeOK         = "ok"
	OutcomeBadRequest = "bad_request"
	OutcomeReadError  = "read_error"
	OutcomeEmpty      = "empty"
	OutcomeWriteError = "write_error"
)

// Directions of BytesTransferred.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// ServerMetrics collects counters of the accept loop and the dispatcher.
type ServerMetrics interface {
	// ConnectionAccepted is called once per successfully accepted connection.
	ConnectionAccepted()

	// AcceptFailed is called on every failed Accept, except the one caused by
	// the listener being closed on shutdown.
	AcceptFailed()

	// RequestServed records how a connection ended and how long it took from
	// the read to closing the connection.
	RequestServed(outcome string, duration time.Duration)

	// BytesTransferred records bytes read from (DirectionIn) or written to
	// (DirectionOut) a connection.
	BytesTransferred(direction string, n int)
}

// OrNoop returns m, or the no-op implementation if m is nil.
func OrNoop(m ServerMetrics) ServerMetrics {
	if m == nil {
		return NewNoop()
	}

	return m
}

type noop struct{}

// NewNoop returns an implementation discarding everything.
func NewNoop() ServerMetrics {
	return noop{}
}

func (noop) ConnectionAccepted()                 {}
func (noop) AcceptFailed()                       {}
func (noop) RequestServed(string, time.Duration) {}
func (noop) BytesTransferred(string, int)        {}
