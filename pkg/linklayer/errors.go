package linklayer

import "errors"

var (
	// ErrNoHandler is returned by New when Config.Handler is nil.
	ErrNoHandler = errors.New("linklayer: config.Handler must not be nil")

	// ErrClosed is returned by Start, Stop and Send once Stop has been
	// called.
	ErrClosed = errors.New("linklayer: relay is closed")

	// ErrAlreadyStarted is returned by Start when called more than once.
	ErrAlreadyStarted = errors.New("linklayer: relay is already started")

	// ErrUnknownPort is returned when an operation names a port not
	// present in the relay's configured interface set.
	ErrUnknownPort = errors.New("linklayer: unknown port")
)
