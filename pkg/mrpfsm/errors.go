package mrpfsm

import "errors"

var (
	ErrNilRelay           = errors.New("mrpfsm: config.Relay must not be nil")
	ErrNilForwardingTable = errors.New("mrpfsm: config.ForwardingTable must not be nil")
	ErrInvalidRole        = errors.New("mrpfsm: config.ExpectedRole is not a valid role")
	ErrNotRunning         = errors.New("mrpfsm: engine is not running")
	ErrAlreadyRunning     = errors.New("mrpfsm: engine is already running")
	ErrUnknownPort        = errors.New("mrpfsm: port is not one of the configured ring ports")
)
