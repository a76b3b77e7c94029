// Package portmodel wraps the external interface table and implements
// the link-detection debounce described in spec Section 4.5: a raw
// carrier/admin-state change is routed through DELAY_TIMER before it is
// surfaced to the state machine as MAU_TYPE_CHANGE. An up transition
// uses a fast 1µs hysteresis delay; a down transition uses the
// configured linkDetectionDelay.
package portmodel

import (
	"sync"
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/timerservice"
	"github.com/pion/logging"
)

// hysteresisDelay is the fixed delay used for an up transition (spec
// Section 9, Open Question: "linkUpHysteresisTimer ... folded into
// DELAY_TIMER's debounce semantics").
const hysteresisDelay = time.Microsecond

// Config configures a Model.
type Config struct {
	// Ports lists the port IDs the model debounces carrier changes for
	// (the two ring ports, plus any interconnection port).
	Ports []mrpcore.PortID

	// LinkDetectionDelay is the debounce delay applied to a down
	// transition.
	LinkDetectionDelay time.Duration

	// Timers is the shared timer service used to arm DELAY_TIMER.
	Timers *timerservice.Service

	// Sink receives the debounced MAU_TYPE_CHANGE notification.
	Sink mrpcore.LinkChangeSink

	// LoggerFactory creates the model's logger. Optional.
	LoggerFactory logging.LoggerFactory
}

// Model tracks the debounced link state of a set of ports.
type Model struct {
	mu                 sync.Mutex
	linkDetectionDelay time.Duration
	timers             *timerservice.Service
	sink               mrpcore.LinkChangeSink
	log                logging.LeveledLogger

	pending map[mrpcore.PortID]mrpcore.LinkState // raw state awaiting debounce
	current map[mrpcore.PortID]mrpcore.LinkState // last surfaced (debounced) state
}

// New creates a Model for the configured ports, all initially DOWN.
func New(config Config) *Model {
	m := &Model{
		linkDetectionDelay: config.LinkDetectionDelay,
		timers:             config.Timers,
		sink:               config.Sink,
		pending:            make(map[mrpcore.PortID]mrpcore.LinkState),
		current:            make(map[mrpcore.PortID]mrpcore.LinkState),
	}
	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("portmodel")
	}
	for _, p := range config.Ports {
		m.current[p] = mrpcore.LinkDown
	}
	return m
}

// NotifyCarrierChange is called by the host whenever a port's raw
// carrier or admin state changes. It arms the debounce timer for that
// port; the delay depends on the direction of the transition.
func (m *Model) NotifyCarrierChange(port mrpcore.PortID, link mrpcore.LinkState) {
	m.mu.Lock()
	m.pending[port] = link
	m.mu.Unlock()

	delay := m.linkDetectionDelay
	if link == mrpcore.LinkUp {
		delay = hysteresisDelay
	}
	if m.log != nil {
		m.log.Debugf("port %d carrier change to %s, debouncing %s", port, link, delay)
	}
	m.timers.Reschedule(timerservice.Key{Name: timerservice.Delay, Port: uint16(port)}, delay)
}

// OnDelayTimerExpiry must be called by the engine's timer dispatch when
// a DELAY_TIMER(port) expiry arrives. It synthesizes MAU_TYPE_CHANGE
// with the port's current pending link state.
func (m *Model) OnDelayTimerExpiry(port mrpcore.PortID) {
	m.mu.Lock()
	link, ok := m.pending[port]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.current[port] = link
	m.mu.Unlock()

	if m.sink != nil {
		m.sink.MAUTypeChange(port, link)
	}
}

// CurrentLinkState returns the last debounced link state surfaced for
// port.
func (m *Model) CurrentLinkState(port mrpcore.PortID) mrpcore.LinkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current[port]
}

// SeedInitialState primes the model's debounced state for port without
// going through the timer and without notifying the sink. The engine
// does not call it: its initial MAU_TYPE_CHANGE synthesis reads the
// interface table directly (pkg/mrpfsm currentLinkStateLocked).
func (m *Model) SeedInitialState(port mrpcore.PortID, link mrpcore.LinkState) {
	m.mu.Lock()
	m.current[port] = link
	m.mu.Unlock()
}
