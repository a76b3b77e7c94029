// Package timerservice implements the named one-shot timer contract
// the MRP state machine engine runs on (spec Section 4.3). Timers are
// armed by name; some names are parameterized by a ring port so each
// port gets an independently-armed instance (CONTINUITY_CHECK_TIMER,
// DELAY_TIMER).
package timerservice

import (
	"sync"
	"time"

	"github.com/pion/logging"
)

// Name identifies a timer per the event set in spec Section 4.1.
type Name int

const (
	Test Name = iota
	TopologyChange
	LinkUp
	LinkDown
	FDBClear
	FDBClearDelay
	StartUp
	LinkUpHysteresis
	ContinuityCheck // parameterized by Key.Port
	Delay           // parameterized by Key.Port and Key.Field
)

// String renders the timer name.
func (n Name) String() string {
	switch n {
	case Test:
		return "TEST_TIMER"
	case TopologyChange:
		return "TOPOLOGY_CHANGE_TIMER"
	case LinkUp:
		return "LINK_UP_TIMER"
	case LinkDown:
		return "LINK_DOWN_TIMER"
	case FDBClear:
		return "FDB_CLEAR_TIMER"
	case FDBClearDelay:
		return "FDB_CLEAR_DELAY"
	case StartUp:
		return "START_UP_TIMER"
	case LinkUpHysteresis:
		return "LINK_UP_HYSTERESIS_TIMER"
	case ContinuityCheck:
		return "CONTINUITY_CHECK_TIMER"
	case Delay:
		return "DELAY_TIMER"
	default:
		return "UNKNOWN_TIMER"
	}
}

// Key identifies one arm-able timer instance. Port/Field are only
// meaningful for the parameterized timers (ContinuityCheck, Delay);
// non-parameterized timers use the zero value for both.
type Key struct {
	Name  Name
	Port  uint16
	Field string
}

// Expiry is delivered to the engine when a timer fires.
type Expiry struct {
	Key Key
}

// DispatchFunc receives a timer expiry. The service calls it from the
// timer's own goroutine (via time.AfterFunc); callers that must
// serialize with a single-threaded dispatcher (spec Section 5) should
// have DispatchFunc enqueue onto that dispatcher's event channel rather
// than act directly.
type DispatchFunc func(Expiry)

type armedTimer struct {
	timer *time.Timer
}

// Service manages the set of currently-armed timers for one node.
type Service struct {
	mu       sync.Mutex
	armed    map[Key]*armedTimer
	dispatch DispatchFunc
	log      logging.LeveledLogger
	stopped  bool
}

// Config configures a Service.
type Config struct {
	// Dispatch is called on timer expiry. Required.
	Dispatch DispatchFunc

	// LoggerFactory creates the service's logger. If nil, logging is a
	// no-op.
	LoggerFactory logging.LoggerFactory
}

// New creates a Service. Panics if config.Dispatch is nil, since a
// timer service with nowhere to deliver expiries is a construction bug,
// not a recoverable runtime condition.
func New(config Config) *Service {
	if config.Dispatch == nil {
		panic("timerservice: Dispatch must not be nil")
	}
	s := &Service{
		armed:    make(map[Key]*armedTimer),
		dispatch: config.Dispatch,
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("timerservice")
	}
	return s
}

// truncMsec truncates d to millisecond resolution, matching the
// protocol's on-wire interval representation (spec Section 4.3).
func truncMsec(d time.Duration) time.Duration {
	return (d / time.Millisecond) * time.Millisecond
}

// Schedule arms the named timer if it is not already armed. If already
// armed, it is left untouched (spec Section 4.3 contract).
func (s *Service) Schedule(key Key, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, armed := s.armed[key]; armed {
		return
	}
	s.armNoLock(key, delay)
}

// Reschedule cancels any existing arming of the named timer, then arms
// it fresh.
func (s *Service) Reschedule(key Key, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelNoLock(key)
	s.armNoLock(key, delay)
}

func (s *Service) armNoLock(key Key, delay time.Duration) {
	d := truncMsec(delay)
	at := &armedTimer{}
	at.timer = time.AfterFunc(d, func() {
		s.fire(key)
	})
	s.armed[key] = at
}

func (s *Service) fire(key Key) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	_, ok := s.armed[key]
	if ok {
		delete(s.armed, key)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	if s.log != nil {
		s.log.Debugf("timer fired: %s port=%d field=%s", key.Name, key.Port, key.Field)
	}
	s.dispatch(Expiry{Key: key})
}

// Cancel disarms the named timer. Idempotent.
func (s *Service) Cancel(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelNoLock(key)
}

func (s *Service) cancelNoLock(key Key) {
	at, ok := s.armed[key]
	if !ok {
		return
	}
	at.timer.Stop()
	delete(s.armed, key)
}

// IsArmed reports whether the named timer is currently armed.
func (s *Service) IsArmed(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[key]
	return ok
}

// StopAll cancels every armed timer and prevents further arming
// (spec Section 5: stop() cancels every armed timer; subsequent event
// deliveries after stop are dropped).
func (s *Service) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, at := range s.armed {
		at.timer.Stop()
		delete(s.armed, key)
	}
	s.stopped = true
}

// Reset clears the stopped flag so the service can be reused after a
// restart (e.g. role re-initialization per spec Section 4.1).
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = false
}
