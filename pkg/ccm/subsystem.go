package ccm

import (
	"sync"
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/timerservice"
	"github.com/pion/logging"
)

// PortState is the per-port CCM sub-state described in spec Section 3
// ("Port" data model: "CCM sub-state (enabled flag, interval, endpoint
// id, name, next-expected-update deadline, sent-sequence counter,
// lost-PDU count)").
type PortState struct {
	Enabled    bool
	Interval   time.Duration
	EndpointID uint16
	Name       string
	NextUpdate time.Time
	SentSeq    uint32
	LostCount  uint64
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config configures a Subsystem.
type Config struct {
	// Ports lists the ring ports that run continuity checking.
	Ports []mrpcore.PortID

	// Interval is the CCM transmit interval shared by every configured
	// port (spec Section 4.4 names two standard profiles: 3.3ms, 10ms).
	Interval time.Duration

	// NodeName is used as the initial human-readable endpoint name.
	NodeName string

	// LocalMACs supplies each port's own MAC, used for the endpoint-id
	// tiebreak (spec Section 4.4).
	LocalMACs map[mrpcore.PortID]mrpdomain.MAC

	// Relay sends the outgoing CCM frame.
	Relay mrpcore.Relay

	// Timers arms the per-port periodic CONTINUITY_CHECK_TIMER.
	Timers *timerservice.Service

	// Sink receives the synthesized MAU_TYPE_CHANGE(port, DOWN) on
	// timeout.
	Sink mrpcore.LinkChangeSink

	// Clock is the time source; if nil, the real wall clock is used.
	Clock Clock

	// LoggerFactory creates the subsystem's logger. Optional.
	LoggerFactory logging.LoggerFactory
}

// Subsystem implements the CCM fast link-loss detector.
type Subsystem struct {
	mu       sync.Mutex
	interval time.Duration
	nodeName string
	localMAC map[mrpcore.PortID]mrpdomain.MAC
	relay    mrpcore.Relay
	timers   *timerservice.Service
	sink     mrpcore.LinkChangeSink
	clock    Clock
	log      logging.LeveledLogger

	ports map[mrpcore.PortID]*PortState
}

// New creates a Subsystem for the configured ports, each starting
// disabled. Call Enable to start transmitting/monitoring a port.
func New(config Config) *Subsystem {
	s := &Subsystem{
		interval: config.Interval,
		nodeName: config.NodeName,
		localMAC: config.LocalMACs,
		relay:    config.Relay,
		timers:   config.Timers,
		sink:     config.Sink,
		clock:    config.Clock,
		ports:    make(map[mrpcore.PortID]*PortState),
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("ccm")
	}
	for _, p := range config.Ports {
		s.ports[p] = &PortState{
			Interval:   config.Interval,
			EndpointID: 1,
			Name:       config.NodeName,
		}
	}
	return s
}

// Enable starts continuity checking on port: arms the first periodic
// tick and marks the port's sub-state enabled.
func (s *Subsystem) Enable(port mrpcore.PortID) {
	s.mu.Lock()
	st, ok := s.ports[port]
	if !ok {
		s.mu.Unlock()
		return
	}
	st.Enabled = true
	st.NextUpdate = s.clock.Now().Add(timeoutFor(st.Interval))
	s.mu.Unlock()

	s.timers.Schedule(timerservice.Key{Name: timerservice.ContinuityCheck, Port: uint16(port)}, st.Interval)
}

// Disable stops continuity checking on port.
func (s *Subsystem) Disable(port mrpcore.PortID) {
	s.mu.Lock()
	if st, ok := s.ports[port]; ok {
		st.Enabled = false
	}
	s.mu.Unlock()
	s.timers.Cancel(timerservice.Key{Name: timerservice.ContinuityCheck, Port: uint16(port)})
}

// timeoutFor returns 3.5x the configured interval (spec Section 4.4:
// "updates the port's nextUpdate = now + 3.5 * interval").
func timeoutFor(interval time.Duration) time.Duration {
	return time.Duration(float64(interval) * 3.5)
}

// OnContinuityCheckTimerExpiry must be called by the engine's timer
// dispatch when a CONTINUITY_CHECK_TIMER(port) expiry arrives. It
// transmits the next CCM frame, checks for liveness timeout, and
// re-arms itself for the next period.
func (s *Subsystem) OnContinuityCheckTimerExpiry(port mrpcore.PortID) {
	s.mu.Lock()
	st, ok := s.ports[port]
	if !ok || !st.Enabled {
		s.mu.Unlock()
		return
	}
	st.SentSeq++
	frame := &Frame{
		Flags:      flagFor(st.Interval),
		Sequence:   st.SentSeq,
		EndpointID: st.EndpointID,
		Name:       st.Name,
	}
	now := s.clock.Now()
	timedOut := !st.NextUpdate.IsZero() && now.After(st.NextUpdate)
	interval := st.Interval
	localMAC := s.localMAC[port]
	s.mu.Unlock()

	if s.log != nil {
		s.log.Debugf("port %d CCM tx seq=%d endpoint=%d", port, frame.Sequence, frame.EndpointID)
	}
	if s.relay != nil {
		_ = s.relay.Send(port, mrpdomain.BroadcastMAC, localMAC, 0, CFMEtherType, frame.Encode())
	}

	if timedOut {
		if s.log != nil {
			s.log.Warnf("port %d CCM timeout, synthesizing link down", port)
		}
		if s.sink != nil {
			s.sink.MAUTypeChange(port, mrpcore.LinkDown)
		}
	}

	s.timers.Reschedule(timerservice.Key{Name: timerservice.ContinuityCheck, Port: uint16(port)}, interval)
}

func flagFor(interval time.Duration) IntervalFlag {
	if interval <= Interval3_3ms.Duration() {
		return Interval3_3ms
	}
	return Interval10ms
}

// OnReceive processes an inbound CCM frame on port from sourceMAC. It
// refreshes the liveness deadline and applies the deterministic
// endpoint-id tiebreak (spec Section 4.4).
func (s *Subsystem) OnReceive(port mrpcore.PortID, sourceMAC mrpdomain.MAC, frame *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.ports[port]
	if !ok || !st.Enabled {
		return
	}
	st.NextUpdate = s.clock.Now().Add(timeoutFor(st.Interval))

	local := s.localMAC[port]
	if sourceMAC.Less(local) {
		st.EndpointID = 2
		st.Name = s.nodeName + "-2"
	}
}

// State returns a copy of port's CCM sub-state, for observability.
func (s *Subsystem) State(port mrpcore.PortID) (PortState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.ports[port]
	if !ok {
		return PortState{}, false
	}
	return *st, true
}
