package mrpfsm

import (
	"sync"

	"github.com/go-mrp/mrp/pkg/ccm"
	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrppdu"
	"github.com/go-mrp/mrp/pkg/portmodel"
	"github.com/go-mrp/mrp/pkg/timerservice"
	"github.com/pion/logging"
)

type portState struct {
	role mrpcore.PortRole
	fwd  mrpcore.PortForwardingState
}

// Engine is the per-node MRP state machine (spec Section 4.1). It owns
// a timer service, port model, and (optionally) a CCM subsystem, and
// takes the link-layer relay, forwarding table, and interface table as
// external collaborators (mediator pattern, spec Section 9).
type Engine struct {
	mu  sync.Mutex
	cfg Config

	derived   mrpdomain.DerivedTimings
	bridgeMAC mrpdomain.MAC

	running bool
	state   NodeState
	ring    RingState
	role    Role

	primary   mrpcore.PortID
	secondary mrpcore.PortID
	ports     map[mrpcore.PortID]*portState

	managerPriority mrpdomain.Priority

	sequenceID       uint16
	lastTopologyID   uint16
	haveLastTopology bool
	timestampCounter uint32

	addTest                    bool
	testRetransmissionCount    int
	testMaxRetransmissionCount int

	linkChangeCount int
	linkMaxChange   int

	suppressNextTopologyChange bool

	// MRA arbitration state (spec Section 4.1 "MRA arbitration").
	hostBestMRMPriority     mrpdomain.Priority
	hostBestMRMSourceAddress mrpdomain.MAC
	monNReturn              int

	testFramesSent          uint64
	testFramesReceived      uint64
	topologyChangesSent     uint64
	topologyChangesReceived uint64

	timers    *timerservice.Service
	portModel *portmodel.Model
	ccmSub    *ccm.Subsystem

	callbacks Callbacks
	log       logging.LeveledLogger
}

// NewEngine validates config and constructs an Engine. The engine is
// not started; call Start to begin role initialization.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		derived:   cfg.TimingProfile.Derive(),
		bridgeMAC: cfg.Relay.GetBridgeAddress(),
		primary:   cfg.RingPort1,
		secondary: cfg.RingPort2,
		ports: map[mrpcore.PortID]*portState{
			cfg.RingPort1: {},
			cfg.RingPort2: {},
		},
		linkMaxChange: cfg.TimingProfile.Derive().TestMonitoringCount,
		callbacks:     cfg.Callbacks,
	}
	if cfg.LoggerFactory != nil {
		e.log = cfg.LoggerFactory.NewLogger("mrpfsm")
	}

	e.managerPriority = cfg.Priority
	if e.managerPriority == 0 {
		if cfg.ExpectedRole == RoleManagerAuto {
			e.managerPriority = mrpdomain.PriorityMRADefault
		} else {
			e.managerPriority = mrpdomain.PriorityDefault
		}
	}

	e.timers = timerservice.New(timerservice.Config{
		Dispatch:      e.routeExpiry,
		LoggerFactory: cfg.LoggerFactory,
	})

	e.portModel = portmodel.New(portmodel.Config{
		Ports:              []mrpcore.PortID{cfg.RingPort1, cfg.RingPort2},
		LinkDetectionDelay: cfg.LinkDetectionDelay,
		Timers:             e.timers,
		Sink:               e,
		LoggerFactory:      cfg.LoggerFactory,
	})

	if cfg.EnableLinkCheckOnRing {
		localMACs := map[mrpcore.PortID]mrpdomain.MAC{
			cfg.RingPort1: e.bridgeMAC,
			cfg.RingPort2: e.bridgeMAC,
		}
		e.ccmSub = ccm.New(ccm.Config{
			Ports:         []mrpcore.PortID{cfg.RingPort1, cfg.RingPort2},
			Interval:      cfg.CCMInterval,
			NodeName:      "mrp-node",
			LocalMACs:     localMACs,
			Relay:         cfg.Relay,
			Timers:        e.timers,
			Sink:          e,
			LoggerFactory: cfg.LoggerFactory,
		})
	}

	e.state = StatePowerOn
	e.ring = RingUndefined
	e.role = RoleDisabled

	return e, nil
}

// Start arms the start-up timer; role initialization runs when it
// fires (spec Section 3: "passes through POWER_ON while the start-up
// timer holds").
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrAlreadyRunning
	}
	e.running = true
	e.timers.Reset()
	e.timers.Schedule(timerservice.Key{Name: timerservice.StartUp}, startUpDelay)
	return nil
}

// Stop forces both ring ports to DISABLED, forces the role to
// DISABLED, and cancels every armed timer (spec Section 3 lifecycle).
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Crash is identical to Stop for this core (spec Section 6).
func (e *Engine) Crash() {
	e.Stop()
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	e.running = false
	e.timers.StopAll()
	if e.ccmSub != nil {
		e.ccmSub.Disable(e.cfg.RingPort1)
		e.ccmSub.Disable(e.cfg.RingPort2)
	}
	e.setPortStateLocked(e.cfg.RingPort1, mrpcore.PortRoleNotAssigned, mrpcore.PortForwardingDisabled)
	e.setPortStateLocked(e.cfg.RingPort2, mrpcore.PortRoleNotAssigned, mrpcore.PortForwardingDisabled)
	e.role = RoleDisabled
}

// State returns the current (NodeState, RingState, Role) triple.
func (e *Engine) State() (NodeState, RingState, Role) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.ring, e.role
}

// PortState returns the current role and forwarding state of port.
func (e *Engine) PortState(port mrpcore.PortID) (mrpcore.PortRole, mrpcore.PortForwardingState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ps, ok := e.ports[port]
	if !ok {
		return mrpcore.PortRoleNotAssigned, mrpcore.PortForwardingDisabled, false
	}
	return ps.role, ps.fwd, true
}

// NotifyCarrierChange forwards a raw carrier/admin-state change on
// port to the engine's port model for debouncing (spec Section 4.5).
func (e *Engine) NotifyCarrierChange(port mrpcore.PortID, link mrpcore.LinkState) {
	e.portModel.NotifyCarrierChange(port, link)
}

// NotifyCCMReceived forwards an inbound CCM frame on port to the
// engine's CCM subsystem, if enabled (spec Section 4.4).
func (e *Engine) NotifyCCMReceived(port mrpcore.PortID, sourceMAC mrpdomain.MAC, frame *ccm.Frame) {
	if e.ccmSub != nil {
		e.ccmSub.OnReceive(port, sourceMAC, frame)
	}
}

// MAUTypeChange implements mrpcore.LinkChangeSink. It is called by the
// port model (debounced carrier change) and the CCM subsystem
// (liveness timeout) and dispatches MAU_TYPE_CHANGE into the state
// machine.
func (e *Engine) MAUTypeChange(port mrpcore.PortID, link mrpcore.LinkState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.handleMAUTypeChangeLocked(port, link)
}

// routeExpiry is the timerservice.DispatchFunc shared by the engine,
// its port model, and its CCM subsystem: it maps a fired timer's name
// back to the owning subsystem's handler.
func (e *Engine) routeExpiry(exp timerservice.Expiry) {
	switch exp.Key.Name {
	case timerservice.Delay:
		e.portModel.OnDelayTimerExpiry(mrpcore.PortID(exp.Key.Port))
		return
	case timerservice.ContinuityCheck:
		if e.ccmSub != nil {
			e.ccmSub.OnContinuityCheckTimerExpiry(mrpcore.PortID(exp.Key.Port))
		}
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	switch exp.Key.Name {
	case timerservice.StartUp:
		e.onStartUpTimerLocked()
	case timerservice.Test:
		e.onTestTimerLocked()
	case timerservice.TopologyChange:
		e.onTopologyChangeTimerLocked()
	case timerservice.LinkUp:
		e.onLinkUpTimerLocked()
	case timerservice.LinkDown:
		e.onLinkDownTimerLocked()
	case timerservice.FDBClearDelay:
		e.onFDBClearDelayTimerLocked()
	case timerservice.FDBClear:
		e.onFDBClearTimerLocked()
	default:
		if e.log != nil {
			e.log.Warnf("unhandled timer expiry: %s", exp.Key.Name)
		}
	}
}

func (e *Engine) onStartUpTimerLocked() {
	switch e.cfg.ExpectedRole {
	case RoleClient:
		e.mrcInitLocked()
	case RoleManager:
		e.mrmInitLocked(false)
	case RoleManagerAuto:
		e.mraInitLocked()
	}
	if e.cfg.EnableLinkCheckOnRing && e.ccmSub != nil {
		e.ccmSub.Enable(e.cfg.RingPort1)
		e.ccmSub.Enable(e.cfg.RingPort2)
	}
}

// HandleInboundPDU is the link layer's entry point for a decoded MRP
// PDU arriving on port from sourceMAC. A PDU carrying a foreign
// DomainId is dropped without mutating state (invariant 5); everything
// else is translated into the engine's Event vocabulary.
func (e *Engine) HandleInboundPDU(port mrpcore.PortID, sourceMAC mrpdomain.MAC, pdu *mrppdu.PDU) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	if !pdu.Domain.Equal(e.cfg.Domain) {
		if e.log != nil {
			e.log.Debugf("dropping PDU from foreign domain %s (local %s)", pdu.Domain, e.cfg.Domain)
		}
		return
	}

	if pdu.Type.IsInterconnection() {
		e.handleEventLocked(Event{Kind: EvInterconnectionInd, Port: port, SourceMAC: sourceMAC, PDU: pdu})
		return
	}

	switch pdu.Type {
	case mrppdu.TLVTest:
		if sub := firstSubTLV(pdu); sub != nil {
			switch sub.Type {
			case mrppdu.SubTLVTestMgrNack:
				e.handleEventLocked(Event{
					Kind: EvTestMgrNackInd, Port: port, SourceMAC: sub.SourceMAC, Priority: sub.Priority,
					AnnouncedBestMAC: sub.OtherMRMMAC, AnnouncedBestPriority: sub.OtherMRMPriority,
				})
				return
			case mrppdu.SubTLVTestPropagate:
				e.handleEventLocked(Event{
					Kind: EvTestPropagateInd, Port: port, SourceMAC: sub.SourceMAC, Priority: sub.Priority,
					AnnouncedBestMAC: sub.OtherMRMMAC, AnnouncedBestPriority: sub.OtherMRMPriority,
				})
				return
			}
		}
		e.testFramesReceived++
		if e.callbacks.OnReceivedTest != nil {
			e.callbacks.OnReceivedTest(port, pdu.SourceMAC)
		}
		e.handleEventLocked(Event{Kind: EvTestRingInd, Port: port, SourceMAC: pdu.SourceMAC, Priority: pdu.Priority, PortRole: pdu.PortRole})

	case mrppdu.TLVTopologyChange:
		e.topologyChangesReceived++
		if e.callbacks.OnReceivedChange != nil {
			e.callbacks.OnReceivedChange(port)
		}
		e.handleEventLocked(Event{Kind: EvTopologyChangeInd, Port: port, SourceMAC: pdu.SourceMAC, Interval: pdu.Interval, SequenceID: pdu.SequenceID})

	case mrppdu.TLVLinkUp, mrppdu.TLVLinkDown:
		e.handleEventLocked(Event{Kind: EvLinkChangeInd, Port: port, SourceMAC: pdu.SourceMAC, PortRole: pdu.PortRole, Interval: pdu.Interval, PDU: pdu})

	default:
		if e.log != nil {
			e.log.Warnf("dropping unexpected primary PDU type %s", pdu.Type)
		}
	}
}

func firstSubTLV(pdu *mrppdu.PDU) *mrppdu.SubTLV {
	if pdu.Option == nil || len(pdu.Option.SubTLVs) == 0 {
		return nil
	}
	return &pdu.Option.SubTLVs[0]
}

// --- small locked helpers shared across roleinit.go / transitions.go / mra.go / interconnection.go ---

func (e *Engine) setPortStateLocked(port mrpcore.PortID, role mrpcore.PortRole, fwd mrpcore.PortForwardingState) {
	ps, ok := e.ports[port]
	if !ok {
		return
	}
	changed := ps.role != role || ps.fwd != fwd
	ps.role = role
	ps.fwd = fwd
	if changed && e.callbacks.OnPortStateChanged != nil {
		e.callbacks.OnPortStateChanged(port, role, fwd)
	}
}

func (e *Engine) toggleRingPortsLocked() {
	e.primary, e.secondary = e.secondary, e.primary
}

func (e *Engine) setRingStateLocked(rs RingState) {
	if e.ring == rs {
		return
	}
	e.ring = rs
	if e.callbacks.OnRingStateChanged != nil {
		e.callbacks.OnRingStateChanged(rs)
	}
}

func (e *Engine) currentLinkStateLocked(port mrpcore.PortID) mrpcore.LinkState {
	if e.cfg.InterfaceTable != nil {
		if iface, ok := e.cfg.InterfaceTable.GetInterfaceByID(port); ok {
			if iface.HasCarrier {
				return mrpcore.LinkUp
			}
			return mrpcore.LinkDown
		}
	}
	return e.portModel.CurrentLinkState(port)
}

func (e *Engine) wirePortRole(port mrpcore.PortID) uint16 {
	switch port {
	case e.primary:
		return mrppdu.WirePortRolePrimary
	case e.secondary:
		return mrppdu.WirePortRoleSecondary
	default:
		return mrppdu.WirePortRoleNotAssigned
	}
}

func (e *Engine) wireRingState() uint16 {
	switch e.ring {
	case RingClosed:
		return mrppdu.WireRingStateClosed
	case RingOpen:
		return mrppdu.WireRingStateOpen
	default:
		return mrppdu.WireRingStateUndefined
	}
}

func (e *Engine) nextTimestampLocked() uint32 {
	e.timestampCounter++
	return e.timestampCounter
}

// sendPDULocked stamps pdu with the next monotonic sequence id and the
// local domain (invariant 5/6), encodes it, and hands it to the relay.
func (e *Engine) sendPDULocked(pdu *mrppdu.PDU, dest mrpdomain.MAC, port mrpcore.PortID) {
	e.sequenceID++
	pdu.SequenceID = e.sequenceID
	pdu.Domain = e.cfg.Domain

	data, err := mrppdu.Encode(pdu)
	if err != nil {
		if e.log != nil {
			e.log.Errorf("encode %s failed: %v", pdu.Type, err)
		}
		return
	}
	if err := e.cfg.Relay.Send(port, dest, e.bridgeMAC, 0, mrpdomain.MRPEtherType, data); err != nil {
		if e.log != nil {
			e.log.Warnf("send %s on port %d failed: %v", pdu.Type, port, err)
		}
	}
}

func linkStateFor(up bool) mrpcore.LinkState {
	if up {
		return mrpcore.LinkUp
	}
	return mrpcore.LinkDown
}
