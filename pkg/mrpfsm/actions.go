package mrpfsm

import (
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrppdu"
	"github.com/go-mrp/mrp/pkg/timerservice"
)

// testRingReqLocked arms TEST_TIMER for interval and, for a node
// currently sourcing its own test frames (Manager or arbitrating
// Automanager, but not one already demoted to MANAGER_AUTO_COMP),
// sends a TEST PDU out both ring ports (spec Section 4.2, "Frame
// construction helpers").
func (e *Engine) testRingReqLocked(interval time.Duration) {
	e.timers.Reschedule(timerservice.Key{Name: timerservice.Test}, interval)
	if !e.role.isManagerLike() || e.role == RoleManagerAutoComp {
		return
	}
	for _, port := range [2]mrpcore.PortID{e.primary, e.secondary} {
		pdu := mrppdu.SetupTestRingReq(e.managerPriority, e.bridgeMAC, e.wirePortRole(port), e.wireRingState(), 0, e.nextTimestampLocked())
		e.sendPDULocked(pdu, mrpdomain.MCTest, port)
	}
	e.testFramesSent++
	if e.callbacks.OnTest != nil {
		e.callbacks.OnTest()
	}
}

// topologyChangeReqLocked arms TOPOLOGY_CHANGE_TIMER and sends a
// TOPOLOGYCHANGE PDU out both ring ports, unless suppressed by the
// permanent NoTopologyChange config flag or the one-shot runtime latch
// set by the PRM_UP × MAU_TYPE_CHANGE(secondary, UP) transition.
func (e *Engine) topologyChangeReqLocked(interval time.Duration) {
	if e.cfg.NoTopologyChange || e.suppressNextTopologyChange {
		e.suppressNextTopologyChange = false
		return
	}
	e.timers.Reschedule(timerservice.Key{Name: timerservice.TopologyChange}, interval)
	for _, port := range [2]mrpcore.PortID{e.primary, e.secondary} {
		pdu := mrppdu.SetupTopologyChangeReq(e.managerPriority, e.bridgeMAC, e.wirePortRole(port), uint16(interval/time.Millisecond), 0)
		e.sendPDULocked(pdu, mrpdomain.MCControl, port)
	}
	e.topologyChangesSent++
	if e.callbacks.OnTopologyChange != nil {
		e.callbacks.OnTopologyChange(e.bridgeMAC, interval)
	}
}

// linkChangeReqLocked arms LINK_UP_TIMER or LINK_DOWN_TIMER and sends a
// LINKUP/LINKDOWN PDU out viaPort (spec Section 4.1 representative
// rules: "linkChangeReq(primary, UP)"), counting down linkChangeCount
// toward the PT/DE retry cycle's bound.
func (e *Engine) linkChangeReqLocked(viaPort mrpcore.PortID, up bool) {
	name := timerservice.LinkDown
	if up {
		name = timerservice.LinkUp
	}
	e.timers.Reschedule(timerservice.Key{Name: name}, millisToDuration(e.derived.LinkUpDownInterval))
	pdu := mrppdu.SetupLinkChangeReq(up, e.bridgeMAC, e.wirePortRole(viaPort), uint16(e.derived.LinkUpDownInterval), false, 0)
	e.sendPDULocked(pdu, mrpdomain.MCControl, viaPort)
	if e.linkChangeCount > 0 {
		e.linkChangeCount--
	}
	if e.callbacks.OnLinkChange != nil {
		e.callbacks.OnLinkChange(viaPort, linkStateFor(up))
	}
}

// fdbProcessingDelay is the short gap between FDB_CLEAR_TIMER firing
// and the forwarding table actually being flushed, mirroring the
// original's two-stage clearLocalFDB()/clearLocalFDBDelayed() handoff
// (original_source Mrp.cc:770-780).
const fdbProcessingDelay = time.Millisecond

// clearFDBLocked arms FDB_CLEAR_TIMER for delay. When it fires,
// onFDBClearTimerLocked re-arms the short FDB_CLEAR_DELAY; the
// forwarding table is only actually flushed once that second timer
// expires, from onFDBClearDelayTimerLocked (original_source
// Mrp.cc:770-780).
func (e *Engine) clearFDBLocked(delay time.Duration) {
	e.timers.Reschedule(timerservice.Key{Name: timerservice.FDBClear}, delay)
}

// onFDBClearTimerLocked handles FDB_CLEAR_TIMER expiry: it signals the
// clearFDB observability callback and re-arms FDB_CLEAR_DELAY, ahead of
// the table actually being cleared.
func (e *Engine) onFDBClearTimerLocked() {
	e.timers.Reschedule(timerservice.Key{Name: timerservice.FDBClearDelay}, fdbProcessingDelay)
	if e.callbacks.OnClearFDB != nil {
		e.callbacks.OnClearFDB()
	}
}

// onFDBClearDelayTimerLocked handles FDB_CLEAR_DELAY expiry: the
// forwarding table is actually flushed here.
func (e *Engine) onFDBClearDelayTimerLocked() {
	if e.cfg.ForwardingTable != nil {
		_ = e.cfg.ForwardingTable.ClearTable()
	}
}

// onTopologyChangeTimerLocked observes the topology-change announcement
// window elapsing. No retransmission count is defined for topology
// change in this state machine; expiry is purely informational.
func (e *Engine) onTopologyChangeTimerLocked() {}
