package mrpfsm

import (
	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/timerservice"
)

// handleMAUTypeChangeLocked dispatches a carrier change on port to the
// handler for the current node state (spec Section 4.1 representative
// transition rules; unmatched (state, event) combinations are silently
// ignored).
func (e *Engine) handleMAUTypeChangeLocked(port mrpcore.PortID, link mrpcore.LinkState) {
	e.setPortStateLocked(port, e.roleOf(port), e.forwardingForLink(port, link))

	switch e.state {
	case StateACStat1:
		e.handleMAUChangeACStat1Locked(port, link)
	case StatePRMUp:
		e.handleMAUChangePRMUpLocked(port, link)
	case StateCHKRO:
		e.handleMAUChangeCHKROLocked(port, link)
	case StateCHKRC:
		e.handleMAUChangeCHKRCLocked(port, link)
	case StateDEIdle:
		e.handleMAUChangeDEIdleLocked(port, link)
	case StatePT:
		e.handleMAUChangePTLocked(port, link)
	case StateDE:
		e.handleMAUChangeDELocked(port, link)
	case StatePTIdle:
		e.handleMAUChangePTIdleLocked(port, link)
	}
}

func (e *Engine) roleOf(port mrpcore.PortID) mrpcore.PortRole {
	switch port {
	case e.primary:
		return mrpcore.PortRolePrimary
	case e.secondary:
		return mrpcore.PortRoleSecondary
	default:
		return mrpcore.PortRoleNotAssigned
	}
}

// forwardingForLink derives a port's forwarding state from the carrier
// report alone. A manager-like role with the ring CLOSED reports its
// secondary port BLOCKED; a NonBlockingMRC manager never blocks it
// (original_source Mrp.cc's nonBlockingMRC gate on the CHK_RO/CHK_RC
// secondary-port handling). A client reports its secondary port BLOCKED
// while the ring is not CLOSED; a client's ring state is UNDEFINED, so
// its secondary port is forwarded only by the LINK_UP_TIMER rule that
// settles into PT_IDLE. Every other UP port forwards.
func (e *Engine) forwardingForLink(port mrpcore.PortID, link mrpcore.LinkState) mrpcore.PortForwardingState {
	if link == mrpcore.LinkDown {
		return mrpcore.PortForwardingDisabled
	}
	if e.role.isManagerLike() && port == e.secondary && e.ring == RingClosed && !e.cfg.NonBlockingMRC {
		return mrpcore.PortForwardingBlocked
	}
	if e.role == RoleClient && port == e.secondary && e.ring != RingClosed {
		return mrpcore.PortForwardingBlocked
	}
	return mrpcore.PortForwardingForwarding
}

// blockedUnlessNonBlockingLocked is the explicit-transition counterpart
// of forwardingForLink's NonBlockingMRC gate: CHK_RO/CHK_RC's recovery
// rules, PRM_UP's secondary-up rule and the CHK_RO self-closing
// TEST_RING_IND rule all drive the
// new secondary to BLOCKED directly rather than deriving it from the
// next carrier report, but a NonBlockingMRC manager must still never
// block its secondary port.
func (e *Engine) blockedUnlessNonBlockingLocked() mrpcore.PortForwardingState {
	if e.cfg.NonBlockingMRC {
		return mrpcore.PortForwardingForwarding
	}
	return mrpcore.PortForwardingBlocked
}

// handleMAUChangeACStat1Locked is the common entry transition out of
// AC_STAT1 once a port reports its initial carrier state (spec Section
// 4.1, "Manager (mrmInit)" and "Client (mrcInit)" representative
// rules). A manager/MRA always moves on to PRM_UP with RingState OPEN
// and arms its first self-test; a client settles directly into
// DE_IDLE and never visits PRM_UP at all, that state being manager-
// only. Whichever port reports UP becomes PRIMARY; if it was the
// current secondary, the ring ports are toggled first.
func (e *Engine) handleMAUChangeACStat1Locked(port mrpcore.PortID, link mrpcore.LinkState) {
	if link != mrpcore.LinkUp {
		return
	}
	if port == e.secondary {
		e.toggleRingPortsLocked()
	}
	e.setPortStateLocked(e.primary, mrpcore.PortRolePrimary, mrpcore.PortForwardingForwarding)

	if e.role.isManagerLike() {
		e.testRetransmissionCount = 0
		e.state = StatePRMUp
		e.setRingStateLocked(RingOpen)
		e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
		return
	}
	e.state = StateDEIdle
}

// handleMAUChangePRMUpLocked implements the two manager-only PRM_UP
// representative rules keyed on MAU_TYPE_CHANGE (the third, TEST_RING_IND
// closing the ring on itself, is handled in handleTestRingIndLocked):
// losing the primary link aborts the self-test and falls back to
// AC_STAT1, while the secondary link coming up closes the ring without
// ever having sent a test frame around it, so the topology-change
// announcement that would otherwise follow is suppressed once (spec
// Section 4.1, PRM_UP representative rules). PRM_UP is manager-only; a
// client's primary/secondary handling settles directly into DE_IDLE
// from handleMAUChangeACStat1Locked and never reaches this state.
func (e *Engine) handleMAUChangePRMUpLocked(port mrpcore.PortID, link mrpcore.LinkState) {
	if !e.role.isManagerLike() {
		return
	}
	switch {
	case port == e.primary && link == mrpcore.LinkDown:
		e.timers.Cancel(timerservice.Key{Name: timerservice.Test})
		e.setPortStateLocked(e.primary, mrpcore.PortRolePrimary, mrpcore.PortForwardingBlocked)
		e.state = StateACStat1
		e.setRingStateLocked(RingOpen)
	case port == e.secondary && link == mrpcore.LinkUp:
		e.testRetransmissionCount = 0
		e.suppressNextTopologyChange = true
		e.state = StateCHKRC
		e.setRingStateLocked(RingClosed)
		e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, e.blockedUnlessNonBlockingLocked())
		e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
	}
}

// handleMAUChangeCHKROLocked implements the CHK_RO recovery rule: the
// primary ring port dropping toggles the ring ports (the live
// secondary becomes the new primary), blocks the new secondary,
// re-arms the self-test, announces the topology change, and falls back
// to PRM_UP with the ring OPEN (spec Section 4.1, CHK_RO representative
// rule).
func (e *Engine) handleMAUChangeCHKROLocked(port mrpcore.PortID, link mrpcore.LinkState) {
	if !e.role.isManagerLike() || port != e.primary || link != mrpcore.LinkDown {
		return
	}
	e.toggleRingPortsLocked()
	e.setPortStateLocked(e.primary, mrpcore.PortRolePrimary, mrpcore.PortForwardingForwarding)
	e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, e.blockedUnlessNonBlockingLocked())
	e.testRetransmissionCount = 0
	e.state = StatePRMUp
	e.setRingStateLocked(RingOpen)
	e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
	e.topologyChangeReqLocked(millisToDuration(e.derived.TopologyChangeInterval))
}

// handleMAUChangeCHKRCLocked is CHK_RC's analog of the CHK_RO recovery
// rule above, exercised end-to-end by the "ring opens on link loss"
// scenario: from steady (Manager, CHK_RC) a primary-down toggles the
// ring ports, blocks the new secondary, re-arms the self-test,
// announces the topology change, and falls back to PRM_UP with the
// ring OPEN (spec Section 4.1).
func (e *Engine) handleMAUChangeCHKRCLocked(port mrpcore.PortID, link mrpcore.LinkState) {
	if !e.role.isManagerLike() || port != e.primary || link != mrpcore.LinkDown {
		return
	}
	e.toggleRingPortsLocked()
	e.setPortStateLocked(e.primary, mrpcore.PortRolePrimary, mrpcore.PortForwardingForwarding)
	e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, e.blockedUnlessNonBlockingLocked())
	e.testRetransmissionCount = 0
	e.state = StatePRMUp
	e.setRingStateLocked(RingOpen)
	e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
	e.topologyChangeReqLocked(millisToDuration(e.derived.TopologyChangeInterval))
}

// handleMAUChangeDEIdleLocked is the client-only DE_IDLE representative
// rule: the secondary port coming up starts the up-direction
// LINK_UP_TIMER retry cycle (state PT); losing the primary port falls
// all the way back to AC_STAT1. Manager-like roles are ignored here,
// including a demoted MANAGER_AUTO_COMP, which waits in DE_IDLE.
func (e *Engine) handleMAUChangeDEIdleLocked(port mrpcore.PortID, link mrpcore.LinkState) {
	if e.role.isManagerLike() {
		return
	}
	if port == e.secondary && link == mrpcore.LinkUp {
		e.linkChangeCount = e.linkMaxChange
		e.state = StatePT
		e.linkChangeReqLocked(e.primary, true)
		return
	}
	if port == e.primary && link == mrpcore.LinkDown {
		e.setPortStateLocked(e.primary, mrpcore.PortRolePrimary, mrpcore.PortForwardingBlocked)
		e.state = StateACStat1
	}
}

// handleMAUChangePTLocked is the client-only PT representative rule:
// losing either ring port cancels the running LINK_UP_TIMER retry
// cycle and falls to DE; losing the primary additionally toggles the
// ring ports, since the still-live secondary becomes the new primary.
func (e *Engine) handleMAUChangePTLocked(port mrpcore.PortID, link mrpcore.LinkState) {
	if e.role.isManagerLike() || link != mrpcore.LinkDown {
		return
	}
	e.timers.Cancel(timerservice.Key{Name: timerservice.LinkUp})
	switch port {
	case e.secondary:
		e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, mrpcore.PortForwardingBlocked)
		e.state = StateDE
		e.linkChangeReqLocked(e.primary, false)
	case e.primary:
		e.toggleRingPortsLocked()
		e.setPortStateLocked(e.primary, mrpcore.PortRolePrimary, mrpcore.PortForwardingForwarding)
		e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, mrpcore.PortForwardingBlocked)
		e.state = StateDE
		e.linkChangeReqLocked(e.primary, false)
	}
}

// handleMAUChangeDELocked is the down-direction counterpart of
// handleMAUChangePTLocked: the secondary port returning cancels
// LINK_DOWN_TIMER and restarts the up-direction retry cycle; losing the
// primary port drops all the way back to AC_STAT1.
func (e *Engine) handleMAUChangeDELocked(port mrpcore.PortID, link mrpcore.LinkState) {
	if e.role.isManagerLike() {
		return
	}
	if port == e.secondary && link == mrpcore.LinkUp {
		e.timers.Cancel(timerservice.Key{Name: timerservice.LinkDown})
		e.state = StatePT
		e.linkChangeReqLocked(e.primary, true)
		return
	}
	if port == e.primary && link == mrpcore.LinkDown {
		e.linkChangeCount = e.linkMaxChange
		e.setPortStateLocked(e.primary, mrpcore.PortRolePrimary, mrpcore.PortForwardingBlocked)
		e.state = StateACStat1
	}
}

// handleMAUChangePTIdleLocked: a ring port dropping out of steady
// state PT_IDLE starts the down-direction LINK_DOWN_TIMER retry cycle,
// the structural counterpart of DE_IDLE's up-direction rule; losing
// the primary toggles the ring ports first.
func (e *Engine) handleMAUChangePTIdleLocked(port mrpcore.PortID, link mrpcore.LinkState) {
	if e.role.isManagerLike() || link != mrpcore.LinkDown {
		return
	}
	switch port {
	case e.secondary:
		e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, mrpcore.PortForwardingBlocked)
		e.state = StateDE
		e.linkChangeReqLocked(e.primary, false)
	case e.primary:
		e.toggleRingPortsLocked()
		e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, mrpcore.PortForwardingBlocked)
		e.state = StateDE
		e.linkChangeReqLocked(e.primary, false)
	}
}

// onTestTimerLocked re-arms TEST_TIMER and, in CHK_RC, advances the
// retransmission count; exceeding testMaxRetransmissionCount without a
// self-received TEST PDU opens the ring: the secondary port is
// forwarded, a topology change is announced (subject to
// topologyChangeReqLocked's suppression), and the manager falls back to
// CHK_RO (spec Section 4.1, CHK_RC representative rule).
func (e *Engine) onTestTimerLocked() {
	if e.role == RoleManagerAutoComp {
		e.onShortTestTickLocked()
		return
	}
	if !e.role.isManagerLike() {
		return
	}
	switch e.state {
	case StateCHKRC:
		e.testRetransmissionCount++
		if e.testRetransmissionCount > e.testMaxRetransmissionCount {
			e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, mrpcore.PortForwardingForwarding)
			e.setRingStateLocked(RingOpen)
			e.state = StateCHKRO
			e.testRetransmissionCount = 0
			e.topologyChangeReqLocked(millisToDuration(e.derived.TopologyChangeInterval))
		}
		e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
	case StateCHKRO:
		e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
	default:
		e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
	}
}

// onLinkUpTimerLocked is the client-only LINK_UP_TIMER expiry rule:
// once linkChangeCount has been exhausted by retransmission, the
// secondary port is forwarded and the retry cycle settles into
// PT_IDLE; otherwise LINKUP is resent and the cycle continues (spec
// Section 4.1, PT representative rule).
func (e *Engine) onLinkUpTimerLocked() {
	if e.state != StatePT {
		return
	}
	if e.linkChangeCount == 0 {
		e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, mrpcore.PortForwardingForwarding)
		e.linkChangeCount = e.linkMaxChange
		e.state = StatePTIdle
		return
	}
	e.linkChangeReqLocked(e.primary, true)
}

// onLinkDownTimerLocked is the down-direction counterpart of
// onLinkUpTimerLocked.
func (e *Engine) onLinkDownTimerLocked() {
	if e.state != StateDE {
		return
	}
	if e.linkChangeCount == 0 {
		e.linkChangeCount = e.linkMaxChange
		e.state = StateDEIdle
		return
	}
	e.linkChangeReqLocked(e.primary, false)
}

// handleEventLocked dispatches a decoded-PDU event by kind (spec
// Section 4.1 representative transition rules keyed on the PDU event
// set).
func (e *Engine) handleEventLocked(ev Event) {
	switch ev.Kind {
	case EvTestRingInd:
		e.handleTestRingIndLocked(ev)
	case EvTopologyChangeInd:
		e.handleTopologyChangeIndLocked(ev)
	case EvLinkChangeInd:
		e.handleLinkChangeIndLocked(ev)
	case EvTestMgrNackInd:
		e.handleTestMgrNackIndLocked(ev)
	case EvTestPropagateInd:
		e.handleTestPropagateIndLocked(ev)
	case EvInterconnectionInd:
		e.handleInterconnectionIndLocked(ev)
	}
}

// handleTestRingIndLocked distinguishes a self-originated TEST PDU
// completing the ring (own source MAC, invariant 1: "a Manager closes
// the ring only upon receiving back its own TEST frame") from a peer's
// TEST frame, which is MRA arbitration material. Closing the ring from
// CHK_RO additionally blocks the secondary port and announces the
// topology change, immediately if ReactOnLinkChange is set or after
// TopologyChangeInterval otherwise (spec Section 4.1, CHK_RO
// representative rule for TEST_RING_IND); closing it from PRM_UP (the
// ring test completed before ever having been open) does neither.
func (e *Engine) handleTestRingIndLocked(ev Event) {
	if ev.SourceMAC == e.bridgeMAC {
		if !e.role.isManagerLike() {
			return
		}
		switch e.state {
		case StatePRMUp:
			e.testRetransmissionCount = 0
			e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
			e.state = StateCHKRC
			e.setRingStateLocked(RingClosed)
		case StateCHKRO:
			e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, e.blockedUnlessNonBlockingLocked())
			e.testRetransmissionCount = 0
			e.testRingReqLocked(millisToDuration(e.derived.DefaultTestInterval))
			if e.cfg.ReactOnLinkChange {
				e.topologyChangeReqLocked(0)
			} else {
				e.topologyChangeReqLocked(millisToDuration(e.derived.TopologyChangeInterval))
			}
			e.state = StateCHKRC
			e.setRingStateLocked(RingClosed)
		case StateCHKRC:
			e.testRetransmissionCount = 0
		}
		return
	}
	if e.role == RoleManagerAuto || e.role == RoleManagerAutoComp {
		e.handlePeerTestFrameLocked(ev)
	}
}

// handleTopologyChangeIndLocked applies the duplicate-suppression rule
// of invariant 6: a TOPOLOGY_CHANGE_IND whose SequenceID does not
// advance the last-seen id for this domain is dropped without
// re-triggering the FDB clear (the frame keeps propagating around the
// ring through the relay's own forwarding state; nodes along the way
// only react to the first copy they see of a given announcement).
// An accepted announcement that reaches a client in PT ends its
// LINK_UP_TIMER retry cycle: the secondary port is forwarded and the
// node settles into PT_IDLE. Every accepted announcement clears the FDB.
func (e *Engine) handleTopologyChangeIndLocked(ev Event) {
	if e.haveLastTopology && ev.SequenceID <= e.lastTopologyID {
		return
	}
	e.haveLastTopology = true
	e.lastTopologyID = ev.SequenceID
	if e.state == StatePT {
		e.linkChangeCount = e.linkMaxChange
		e.timers.Cancel(timerservice.Key{Name: timerservice.LinkUp})
		e.setPortStateLocked(e.secondary, mrpcore.PortRoleSecondary, mrpcore.PortForwardingForwarding)
		e.state = StatePTIdle
	}
	e.clearFDBLocked(0)
}

func (e *Engine) handleLinkChangeIndLocked(ev Event) {
	if !e.role.isManagerLike() {
		return
	}
	switch e.state {
	case StateCHKRO, StateCHKRC:
		e.clearFDBLocked(0)
		if e.callbacks.OnReceivedChange != nil {
			e.callbacks.OnReceivedChange(ev.Port)
		}
	}
}
