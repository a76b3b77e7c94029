package mrpfsm

import (
	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrppdu"
	"github.com/go-mrp/mrp/pkg/timerservice"
)

// betterThanLocal reports whether (priority, mac) outranks the local
// manager's own identity, using priority first and the MAC as a
// deterministic tiebreak (spec Section 4.1, "MRA arbitration").
func (e *Engine) betterThanLocal(priority mrpdomain.Priority, mac mrpdomain.MAC) bool {
	if priority != e.managerPriority {
		return priority.Better(e.managerPriority)
	}
	return mac.Less(e.bridgeMAC)
}

// handlePeerTestFrameLocked reacts to a plain TEST_RING_IND whose
// source is neither loopback nor previously known: an arbitrating
// Automanager uses it to discover contention with another MRM on the
// ring (spec Section 4.1, "MRA arbitration"). The worse of the two
// identities yields.
func (e *Engine) handlePeerTestFrameLocked(ev Event) {
	if e.betterThanLocal(ev.Priority, ev.SourceMAC) {
		e.hostBestMRMPriority = ev.Priority
		e.hostBestMRMSourceAddress = ev.SourceMAC
		e.sendTestMgrNackLocked(ev.Port, ev.Priority, ev.SourceMAC)
		e.demoteToClientLocked()
		return
	}
	e.sendTestPropagateLocked(ev.Port, e.managerPriority, e.bridgeMAC)
}

// handleTestMgrNackIndLocked reacts to being told, by the better peer
// itself, that it holds a higher-ranking identity. sub.SourceMAC/
// Priority identify that peer directly; AnnouncedBestMAC/Priority are
// only an echo of this node's own identity and carry no new
// information here (spec Section 4.1, TEST_MGR_NACK sub-TLV).
func (e *Engine) handleTestMgrNackIndLocked(ev Event) {
	if e.role != RoleManagerAuto && e.role != RoleManagerAutoComp {
		return
	}
	e.hostBestMRMPriority = ev.Priority
	e.hostBestMRMSourceAddress = ev.SourceMAC
	e.demoteToClientLocked()
}

// handleTestPropagateIndLocked reacts to a peer relaying the identity
// of the best MRM it has observed so far. If that announced identity
// outranks this node, it yields too (spec Section 4.1, TEST_PROPAGATE
// sub-TLV).
func (e *Engine) handleTestPropagateIndLocked(ev Event) {
	if e.role != RoleManagerAuto && e.role != RoleManagerAutoComp {
		return
	}
	if e.betterThanLocal(ev.AnnouncedBestPriority, ev.AnnouncedBestMAC) {
		e.hostBestMRMPriority = ev.AnnouncedBestPriority
		e.hostBestMRMSourceAddress = ev.AnnouncedBestMAC
		e.demoteToClientLocked()
	}
}

// demoteToClientLocked is the minimal transition out of active
// management that an MRA arbitration defeat requires: it does not
// replay mrcInitLocked/mrmInitLocked's full role-initializer, since
// that would re-synthesize MAU_TYPE_CHANGE events against a
// momentarily reset state (spec Section 9: a role transition cancels
// the topology-change timer before reinitializing).
func (e *Engine) demoteToClientLocked() {
	e.role = RoleManagerAutoComp
	_ = e.cfg.Relay.RegisterAddress(mrpdomain.MCControl)
	e.installRingForwardingLocked()
	e.timers.Cancel(timerservice.Key{Name: timerservice.TopologyChange})
	e.monNReturn = 0
	e.state = StateDEIdle
	e.setRingStateLocked(RingClosed)
	e.testRingReqLocked(millisToDuration(e.derived.ShortTestInterval))
}

// onShortTestTickLocked advances the demoted Automanager's re-promotion
// counter; reaching MonNRmax ticks without hearing otherwise re-enters
// arbitration from scratch (spec Section 4.1, "MRA arbitration":
// "monNReturn monotonic up to monNRmax").
func (e *Engine) onShortTestTickLocked() {
	e.monNReturn++
	if e.monNReturn >= e.cfg.MonNRmax {
		e.monNReturn = 0
		e.mraInitLocked()
		return
	}
	e.timers.Reschedule(timerservice.Key{Name: timerservice.Test}, millisToDuration(e.derived.ShortTestInterval))
}

func (e *Engine) sendTestMgrNackLocked(port mrpcore.PortID, otherPriority mrpdomain.Priority, otherMAC mrpdomain.MAC) {
	base := mrppdu.SetupTestRingReq(e.managerPriority, e.bridgeMAC, e.wirePortRole(port), e.wireRingState(), 0, e.nextTimestampLocked())
	pdu := mrppdu.TestMgrNackReq(base, e.managerPriority, e.bridgeMAC, otherPriority, otherMAC)
	e.sendPDULocked(pdu, mrpdomain.MCTest, port)
}

func (e *Engine) sendTestPropagateLocked(port mrpcore.PortID, bestPriority mrpdomain.Priority, bestMAC mrpdomain.MAC) {
	base := mrppdu.SetupTestRingReq(e.managerPriority, e.bridgeMAC, e.wirePortRole(port), e.wireRingState(), 0, e.nextTimestampLocked())
	pdu := mrppdu.TestPropagateReq(base, e.managerPriority, e.bridgeMAC, bestPriority, bestMAC)
	e.sendPDULocked(pdu, mrpdomain.MCTest, port)
}
