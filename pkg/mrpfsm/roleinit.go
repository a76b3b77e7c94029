package mrpfsm

import (
	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

// mrcInitLocked is the client role initializer (spec Section 4.1,
// "Role initialization", "Client (mrcInit)").
func (e *Engine) mrcInitLocked() {
	e.role = RoleClient
	_ = e.cfg.Relay.RegisterAddress(mrpdomain.MCControl)
	e.installRingForwardingLocked()
	e.setRingStateLocked(RingUndefined)
	e.linkChangeCount = e.linkMaxChange
	e.state = StateACStat1
	e.synthesizeInitialLinkChangesLocked()
}

// installRingForwardingLocked installs client-side forwarding entries
// for MC_CONTROL and MC_TEST on both ring ports, plus the
// interconnection multicast groups if the node is interconnection
// aware.
func (e *Engine) installRingForwardingLocked() {
	for _, port := range [2]mrpcore.PortID{e.cfg.RingPort1, e.cfg.RingPort2} {
		_ = e.cfg.ForwardingTable.AddMrpForwardingInterface(port, mrpdomain.MCControl, 0)
		_ = e.cfg.ForwardingTable.AddMrpForwardingInterface(port, mrpdomain.MCTest, 0)
		if e.cfg.InterconnectionLinkCheckAware || e.cfg.InterconnectionRingCheckAware {
			_ = e.cfg.ForwardingTable.AddMrpForwardingInterface(port, mrpdomain.MCInControl, 0)
			_ = e.cfg.ForwardingTable.AddMrpForwardingInterface(port, mrpdomain.MCInTest, 0)
		}
	}
}

// removeManagerLocalForwardingLocked removes the local ring-port
// forwarding entries for MC_TEST/MC_CONTROL: a manager sources its own
// test/control frames and must not also locally forward them (spec
// Section 4.1, "Manager (mrmInit)": "In the transition from MRA
// demotion, also remove...").
func (e *Engine) removeManagerLocalForwardingLocked() {
	for _, port := range [2]mrpcore.PortID{e.cfg.RingPort1, e.cfg.RingPort2} {
		_ = e.cfg.ForwardingTable.RemoveMrpForwardingInterface(port, mrpdomain.MCTest, 0)
		_ = e.cfg.ForwardingTable.RemoveMrpForwardingInterface(port, mrpdomain.MCControl, 0)
	}
}

// mrmInitLocked is the manager role initializer. fromDemotion is true
// when this call replaces an earlier MRA arbitration defeat (spec
// Section 4.1, "Manager (mrmInit)").
func (e *Engine) mrmInitLocked(fromDemotion bool) {
	e.role = RoleManager
	_ = e.cfg.Relay.RegisterAddress(mrpdomain.MCTest)
	_ = e.cfg.Relay.RegisterAddress(mrpdomain.MCControl)
	if e.cfg.InterconnectionLinkCheckAware || e.cfg.InterconnectionRingCheckAware {
		_ = e.cfg.Relay.RegisterAddress(mrpdomain.MCInTest)
		_ = e.cfg.Relay.RegisterAddress(mrpdomain.MCInControl)
	}
	if fromDemotion {
		e.removeManagerLocalForwardingLocked()
	}
	e.setRingStateLocked(RingOpen)
	e.addTest = false
	e.testRetransmissionCount = 0
	e.testMaxRetransmissionCount = e.derived.TestMonitoringCount - 1
	e.state = StateACStat1
	e.synthesizeInitialLinkChangesLocked()
}

// mraInitLocked is the automanager role initializer: as manager, but
// arbitrating (spec Section 4.1, "Automanager (mraInit)").
func (e *Engine) mraInitLocked() {
	e.mrmInitLocked(false)
	e.role = RoleManagerAuto
	if e.cfg.Priority == 0 {
		e.managerPriority = mrpdomain.PriorityMRADefault
	}
	e.cfg.ReactOnLinkChange = false
	e.hostBestMRMPriority = 0xFFFF
	e.hostBestMRMSourceAddress = mrpdomain.BroadcastMAC
	e.monNReturn = 0
}

// synthesizeInitialLinkChangesLocked feeds the node's current carrier
// state for both ring ports through the normal MAU_TYPE_CHANGE path
// right after role initialization (spec Section 4.1: "synthesize
// MAU_TYPE_CHANGE events").
func (e *Engine) synthesizeInitialLinkChangesLocked() {
	for _, port := range [2]mrpcore.PortID{e.cfg.RingPort1, e.cfg.RingPort2} {
		e.handleMAUTypeChangeLocked(port, e.currentLinkStateLocked(port))
	}
}
