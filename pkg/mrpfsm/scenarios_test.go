package mrpfsm

import (
	"testing"
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrppdu"
)

// TestScenarioManagerRingClosesOnSelfTest exercises a manager that
// brings both ring ports up, sends its own TEST frame, and observes it
// loop back (a real ring would deliver it via the relay's own
// forwarding; here the test hands it straight back to
// HandleInboundPDU, standing in for "the frame went all the way
// around").
func TestScenarioManagerRingClosesOnSelfTest(t *testing.T) {
	e, relay, _ := newTestEngine(t, RoleManager)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	e.NotifyCarrierChange(testPort1, mrpcore.LinkUp)
	e.NotifyCarrierChange(testPort2, mrpcore.LinkUp)
	waitFor(t, 200*time.Millisecond, func() bool {
		s, _, _ := e.State()
		return s == StateCHKRC
	})

	pdu := mrppdu.SetupTestRingReq(e.managerPriority, relay.bridge, mrppdu.WirePortRolePrimary, mrppdu.WireRingStateOpen, 0, 1)
	e.HandleInboundPDU(testPort2, relay.bridge, pdu)

	waitFor(t, 200*time.Millisecond, func() bool {
		_, ring, _ := e.State()
		return ring == RingClosed
	})
}

// TestScenarioClientLinkUpTriggersPTCycle exercises a client whose
// primary comes up first (straight to DE_IDLE — a client never visits
// PRM_UP), then secondary: DE_IDLE's representative rule starts the
// LINK_UP_TIMER retry cycle (PT), which settles into PT_IDLE with the
// secondary forwarding once the cycle's retry budget is exhausted.
func TestScenarioClientLinkUpTriggersPTCycle(t *testing.T) {
	e, _, _ := newTestEngine(t, RoleClient)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()
	waitFor(t, 200*time.Millisecond, func() bool {
		s, _, _ := e.State()
		return s == StateACStat1
	})

	e.NotifyCarrierChange(testPort1, mrpcore.LinkUp)
	waitFor(t, 200*time.Millisecond, func() bool {
		s, _, _ := e.State()
		return s == StateDEIdle
	})

	e.NotifyCarrierChange(testPort2, mrpcore.LinkUp)
	waitFor(t, 200*time.Millisecond, func() bool {
		s, _, _ := e.State()
		return s == StatePT
	})
	waitFor(t, 500*time.Millisecond, func() bool {
		s, _, _ := e.State()
		return s == StatePTIdle
	})
	_, fwd, ok := e.PortState(testPort2)
	if !ok || fwd != mrpcore.PortForwardingForwarding {
		t.Fatalf("secondary forwarding = %v, want Forwarding once PT_IDLE settles", fwd)
	}
}

// TestScenarioManagerRingOpensOnLinkLoss exercises the CHK_RC recovery
// path end to end: a manager with a closed ring loses its primary's
// link, toggles the ring ports, blocks the new secondary, re-arms its
// self-test, announces the topology change, and falls back to PRM_UP
// with the ring OPEN.
func TestScenarioManagerRingOpensOnLinkLoss(t *testing.T) {
	e, relay, _ := newTestEngine(t, RoleManager)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	e.NotifyCarrierChange(testPort1, mrpcore.LinkUp)
	e.NotifyCarrierChange(testPort2, mrpcore.LinkUp)
	waitFor(t, 200*time.Millisecond, func() bool {
		s, _, _ := e.State()
		return s == StateCHKRC
	})

	pdu := mrppdu.SetupTestRingReq(e.managerPriority, relay.bridge, mrppdu.WirePortRolePrimary, mrppdu.WireRingStateOpen, 0, 1)
	e.HandleInboundPDU(testPort2, relay.bridge, pdu)
	waitFor(t, 200*time.Millisecond, func() bool {
		_, ring, _ := e.State()
		return ring == RingClosed
	})
	oldPrimary, oldSecondary := e.primary, e.secondary

	e.NotifyCarrierChange(oldPrimary, mrpcore.LinkDown)

	waitFor(t, 200*time.Millisecond, func() bool {
		s, ring, _ := e.State()
		return s == StatePRMUp && ring == RingOpen
	})
	if e.primary != oldSecondary {
		t.Fatalf("primary = %d, want old secondary %d (ring ports must toggle)", e.primary, oldSecondary)
	}
	_, fwd, ok := e.PortState(oldPrimary)
	if !ok || fwd != mrpcore.PortForwardingBlocked {
		t.Fatalf("new secondary (%d) forwarding = %v, want Blocked", oldPrimary, fwd)
	}
}

// TestScenarioCCMTimeoutSynthesizesLinkDown exercises a manager with
// ring-port liveness checking enabled: losing CCM heartbeats on a port
// must be treated as a link-down MAU_TYPE_CHANGE, not silently
// ignored, since the CCM subsystem is the engine's own
// mrpcore.LinkChangeSink client.
func TestScenarioCCMTimeoutSynthesizesLinkDown(t *testing.T) {
	relay := newFakeRelay(mrpdomain.MAC{0xAA, 0xBB, 0xCC, 0, 0, 1})
	fdb := &fakeForwardingTable{}
	e, err := NewEngine(Config{
		RingPort1:             testPort1,
		RingPort2:             testPort2,
		TimingProfile:         mrpdomain.Profile10ms,
		ExpectedRole:          RoleManager,
		Relay:                 relay,
		ForwardingTable:       fdb,
		EnableLinkCheckOnRing: true,
		CCMInterval:           time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	e.NotifyCarrierChange(testPort1, mrpcore.LinkUp)
	e.NotifyCarrierChange(testPort2, mrpcore.LinkUp)
	waitFor(t, 200*time.Millisecond, func() bool {
		_, ring, _ := e.State()
		return ring == RingOpen || ring == RingClosed
	})
	e.forceLocked(StateCHKRC, RingClosed, RoleManager)

	// No CCM ever arrives on port1; the continuity-check deadline
	// (3.5x interval for the 10ms profile) expires and the CCM
	// subsystem reports loss of liveness.
	waitFor(t, 500*time.Millisecond, func() bool {
		_, ring, _ := e.State()
		return ring == RingOpen
	})
}
