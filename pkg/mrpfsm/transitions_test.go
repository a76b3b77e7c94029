package mrpfsm

import (
	"testing"
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrppdu"
)

// forceLocked sets the engine's internal (state, ring, role) triple
// directly, bypassing role initialization, so a single representative
// transition rule can be exercised from a known starting point.
func (e *Engine) forceLocked(state NodeState, ring RingState, role Role) {
	e.mu.Lock()
	e.state = state
	e.ring = ring
	e.role = role
	e.mu.Unlock()
}

// TestPRMUpSecondaryLinkUpClosesRingAndSuppressesTopology exercises a
// manager's PRM_UP x MAU_TYPE_CHANGE(secondary, UP) representative
// rule directly: PRM_UP is manager-only, so this (unlike the scenario
// in scenarios_test.go) forces the state on a manager rather than
// driving it through AC_STAT1.
func TestPRMUpSecondaryLinkUpClosesRingAndSuppressesTopology(t *testing.T) {
	e, _, _ := newTestEngine(t, RoleManager)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()
	waitFor(t, 200*time.Millisecond, func() bool {
		_, _, role := e.State()
		return role == RoleManager
	})
	e.forceLocked(StatePRMUp, RingOpen, RoleManager)

	e.NotifyCarrierChange(testPort2, mrpcore.LinkUp)

	waitFor(t, 200*time.Millisecond, func() bool {
		s, ring, _ := e.State()
		return s == StateCHKRC && ring == RingClosed
	})
	if !e.suppressNextTopologyChange {
		t.Fatal("suppressNextTopologyChange should be latched after closing the ring from PRM_UP")
	}
}

// TestPRMUpPrimaryDownFallsBackToACStat1 exercises the manager's other
// PRM_UP x MAU_TYPE_CHANGE rule: losing the primary while the self-test
// is still outstanding aborts back to AC_STAT1.
func TestPRMUpPrimaryDownFallsBackToACStat1(t *testing.T) {
	e, _, _ := newTestEngine(t, RoleManager)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()
	waitFor(t, 200*time.Millisecond, func() bool {
		_, _, role := e.State()
		return role == RoleManager
	})
	e.forceLocked(StatePRMUp, RingOpen, RoleManager)

	e.NotifyCarrierChange(e.primary, mrpcore.LinkDown)

	waitFor(t, 200*time.Millisecond, func() bool {
		s, ring, _ := e.State()
		return s == StateACStat1 && ring == RingOpen
	})
}

// TestCHKRCPrimaryDownTogglesAndBlocksNewSecondary exercises the
// CHK_RC recovery rule: a primary-down toggles the ring ports, blocks
// the new secondary, and falls back to PRM_UP with the ring OPEN.
func TestCHKRCPrimaryDownTogglesAndBlocksNewSecondary(t *testing.T) {
	e, _, _ := newTestEngine(t, RoleManager)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()
	waitFor(t, 200*time.Millisecond, func() bool {
		_, _, role := e.State()
		return role == RoleManager
	})
	e.forceLocked(StateCHKRC, RingClosed, RoleManager)
	oldPrimary, oldSecondary := e.primary, e.secondary

	e.NotifyCarrierChange(oldPrimary, mrpcore.LinkDown)

	waitFor(t, 200*time.Millisecond, func() bool {
		s, ring, _ := e.State()
		return s == StatePRMUp && ring == RingOpen
	})
	if e.primary != oldSecondary || e.secondary != oldPrimary {
		t.Fatalf("ring ports not toggled: primary=%d secondary=%d", e.primary, e.secondary)
	}
	_, fwd, ok := e.PortState(oldPrimary)
	if !ok || fwd != mrpcore.PortForwardingBlocked {
		t.Fatalf("new secondary forwarding = %v, want Blocked", fwd)
	}
}

func TestTestRingIndSelfLoopClosesRing(t *testing.T) {
	e, relay, _ := newTestEngine(t, RoleManager)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()
	waitFor(t, 200*time.Millisecond, func() bool {
		_, _, role := e.State()
		return role == RoleManager
	})
	e.forceLocked(StateCHKRO, RingOpen, RoleManager)

	pdu := mrppdu.SetupTestRingReq(e.managerPriority, relay.bridge, mrppdu.WirePortRolePrimary, mrppdu.WireRingStateOpen, 0, 1)
	e.HandleInboundPDU(testPort1, relay.bridge, pdu)

	waitFor(t, 200*time.Millisecond, func() bool {
		s, ring, _ := e.State()
		return s == StateCHKRC && ring == RingClosed
	})
}

func TestTopologyChangeIndDuplicateSequenceSuppressed(t *testing.T) {
	e, _, fdb := newTestEngine(t, RoleClient)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()
	waitFor(t, 200*time.Millisecond, func() bool {
		s, _, _ := e.State()
		return s == StateACStat1
	})
	e.forceLocked(StatePT, RingUndefined, RoleClient)

	peer := mrpdomain.MAC{0xAA, 0, 0, 0, 0, 2}
	pdu := mrppdu.SetupTopologyChangeReq(mrpdomain.PriorityDefault, peer, mrppdu.WirePortRolePrimary, 20, 0)
	pdu.SequenceID = 5

	e.HandleInboundPDU(testPort1, peer, pdu)
	waitFor(t, 200*time.Millisecond, func() bool { return fdb.clearedCount() == 1 })

	e.HandleInboundPDU(testPort1, peer, pdu)
	time.Sleep(20 * time.Millisecond)
	if got := fdb.clearedCount(); got != 1 {
		t.Fatalf("cleared = %d, want 1 (duplicate sequence id must not re-clear)", got)
	}

	pdu2 := mrppdu.SetupTopologyChangeReq(mrpdomain.PriorityDefault, peer, mrppdu.WirePortRolePrimary, 20, 0)
	pdu2.SequenceID = 6
	e.HandleInboundPDU(testPort1, peer, pdu2)
	waitFor(t, 200*time.Millisecond, func() bool { return fdb.clearedCount() == 2 })
}

func TestForeignDomainPDUDropped(t *testing.T) {
	e, _, fdb := newTestEngine(t, RoleClient)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()
	waitFor(t, 200*time.Millisecond, func() bool {
		s, _, _ := e.State()
		return s == StateACStat1
	})
	e.forceLocked(StatePT, RingUndefined, RoleClient)

	peer := mrpdomain.MAC{0xAA, 0, 0, 0, 0, 2}
	foreign, err := mrpdomain.NewRandom()
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	pdu := mrppdu.SetupTopologyChangeReq(mrpdomain.PriorityDefault, peer, mrppdu.WirePortRolePrimary, 20, 0)
	pdu.Domain = foreign
	pdu.SequenceID = 1

	e.HandleInboundPDU(testPort1, peer, pdu)
	time.Sleep(20 * time.Millisecond)
	if got := fdb.clearedCount(); got != 0 {
		t.Fatalf("cleared = %d, want 0 (foreign-domain PDU must be dropped)", got)
	}
}
