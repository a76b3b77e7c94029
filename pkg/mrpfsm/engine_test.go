package mrpfsm

import (
	"sync"
	"testing"
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

const (
	testPort1 mrpcore.PortID = 1
	testPort2 mrpcore.PortID = 2
)

type fakeRelay struct {
	mu        sync.Mutex
	bridge    mrpdomain.MAC
	sentCount int
	registered []mrpdomain.MAC
}

func newFakeRelay(bridge mrpdomain.MAC) *fakeRelay {
	return &fakeRelay{bridge: bridge}
}

func (r *fakeRelay) Send(mrpcore.PortID, mrpdomain.MAC, mrpdomain.MAC, int, uint16, []byte) error {
	r.mu.Lock()
	r.sentCount++
	r.mu.Unlock()
	return nil
}

func (r *fakeRelay) RegisterAddress(mac mrpdomain.MAC) error {
	r.mu.Lock()
	r.registered = append(r.registered, mac)
	r.mu.Unlock()
	return nil
}

func (r *fakeRelay) GetBridgeAddress() mrpdomain.MAC { return r.bridge }

func (r *fakeRelay) sent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sentCount
}

type fakeForwardingTable struct {
	mu      sync.Mutex
	added   int
	removed int
	cleared int
}

func (f *fakeForwardingTable) AddMrpForwardingInterface(mrpcore.PortID, mrpdomain.MAC, uint16) error {
	f.mu.Lock()
	f.added++
	f.mu.Unlock()
	return nil
}

func (f *fakeForwardingTable) RemoveMrpForwardingInterface(mrpcore.PortID, mrpdomain.MAC, uint16) error {
	f.mu.Lock()
	f.removed++
	f.mu.Unlock()
	return nil
}

func (f *fakeForwardingTable) ClearTable() error {
	f.mu.Lock()
	f.cleared++
	f.mu.Unlock()
	return nil
}

func (f *fakeForwardingTable) clearedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func newTestEngine(t *testing.T, role Role) (*Engine, *fakeRelay, *fakeForwardingTable) {
	t.Helper()
	relay := newFakeRelay(mrpdomain.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55})
	fdb := &fakeForwardingTable{}
	e, err := NewEngine(Config{
		RingPort1:     testPort1,
		RingPort2:     testPort2,
		TimingProfile: mrpdomain.Profile10ms,
		ExpectedRole:  role,
		Relay:         relay,
		ForwardingTable: fdb,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, relay, fdb
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s", timeout)
	}
}

func TestValidateRejectsUnknownTimingProfile(t *testing.T) {
	cfg := Config{
		RingPort1:     testPort1,
		RingPort2:     testPort2,
		TimingProfile: mrpdomain.TimingProfile(7),
		ExpectedRole:  RoleClient,
		Relay:         newFakeRelay(mrpdomain.MAC{}),
		ForwardingTable: &fakeForwardingTable{},
	}
	if _, err := NewEngine(cfg); err != mrpdomain.ErrUnknownTimingProfile {
		t.Fatalf("err = %v, want ErrUnknownTimingProfile", err)
	}
}

func TestValidateRejectsDuplicateRingPorts(t *testing.T) {
	cfg := Config{
		RingPort1:     testPort1,
		RingPort2:     testPort1,
		TimingProfile: mrpdomain.Profile10ms,
		ExpectedRole:  RoleClient,
		Relay:         newFakeRelay(mrpdomain.MAC{}),
		ForwardingTable: &fakeForwardingTable{},
	}
	if _, err := NewEngine(cfg); err != mrpdomain.ErrDuplicateRingPort {
		t.Fatalf("err = %v, want ErrDuplicateRingPort", err)
	}
}

func TestValidateRejectsNilRelay(t *testing.T) {
	cfg := Config{
		RingPort1:     testPort1,
		RingPort2:     testPort2,
		TimingProfile: mrpdomain.Profile10ms,
		ExpectedRole:  RoleClient,
		ForwardingTable: &fakeForwardingTable{},
	}
	if _, err := NewEngine(cfg); err != ErrNilRelay {
		t.Fatalf("err = %v, want ErrNilRelay", err)
	}
}

func TestStartTwiceFails(t *testing.T) {
	e, _, _ := newTestEngine(t, RoleClient)
	if err := e.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer e.Stop()
	if err := e.Start(); err != ErrAlreadyRunning {
		t.Fatalf("second Start err = %v, want ErrAlreadyRunning", err)
	}
}

func TestClientReachesACStat1AfterStartup(t *testing.T) {
	e, _, _ := newTestEngine(t, RoleClient)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	waitFor(t, 200*time.Millisecond, func() bool {
		_, _, role := e.State()
		return role == RoleClient
	})
	state, ring, _ := e.State()
	if state != StateACStat1 {
		t.Fatalf("state = %s, want AC_STAT1", state)
	}
	if ring != RingUndefined {
		t.Fatalf("ring = %s, want UNDEFINED", ring)
	}
}

func TestManagerArmsTestTimerAfterStartup(t *testing.T) {
	e, relay, _ := newTestEngine(t, RoleManager)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	e.NotifyCarrierChange(testPort1, mrpcore.LinkUp)
	e.NotifyCarrierChange(testPort2, mrpcore.LinkUp)

	waitFor(t, 200*time.Millisecond, func() bool {
		_, ring, _ := e.State()
		return ring == RingOpen
	})
	waitFor(t, 200*time.Millisecond, func() bool { return relay.sent() > 0 })
}

func TestStopForcesPortsDisabledAndRoleDisabled(t *testing.T) {
	e, _, _ := newTestEngine(t, RoleClient)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	e.Stop()
	_, _, role := e.State()
	if role != RoleDisabled {
		t.Fatalf("role = %s, want DISABLED", role)
	}
	_, fwd, _ := e.PortState(testPort1)
	if fwd != mrpcore.PortForwardingDisabled {
		t.Fatalf("port1 forwarding = %s, want DISABLED", fwd)
	}
}
