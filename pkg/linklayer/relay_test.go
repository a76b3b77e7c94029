package linklayer

import (
	"testing"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

func TestSortedSpecsOrdersByPort(t *testing.T) {
	ports := map[mrpcore.PortID]*port{
		3: {spec: IfaceSpec{Port: 3, Name: "eth2"}},
		1: {spec: IfaceSpec{Port: 1, Name: "eth0"}},
		2: {spec: IfaceSpec{Port: 2, Name: "eth1"}},
	}

	specs := sortedSpecs(ports)
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	for i, want := range []mrpcore.PortID{1, 2, 3} {
		if specs[i].Port != want {
			t.Fatalf("specs[%d].Port = %d, want %d", i, specs[i].Port, want)
		}
	}
}

func TestRelayGetBridgeAddressUsesLowestPort(t *testing.T) {
	mac1 := mrpdomain.MAC{0, 0, 0, 0, 0, 1}
	mac2 := mrpdomain.MAC{0, 0, 0, 0, 0, 2}
	r := &Relay{
		ports: map[mrpcore.PortID]*port{
			2: {spec: IfaceSpec{Port: 2, Name: "eth1"}, iface: mrpcore.Interface{ID: 2, MAC: mac2}},
			1: {spec: IfaceSpec{Port: 1, Name: "eth0"}, iface: mrpcore.Interface{ID: 1, MAC: mac1}},
		},
	}

	if got := r.GetBridgeAddress(); got != mac1 {
		t.Fatalf("GetBridgeAddress = %v, want %v", got, mac1)
	}
}

func TestRelayGetInterfaceByID(t *testing.T) {
	mac := mrpdomain.MAC{0, 0, 0, 0, 0, 7}
	r := &Relay{
		ports: map[mrpcore.PortID]*port{
			1: {spec: IfaceSpec{Port: 1, Name: "eth0"}, iface: mrpcore.Interface{ID: 1, MAC: mac, IsUp: true}},
		},
	}

	iface, ok := r.GetInterfaceByID(1)
	if !ok || iface.MAC != mac {
		t.Fatalf("GetInterfaceByID(1) = %v, %v", iface, ok)
	}
	if _, ok := r.GetInterfaceByID(99); ok {
		t.Fatal("GetInterfaceByID(99) should not be found")
	}
}

func TestRelayGetInterfaceCountAndIndex(t *testing.T) {
	r := &Relay{
		ports: map[mrpcore.PortID]*port{
			1: {spec: IfaceSpec{Port: 1, Name: "eth0"}, iface: mrpcore.Interface{ID: 1}},
			2: {spec: IfaceSpec{Port: 2, Name: "eth1"}, iface: mrpcore.Interface{ID: 2}},
		},
	}

	if r.GetInterfaceCount() != 2 {
		t.Fatalf("GetInterfaceCount = %d, want 2", r.GetInterfaceCount())
	}
	if iface, ok := r.GetInterface(0); !ok || iface.ID != 1 {
		t.Fatalf("GetInterface(0) = %v, %v, want ID 1", iface, ok)
	}
	if _, ok := r.GetInterface(2); ok {
		t.Fatal("GetInterface(2) should be out of range")
	}
}

func TestRelayRegisterAddressIsNoOp(t *testing.T) {
	r := &Relay{}
	if err := r.RegisterAddress(mrpdomain.MAC{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("RegisterAddress returned error: %v", err)
	}
}

func TestForwardingTableAddRemoveClear(t *testing.T) {
	fdb := newForwardingTable()
	mac := mrpdomain.MAC{0xAA, 0xBB, 0xCC, 0, 0, 1}

	if err := fdb.AddMrpForwardingInterface(1, mac, 0); err != nil {
		t.Fatalf("AddMrpForwardingInterface: %v", err)
	}
	if fdb.count() != 1 {
		t.Fatalf("count = %d, want 1", fdb.count())
	}

	if err := fdb.RemoveMrpForwardingInterface(1, mac, 0); err != nil {
		t.Fatalf("RemoveMrpForwardingInterface: %v", err)
	}
	if fdb.count() != 0 {
		t.Fatalf("count = %d, want 0 after remove", fdb.count())
	}

	if err := fdb.AddMrpForwardingInterface(1, mac, 0); err != nil {
		t.Fatalf("AddMrpForwardingInterface: %v", err)
	}
	if err := fdb.ClearTable(); err != nil {
		t.Fatalf("ClearTable: %v", err)
	}
	if fdb.count() != 0 {
		t.Fatalf("count = %d, want 0 after clear", fdb.count())
	}
}

func TestNewRejectsNilHandler(t *testing.T) {
	_, err := New(Config{})
	if err != ErrNoHandler {
		t.Fatalf("New with nil handler: got %v, want ErrNoHandler", err)
	}
}
