package linklayer

import (
	"sync"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

// fdbKey identifies one learned forwarding entry.
type fdbKey struct {
	port mrpcore.PortID
	mac  mrpdomain.MAC
	vlan uint16
}

// forwardingTable is an in-memory mrpcore.ForwardingTable. A real
// bridge would program these entries into switch silicon or a kernel
// FDB; this relay only needs to track them well enough to answer the
// engine's add/remove/clear commands, since nothing downstream of it
// consults learned entries to steer frame delivery.
type forwardingTable struct {
	mu      sync.Mutex
	entries map[fdbKey]struct{}
}

func newForwardingTable() *forwardingTable {
	return &forwardingTable{entries: make(map[fdbKey]struct{})}
}

// AddMrpForwardingInterface implements mrpcore.ForwardingTable.
func (f *forwardingTable) AddMrpForwardingInterface(port mrpcore.PortID, mac mrpdomain.MAC, vlan uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[fdbKey{port: port, mac: mac, vlan: vlan}] = struct{}{}
	return nil
}

// RemoveMrpForwardingInterface implements mrpcore.ForwardingTable.
func (f *forwardingTable) RemoveMrpForwardingInterface(port mrpcore.PortID, mac mrpdomain.MAC, vlan uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, fdbKey{port: port, mac: mac, vlan: vlan})
	return nil
}

// ClearTable implements mrpcore.ForwardingTable.
func (f *forwardingTable) ClearTable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[fdbKey]struct{})
	return nil
}

// count reports the number of learned entries; used by tests.
func (f *forwardingTable) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
