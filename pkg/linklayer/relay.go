package linklayer

import (
	"net"
	"sync"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/pion/logging"
	"github.com/pion/transport/v3/stdnet"
)

// rawSocket is the per-interface AF_PACKET handle; its real
// implementation lives in socket_linux.go (the only platform AF_PACKET
// is meaningful on). socket_other.go stubs openRawSocketFor to return
// an error everywhere else.
type rawSocket interface {
	send(destMAC mrpdomain.MAC, srcMAC mrpdomain.MAC, lengthType uint16, payload []byte) error
	readLoop(deliver func(srcMAC mrpdomain.MAC, lengthType uint16, payload []byte))
	close()
}

// port bundles one configured interface's socket, address, and
// learned state.
type port struct {
	spec  IfaceSpec
	iface mrpcore.Interface
	sock  rawSocket
	wg    sync.WaitGroup
}

// Relay implements mrpcore.Relay, mrpcore.InterfaceTable, and (via
// fdb.go) mrpcore.ForwardingTable against real host network
// interfaces. Start launches one readLoop per port; Stop closes every
// socket and waits for them to exit.
type Relay struct {
	mu      sync.RWMutex
	ports   map[mrpcore.PortID]*port
	accept  map[uint16]bool
	handler func(port mrpcore.PortID, srcMAC mrpdomain.MAC, lengthType uint16, payload []byte)
	log     logging.LeveledLogger

	started bool
	closed  bool

	fdb *forwardingTable
}

// New opens a raw socket on each configured interface and resolves its
// hardware address, but does not yet start receiving; call Start for
// that. The bridge address returned by GetBridgeAddress is the lowest
// (first) configured interface's MAC, matching the usual convention of
// a bridge adopting one of its own ports' addresses as its station
// identity.
func New(config Config) (*Relay, error) {
	if config.Handler == nil {
		return nil, ErrNoHandler
	}

	r := &Relay{
		ports:   make(map[mrpcore.PortID]*port),
		accept:  make(map[uint16]bool),
		handler: config.Handler,
		fdb:     newForwardingTable(),
	}
	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("linklayer")
	}
	for _, et := range config.AcceptEtherTypes {
		r.accept[et] = true
	}

	net_, err := stdnet.NewNet()
	if err != nil {
		return nil, err
	}

	for _, spec := range config.Interfaces {
		ni, err := findInterface(net_, spec.Name)
		if err != nil {
			r.closeAllSockets()
			return nil, err
		}
		sock, err := openRawSocketFor(spec.Name)
		if err != nil {
			r.closeAllSockets()
			return nil, err
		}
		r.ports[spec.Port] = &port{
			spec: spec,
			iface: mrpcore.Interface{
				ID:          spec.Port,
				MAC:         macOf(ni),
				IsLoopback:  ni.Flags&net.FlagLoopback != 0,
				IsWired:     ni.Flags&net.FlagBroadcast != 0,
				IsMulticast: ni.Flags&net.FlagMulticast != 0,
				Protocol:    "ethernet",
				IsUp:        ni.Flags&net.FlagUp != 0,
				HasCarrier:  readCarrier(spec.Name),
				State:       stateFor(ni.Flags&net.FlagUp != 0),
			},
			sock: sock,
		}
	}

	return r, nil
}

func stateFor(up bool) mrpcore.InterfaceState {
	if up {
		return mrpcore.InterfaceStateUp
	}
	return mrpcore.InterfaceStateDown
}

func macOf(ni *net.Interface) mrpdomain.MAC {
	var mac mrpdomain.MAC
	copy(mac[:], ni.HardwareAddr)
	return mac
}

func findInterface(n *stdnet.Net, name string) (*net.Interface, error) {
	ifaces, err := n.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, ni := range ifaces {
		if ni.Name == name {
			return ni, nil
		}
	}
	return nil, ErrUnknownPort
}

func (r *Relay) closeAllSockets() {
	for _, p := range r.ports {
		if p.sock != nil {
			p.sock.close()
		}
	}
}

// Start launches one reader goroutine per configured interface.
func (r *Relay) Start() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	ports := make([]*port, 0, len(r.ports))
	for _, p := range r.ports {
		ports = append(ports, p)
	}
	r.mu.Unlock()

	for _, p := range ports {
		p.wg.Add(1)
		go r.readLoop(p)
	}
	return nil
}

// Stop closes every socket and waits for their reader goroutines to
// exit.
func (r *Relay) Stop() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.closed = true
	ports := make([]*port, 0, len(r.ports))
	for _, p := range r.ports {
		ports = append(ports, p)
	}
	r.mu.Unlock()

	for _, p := range ports {
		p.sock.close()
		p.wg.Wait()
	}
	return nil
}

func (r *Relay) readLoop(p *port) {
	defer p.wg.Done()
	p.sock.readLoop(func(srcMAC mrpdomain.MAC, lengthType uint16, payload []byte) {
		if len(r.accept) > 0 && !r.accept[lengthType] {
			return
		}
		if r.log != nil {
			r.log.Debugf("port %d: received %d bytes from %s, type=0x%04x", p.spec.Port, len(payload), srcMAC, lengthType)
		}
		r.handler(p.spec.Port, srcMAC, lengthType, payload)
	})
}

// Send implements mrpcore.Relay.
func (r *Relay) Send(portID mrpcore.PortID, destMAC, srcMAC mrpdomain.MAC, priority int, lengthType uint16, payload []byte) error {
	r.mu.RLock()
	p, ok := r.ports[portID]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if !ok {
		return ErrUnknownPort
	}
	return p.sock.send(destMAC, srcMAC, lengthType, payload)
}

// RegisterAddress implements mrpcore.Relay. Real multicast group
// subscription (joining the address at the NIC/driver level) is
// platform-specific and out of scope here; software delivery filtering
// by EtherType is handled by Config.AcceptEtherTypes instead, so this
// is a bookkeeping no-op that never fails.
func (r *Relay) RegisterAddress(mrpdomain.MAC) error { return nil }

// GetBridgeAddress implements mrpcore.Relay.
func (r *Relay) GetBridgeAddress() mrpdomain.MAC {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, spec := range sortedSpecs(r.ports) {
		if p, ok := r.ports[spec.Port]; ok {
			return p.iface.MAC
		}
	}
	return mrpdomain.MAC{}
}

func sortedSpecs(ports map[mrpcore.PortID]*port) []IfaceSpec {
	specs := make([]IfaceSpec, 0, len(ports))
	for _, p := range ports {
		specs = append(specs, p.spec)
	}
	for i := 1; i < len(specs); i++ {
		for j := i; j > 0 && specs[j].Port < specs[j-1].Port; j-- {
			specs[j], specs[j-1] = specs[j-1], specs[j]
		}
	}
	return specs
}

// GetInterfaceCount implements mrpcore.InterfaceTable.
func (r *Relay) GetInterfaceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ports)
}

// GetInterface implements mrpcore.InterfaceTable.
func (r *Relay) GetInterface(index int) (mrpcore.Interface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := sortedSpecs(r.ports)
	if index < 0 || index >= len(specs) {
		return mrpcore.Interface{}, false
	}
	return r.ports[specs[index].Port].iface, true
}

// GetInterfaceByID implements mrpcore.InterfaceTable.
func (r *Relay) GetInterfaceByID(id mrpcore.PortID) (mrpcore.Interface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.ports[id]
	if !ok {
		return mrpcore.Interface{}, false
	}
	return p.iface, true
}

// ForwardingTable returns the Relay's in-memory MAC forwarding table,
// satisfying mrpcore.ForwardingTable.
func (r *Relay) ForwardingTable() mrpcore.ForwardingTable { return r.fdb }
