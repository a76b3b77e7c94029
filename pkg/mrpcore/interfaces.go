// Package mrpcore declares the external collaborator interfaces the
// MRP state machine engine (pkg/mrpfsm) depends on: the link-layer
// relay, the MAC forwarding table, and the interface table (spec
// Section 6). The engine takes these as opaque handles injected at
// construction (spec Section 9: "mediator" pattern, no ownership
// cycles).
package mrpcore

import (
	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

// PortID identifies a ring or interconnection port by the host's
// interface numbering.
type PortID uint16

// LinkState is the raw carrier state of a port (spec Section 3).
type LinkState int

const (
	LinkDown LinkState = iota
	LinkUp
)

// String renders the link state name.
func (l LinkState) String() string {
	if l == LinkUp {
		return "UP"
	}
	return "DOWN"
}

// PortRole is a ring port's assigned role (spec Section 3).
type PortRole int

const (
	PortRoleNotAssigned PortRole = iota
	PortRolePrimary
	PortRoleSecondary
)

// String renders the port role name.
func (r PortRole) String() string {
	switch r {
	case PortRolePrimary:
		return "PRIMARY"
	case PortRoleSecondary:
		return "SECONDARY"
	default:
		return "NOT_ASSIGNED"
	}
}

// PortForwardingState is a ring port's forwarding disposition
// (spec Section 3).
type PortForwardingState int

const (
	PortForwardingDisabled PortForwardingState = iota
	PortForwardingBlocked
	PortForwardingForwarding
)

// String renders the forwarding state name.
func (s PortForwardingState) String() string {
	switch s {
	case PortForwardingBlocked:
		return "BLOCKED"
	case PortForwardingForwarding:
		return "FORWARDING"
	default:
		return "DISABLED"
	}
}

// LinkChangeSink receives MAU_TYPE_CHANGE events synthesized by
// pkg/portmodel (carrier debounce) and pkg/ccm (liveness timeout). The
// state machine engine implements this (spec Section 2: "Port Model
// surfaces carrier/state changes to the State Machine"; "CCM Subsystem
// reports liveness to the State Machine").
type LinkChangeSink interface {
	MAUTypeChange(port PortID, link LinkState)
}

// Relay is the link-layer egress/control surface (spec Section 6).
type Relay interface {
	// Send transmits payload out portID, addressed from srcMAC to
	// destMAC, with the given priority, using the supplied length/type
	// field (MRP_LT for MRP PDUs, the CFM EtherType for CCM frames).
	// payload is the already-encoded wire form (spec Section 4.2's
	// Encode output, or a pkg/ccm Frame's Encode output).
	Send(portID PortID, destMAC, srcMAC mrpdomain.MAC, priority int, lengthType uint16, payload []byte) error

	// RegisterAddress subscribes the node to a multicast group so
	// inbound frames addressed to mac are delivered to it.
	RegisterAddress(mac mrpdomain.MAC) error

	// GetBridgeAddress returns the node's own bridge (station) MAC.
	GetBridgeAddress() mrpdomain.MAC
}

// ForwardingTable is the external MAC forwarding database the engine
// commands (spec Section 6).
type ForwardingTable interface {
	// AddMrpForwardingInterface installs a forwarding entry for mac on
	// port within vlan.
	AddMrpForwardingInterface(port PortID, mac mrpdomain.MAC, vlan uint16) error

	// RemoveMrpForwardingInterface removes a previously installed entry.
	RemoveMrpForwardingInterface(port PortID, mac mrpdomain.MAC, vlan uint16) error

	// ClearTable flushes all learned entries (triggered by clearFDB,
	// spec Section 6 observability signal of the same name).
	ClearTable() error
}

// InterfaceState mirrors an interface's current up/carrier status.
type InterfaceState int

const (
	InterfaceStateDown InterfaceState = iota
	InterfaceStateUp
)

// Interface describes one host network interface (spec Section 6).
type Interface struct {
	ID          PortID
	MAC         mrpdomain.MAC
	IsLoopback  bool
	IsWired     bool
	IsMulticast bool
	Protocol    string
	IsUp        bool
	HasCarrier  bool
	State       InterfaceState
}

// InterfaceTable enumerates the host's network interfaces (spec Section 6).
type InterfaceTable interface {
	GetInterfaceCount() int
	GetInterface(index int) (Interface, bool)
	GetInterfaceByID(id PortID) (Interface, bool)
}
