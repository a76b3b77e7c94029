// Package linklayer implements mrpcore.Relay, mrpcore.InterfaceTable,
// and mrpcore.ForwardingTable against real network interfaces: raw
// AF_PACKET sockets for frame I/O (golang.org/x/sys/unix) and
// pion/transport/v3 for interface enumeration, with a
// reader-goroutine-per-connection shape targeting Ethernet frames
// instead of UDP datagrams.
package linklayer

import (
	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/pion/logging"
)

// IfaceSpec names one host network interface the Relay should open a
// raw socket on and assigns it the PortID the rest of the stack
// addresses it by.
type IfaceSpec struct {
	Port mrpcore.PortID
	Name string
}

// Config configures a Relay.
type Config struct {
	// Interfaces lists the host interfaces to open, keyed by the PortID
	// the engine will use to address them (typically the two ring
	// ports, plus any interconnection port).
	Interfaces []IfaceSpec

	// Handler is called for each received frame whose EtherType matches
	// one the relay was told to deliver (MRPEtherType or
	// ccm.CFMEtherType). Required.
	Handler func(port mrpcore.PortID, srcMAC mrpdomain.MAC, lengthType uint16, payload []byte)

	// AcceptEtherTypes restricts delivery to frames with one of these
	// length/type field values; frames with any other value are
	// dropped before reaching Handler. Leave empty to accept all.
	AcceptEtherTypes []uint16

	// LoggerFactory creates the relay's logger. Optional.
	LoggerFactory logging.LoggerFactory
}
