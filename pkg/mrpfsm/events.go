package mrpfsm

import (
	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrppdu"
)

// EventKind tags an Event with the member of the event set named in
// spec Section 4.1.
type EventKind int

const (
	EvTestRingInd EventKind = iota
	EvTopologyChangeInd
	EvLinkChangeInd
	EvTestMgrNackInd
	EvTestPropagateInd
	EvInterconnectionInd
)

// String renders the event kind name.
func (k EventKind) String() string {
	switch k {
	case EvTestRingInd:
		return "TEST_RING_IND"
	case EvTopologyChangeInd:
		return "TOPOLOGY_CHANGE_IND"
	case EvLinkChangeInd:
		return "LINK_CHANGE_IND"
	case EvTestMgrNackInd:
		return "TEST_MGR_NACK_IND"
	case EvTestPropagateInd:
		return "TEST_PROPAGATE_IND"
	case EvInterconnectionInd:
		return "INTERCONNECTION_IND"
	default:
		return "UNKNOWN_EVENT"
	}
}

// Event is a single inbound PDU translated into the engine's event
// vocabulary. Fields are populated "as applicable" per Kind, mirroring
// the PDU's own "as applicable" field convention (spec Section 4.2).
//
// MAU_TYPE_CHANGE is not modeled here: it arrives via the dedicated
// MAUTypeChange method (the engine implements mrpcore.LinkChangeSink
// directly), and timer expiries arrive via routeExpiry and its
// on*TimerLocked handlers, since both are synthesized by collaborators rather than
// decoded from a wire PDU.
type Event struct {
	Kind EventKind

	Port      mrpcore.PortID
	SourceMAC mrpdomain.MAC
	Priority  mrpdomain.Priority

	// PortRole is the wire-level port role carried on the PDU (see
	// mrppdu.WirePortRole* constants).
	PortRole uint16

	// Interval is the PDU's interval field, in milliseconds.
	Interval uint16

	// SequenceID is the PDU's Common TLV sequence id, used by
	// TOPOLOGY_CHANGE_IND's duplicate-suppression check (invariant 6).
	SequenceID uint16

	// AnnouncedBestMAC/AnnouncedBestPriority carry the sub-TLV payload
	// of TEST_MGR_NACK_IND / TEST_PROPAGATE_IND (spec Section 4.1 "MRA
	// arbitration").
	AnnouncedBestMAC      mrpdomain.MAC
	AnnouncedBestPriority mrpdomain.Priority

	// PDU is the full decoded frame, used by interconnection forwarding
	// to re-emit it unmodified out the opposite ring port.
	PDU *mrppdu.PDU
}
