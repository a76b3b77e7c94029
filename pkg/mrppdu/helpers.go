package mrppdu

import "github.com/go-mrp/mrp/pkg/mrpdomain"

// The Setup*/Req helpers below build a canonical PDU from the caller's
// current state (spec Section 4.2: "Frame construction helpers"). They
// do not set SequenceID or Domain; the caller (pkg/mrpfsm) stamps those
// immediately before handing the frame to the relay so the sequence
// counter stays monotonic per emitter (invariant 6).

// SetupTestRingReq builds a TEST TLV.
func SetupTestRingReq(priority mrpdomain.Priority, sourceMAC mrpdomain.MAC, portRole uint16, ringState uint16, transition uint16, timestampMs uint32) *PDU {
	return &PDU{
		Type:       TLVTest,
		Priority:   priority,
		SourceMAC:  sourceMAC,
		PortRole:   portRole,
		RingState:  ringState,
		Transition: transition,
		Timestamp:  timestampMs,
	}
}

// SetupTopologyChangeReq builds a TOPOLOGYCHANGE TLV.
func SetupTopologyChangeReq(priority mrpdomain.Priority, sourceMAC mrpdomain.MAC, portRole uint16, intervalMs uint16, transition uint16) *PDU {
	return &PDU{
		Type:      TLVTopologyChange,
		Priority:  priority,
		SourceMAC: sourceMAC,
		PortRole:  portRole,
		Interval:  intervalMs,
		Transition: transition,
	}
}

// SetupLinkChangeReq builds a LINKUP or LINKDOWN TLV depending on up.
func SetupLinkChangeReq(up bool, sourceMAC mrpdomain.MAC, portRole uint16, intervalMs uint16, blocked bool, transition uint16) *PDU {
	typ := TLVLinkDown
	if up {
		typ = TLVLinkUp
	}
	return &PDU{
		Type:      typ,
		SourceMAC: sourceMAC,
		PortRole:  portRole,
		Interval:  intervalMs,
		Blocked:   blocked,
		Transition: transition,
	}
}

// TestMgrNackReq wraps a base TEST PDU with a TEST_MGR_NACK sub-TLV
// (MRA arbitration, spec Section 4.1 "MRA arbitration").
func TestMgrNackReq(base *PDU, localPriority mrpdomain.Priority, localMAC mrpdomain.MAC, otherPriority mrpdomain.Priority, otherMAC mrpdomain.MAC) *PDU {
	pdu := *base
	pdu.Option = &OptionTLV{
		OUI: IEC,
		SubTLVs: []SubTLV{{
			Type:             SubTLVTestMgrNack,
			Priority:         localPriority,
			SourceMAC:        localMAC,
			OtherMRMPriority: otherPriority,
			OtherMRMMAC:      otherMAC,
		}},
	}
	return &pdu
}

// TestPropagateReq wraps a base TEST PDU with a TEST_PROPAGATE sub-TLV.
func TestPropagateReq(base *PDU, localPriority mrpdomain.Priority, localMAC mrpdomain.MAC, bestPriority mrpdomain.Priority, bestMAC mrpdomain.MAC) *PDU {
	pdu := *base
	pdu.Option = &OptionTLV{
		OUI: IEC,
		SubTLVs: []SubTLV{{
			Type:             SubTLVTestPropagate,
			Priority:         localPriority,
			SourceMAC:        localMAC,
			OtherMRMPriority: bestPriority,
			OtherMRMMAC:      bestMAC,
		}},
	}
	return &pdu
}
