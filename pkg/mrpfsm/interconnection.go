package mrpfsm

import (
	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrppdu"
)

// handleInterconnectionIndLocked re-emits an interconnection-class PDU
// out the ring port opposite to the one it arrived on, unmodified
// except for tag cleanup already performed by the codec (spec Section
// 4.1, end: interconnection frame forwarding). Forwarding happens only
// in CHK_RO (the open ring); in every other state the frame is dropped.
// A node not configured as interconnection-aware on either axis silently
// drops it too, matching the ordinary "unmatched combinations are
// ignored" rule.
func (e *Engine) handleInterconnectionIndLocked(ev Event) {
	if !e.cfg.InterconnectionLinkCheckAware && !e.cfg.InterconnectionRingCheckAware {
		return
	}
	if e.state != StateCHKRO {
		return
	}
	if ev.PDU == nil {
		return
	}
	other := e.secondary
	if ev.Port == e.secondary {
		other = e.primary
	}
	e.forwardPDULocked(ev.PDU, e.destForInterconnection(ev.PDU.Type), other)
}

// destForInterconnection maps an interconnection TLV type to its
// well-known multicast destination (spec Section 6).
func (e *Engine) destForInterconnection(t mrppdu.TLVType) mrpdomain.MAC {
	if t == mrppdu.TLVInTest {
		return mrpdomain.MCInTest
	}
	return mrpdomain.MCInControl
}

// forwardPDULocked re-sends a received PDU exactly as decoded: unlike
// sendPDULocked, it must not restamp SequenceID or Domain, since those
// belong to the originating node and invariants 5/6 only bound
// self-originated traffic.
func (e *Engine) forwardPDULocked(pdu *mrppdu.PDU, dest mrpdomain.MAC, port mrpcore.PortID) {
	data, err := mrppdu.Encode(pdu)
	if err != nil {
		if e.log != nil {
			e.log.Errorf("encode forwarded %s failed: %v", pdu.Type, err)
		}
		return
	}
	if err := e.cfg.Relay.Send(port, dest, pdu.SourceMAC, 0, mrpdomain.MRPEtherType, data); err != nil {
		if e.log != nil {
			e.log.Warnf("forward %s on port %d failed: %v", pdu.Type, port, err)
		}
	}
}
