package mrppdu

import (
	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

// PDU is a decoded MRP protocol data unit: a primary TLV, an optional
// OPTION TLV, and the trailing Common TLV (sequence id + DomainId) that
// every MRP frame carries (spec Section 4.2).
type PDU struct {
	Type TLVType

	// Primary TLV fields, populated "as applicable" per Type (spec
	// Section 4.2). Unused fields for a given Type are left zero and
	// not placed on the wire.
	Priority  mrpdomain.Priority
	SourceMAC mrpdomain.MAC
	PortRole  uint16 // wire-level port role code, see pkg/mrpfsm for the mapping to PortRole
	RingState uint16 // wire-level ring state code, see pkg/mrpfsm for the mapping to RingState
	Transition uint16
	Timestamp uint32 // ms since an arbitrary epoch (TEST/INTEST only)
	Interval  uint16 // ms (TOPOLOGYCHANGE/link PDUs only)
	Blocked   bool   // link PDUs only

	Option *OptionTLV

	SequenceID uint16
	Domain     mrpdomain.DomainId
}

// Well-known wire-level port role codes (spec leaves the exact values
// implementation-defined; this codec fixes them so encode/decode is
// self-consistent and pkg/mrpfsm maps its PortRole enum onto them).
const (
	WirePortRoleNotAssigned uint16 = 0
	WirePortRolePrimary     uint16 = 1
	WirePortRoleSecondary   uint16 = 2
)

// Well-known wire-level ring state codes.
const (
	WireRingStateUndefined uint16 = 0
	WireRingStateClosed    uint16 = 1
	WireRingStateOpen      uint16 = 2
)

func (p *PDU) encodeBody() ([]byte, error) {
	switch p.Type {
	case TLVTest, TLVInTest:
		body := make([]byte, 18)
		putUint16(body[0:2], uint16(p.Priority))
		copy(body[2:8], p.SourceMAC[:])
		putUint16(body[8:10], p.PortRole)
		putUint16(body[10:12], p.RingState)
		putUint16(body[12:14], p.Transition)
		putUint32(body[14:18], p.Timestamp)
		return body, nil

	case TLVTopologyChange, TLVInTopologyChange:
		body := make([]byte, 14)
		copy(body[0:6], p.SourceMAC[:])
		putUint16(body[6:8], p.PortRole)
		putUint16(body[8:10], uint16(p.Priority))
		putUint16(body[10:12], p.Interval)
		putUint16(body[12:14], p.Transition)
		return body, nil

	case TLVLinkDown, TLVLinkUp, TLVInLinkDown, TLVInLinkUp:
		body := make([]byte, 13)
		copy(body[0:6], p.SourceMAC[:])
		putUint16(body[6:8], p.PortRole)
		putUint16(body[8:10], p.Interval)
		if p.Blocked {
			body[10] = 1
		}
		putUint16(body[11:13], p.Transition)
		return body, nil

	case TLVInLinkStatusPoll:
		body := make([]byte, 8)
		copy(body[0:6], p.SourceMAC[:])
		putUint16(body[6:8], p.PortRole)
		return body, nil

	default:
		return nil, ErrUnknownTLVType
	}
}

func decodePrimaryBody(typ TLVType, body []byte) (PDU, error) {
	p := PDU{Type: typ}
	switch typ {
	case TLVTest, TLVInTest:
		if len(body) != 18 {
			return PDU{}, ErrBadTLVLength
		}
		p.Priority = mrpdomain.Priority(getUint16(body[0:2]))
		copy(p.SourceMAC[:], body[2:8])
		p.PortRole = getUint16(body[8:10])
		p.RingState = getUint16(body[10:12])
		p.Transition = getUint16(body[12:14])
		p.Timestamp = getUint32(body[14:18])

	case TLVTopologyChange, TLVInTopologyChange:
		if len(body) != 14 {
			return PDU{}, ErrBadTLVLength
		}
		copy(p.SourceMAC[:], body[0:6])
		p.PortRole = getUint16(body[6:8])
		p.Priority = mrpdomain.Priority(getUint16(body[8:10]))
		p.Interval = getUint16(body[10:12])
		p.Transition = getUint16(body[12:14])

	case TLVLinkDown, TLVLinkUp, TLVInLinkDown, TLVInLinkUp:
		if len(body) != 13 {
			return PDU{}, ErrBadTLVLength
		}
		copy(p.SourceMAC[:], body[0:6])
		p.PortRole = getUint16(body[6:8])
		p.Interval = getUint16(body[8:10])
		p.Blocked = body[10] != 0
		p.Transition = getUint16(body[11:13])

	case TLVInLinkStatusPoll:
		if len(body) != 8 {
			return PDU{}, ErrBadTLVLength
		}
		copy(p.SourceMAC[:], body[0:6])
		p.PortRole = getUint16(body[6:8])

	default:
		return PDU{}, ErrUnknownTLVType
	}
	return p, nil
}
