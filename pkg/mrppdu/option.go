package mrppdu

import (
	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

// SubTLV is a sub-TLV nested inside an OPTION TLV.
type SubTLV struct {
	Type SubTLVType

	// Priority/SourceMAC/OtherMRMPriority/OtherMRMMAC are populated for
	// TEST_MGR_NACK and TEST_PROPAGATE (spec Section 4.2:
	// "(prio, sourceMac, otherMrmPrio, otherMrmMac)").
	Priority         mrpdomain.Priority
	SourceMAC        mrpdomain.MAC
	OtherMRMPriority mrpdomain.Priority
	OtherMRMMAC      mrpdomain.MAC

	// Raw carries the body verbatim for RESERVED/AUTOMGR sub-TLVs, whose
	// contents this codec treats as opaque pass-through.
	Raw []byte
}

const subTLVNackPropagateLen = 16 // prio(2) + mac(6) + otherPrio(2) + otherMac(6)

func (s *SubTLV) encode() []byte {
	switch s.Type {
	case SubTLVTestMgrNack, SubTLVTestPropagate:
		body := make([]byte, subTLVNackPropagateLen)
		putUint16(body[0:2], uint16(s.Priority))
		copy(body[2:8], s.SourceMAC[:])
		putUint16(body[8:10], uint16(s.OtherMRMPriority))
		copy(body[10:16], s.OtherMRMMAC[:])
		return encodeTLVHeader(uint8(s.Type), body)
	default:
		return encodeTLVHeader(uint8(s.Type), s.Raw)
	}
}

func decodeSubTLV(typ uint8, body []byte) (SubTLV, error) {
	s := SubTLV{Type: SubTLVType(typ)}
	switch s.Type {
	case SubTLVTestMgrNack, SubTLVTestPropagate:
		if len(body) != subTLVNackPropagateLen {
			return SubTLV{}, ErrBadTLVLength
		}
		s.Priority = mrpdomain.Priority(getUint16(body[0:2]))
		copy(s.SourceMAC[:], body[2:8])
		s.OtherMRMPriority = mrpdomain.Priority(getUint16(body[8:10]))
		copy(s.OtherMRMMAC[:], body[10:16])
	case SubTLVReserved, SubTLVAutoMgr:
		s.Raw = append([]byte(nil), body...)
	default:
		return SubTLV{}, ErrUnknownSubTLV
	}
	return s, nil
}

// OptionTLV is the OPTION TLV (type 127): an OUI, an optional legacy
// ed1Type region (length 0 or 4), and zero or more sub-TLVs.
type OptionTLV struct {
	OUI     [3]byte
	ED1Type []byte // nil or len 0/4
	SubTLVs []SubTLV
}

func (o *OptionTLV) encode() []byte {
	var body []byte
	body = append(body, o.OUI[:]...)
	body = append(body, o.ED1Type...)
	for i := range o.SubTLVs {
		body = append(body, o.SubTLVs[i].encode()...)
	}
	return encodeTLVHeader(uint8(TLVOption), body)
}

func decodeOptionBody(body []byte) (*OptionTLV, error) {
	if len(body) < 3 {
		return nil, ErrTruncated
	}
	o := &OptionTLV{}
	copy(o.OUI[:], body[0:3])
	rest := body[3:]

	// The legacy ed1Type region, if present, is 4 bytes and precedes
	// the sub-TLV sequence. We detect it by checking whether the next
	// byte, interpreted as a sub-TLV length field, would overrun the
	// buffer; a well-formed encoder always knows whether it wrote this
	// region, so in practice decode is driven by the same convention
	// the encoder used: sub-TLVs are self-describing (type,len,body),
	// so we simply try to parse the rest as sub-TLVs. If rest[1] (the
	// purported length) doesn't line up with a valid sub-TLV body size
	// for rest[0], treat the first 4 bytes as ed1Type instead.
	if len(rest) >= 4 && !looksLikeSubTLVStream(rest) {
		o.ED1Type = append([]byte(nil), rest[0:4]...)
		rest = rest[4:]
	}

	for len(rest) > 0 {
		if len(rest) < 2 {
			return nil, ErrTruncated
		}
		typ := rest[0]
		length := int(rest[1])
		if len(rest) < 2+length {
			return nil, ErrTruncated
		}
		sub, err := decodeSubTLV(typ, rest[2:2+length])
		if err != nil {
			return nil, err
		}
		o.SubTLVs = append(o.SubTLVs, sub)
		rest = rest[2+length:]
	}
	return o, nil
}

// looksLikeSubTLVStream heuristically checks whether b begins with a
// well-formed (type,length,body...) sub-TLV sequence that consumes b
// exactly, using the known sub-TLV type/length conventions.
func looksLikeSubTLVStream(b []byte) bool {
	rest := b
	for len(rest) > 0 {
		if len(rest) < 2 {
			return false
		}
		typ := SubTLVType(rest[0])
		length := int(rest[1])
		switch typ {
		case SubTLVTestMgrNack, SubTLVTestPropagate:
			if length != subTLVNackPropagateLen {
				return false
			}
		case SubTLVReserved, SubTLVAutoMgr:
			// accepted length, nothing to validate further
		default:
			return false
		}
		if len(rest) < 2+length {
			return false
		}
		rest = rest[2+length:]
	}
	return true
}
