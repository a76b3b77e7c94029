// Package mrppdu implements the MRP PDU wire format: the TLV envelope
// carried inside Ethernet frames addressed to the well-known MRP
// multicast groups (spec Section 4.2).
package mrppdu

// TLVType is the one-octet type field of a primary MRP TLV.
type TLVType uint8

// Primary TLV types (spec Section 4.2).
const (
	TLVEnd              TLVType = 0
	TLVCommon           TLVType = 1 // sequenceId + DomainId, always present before END
	TLVTest             TLVType = 2
	TLVTopologyChange   TLVType = 3
	TLVLinkDown         TLVType = 4
	TLVLinkUp           TLVType = 5
	TLVInTest           TLVType = 6
	TLVInTopologyChange TLVType = 7
	TLVInLinkDown       TLVType = 8
	TLVInLinkUp         TLVType = 9
	TLVInLinkStatusPoll TLVType = 10
	TLVOption           TLVType = 127
)

// String renders the TLV type name.
func (t TLVType) String() string {
	switch t {
	case TLVEnd:
		return "END"
	case TLVCommon:
		return "COMMON"
	case TLVTest:
		return "TEST"
	case TLVTopologyChange:
		return "TOPOLOGYCHANGE"
	case TLVLinkDown:
		return "LINKDOWN"
	case TLVLinkUp:
		return "LINKUP"
	case TLVInTest:
		return "INTEST"
	case TLVInTopologyChange:
		return "INTOPOLOGYCHANGE"
	case TLVInLinkDown:
		return "INLINKDOWN"
	case TLVInLinkUp:
		return "INLINKUP"
	case TLVInLinkStatusPoll:
		return "INLINKSTATUSPOLL"
	case TLVOption:
		return "OPTION"
	default:
		return "UNKNOWN"
	}
}

// IsInterconnection reports whether t is one of the interconnection-class
// PDUs (spec Section 4.1, end of §4.1: forwarded in CHK_RO, dropped
// elsewhere).
func (t TLVType) IsInterconnection() bool {
	switch t {
	case TLVInTest, TLVInTopologyChange, TLVInLinkDown, TLVInLinkUp, TLVInLinkStatusPoll:
		return true
	default:
		return false
	}
}

// IsLink reports whether t carries link-change semantics (LINKUP/LINKDOWN
// and their interconnection counterparts).
func (t TLVType) IsLink() bool {
	switch t {
	case TLVLinkUp, TLVLinkDown, TLVInLinkUp, TLVInLinkDown:
		return true
	default:
		return false
	}
}

// SubTLVType is the one-octet type of a sub-TLV nested in an OPTION TLV.
type SubTLVType uint8

// Sub-TLV types (spec Section 4.2).
const (
	SubTLVReserved     SubTLVType = 0
	SubTLVTestMgrNack  SubTLVType = 1
	SubTLVTestPropagate SubTLVType = 2
	SubTLVAutoMgr      SubTLVType = 3
)

// String renders the sub-TLV type name.
func (t SubTLVType) String() string {
	switch t {
	case SubTLVReserved:
		return "RESERVED"
	case SubTLVTestMgrNack:
		return "TEST_MGR_NACK"
	case SubTLVTestPropagate:
		return "TEST_PROPAGATE"
	case SubTLVAutoMgr:
		return "AUTOMGR"
	default:
		return "UNKNOWN"
	}
}

// Version is the fixed MRP protocol version field value.
const Version uint16 = 0x0001

// IEC is the well-known IEC organizationally unique identifier used in
// the OPTION TLV's oui field for standard (non-vendor) sub-TLVs.
var IEC = [3]byte{0x00, 0x80, 0x63}
