package mrpdomain

import (
	"bytes"
	"fmt"
)

// MAC is a 6-octet Ethernet hardware address.
type MAC [6]byte

// String renders the MAC in the usual colon-separated hex form.
func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsZero reports whether the MAC is the all-zero address.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// Less reports whether m sorts numerically before other, treating the
// address as a big-endian 48-bit integer. Used by the CCM endpoint-id
// tiebreak in pkg/ccm.
func (m MAC) Less(other MAC) bool {
	return bytes.Compare(m[:], other[:]) < 0
}

// BroadcastMAC is the Ethernet broadcast address.
var BroadcastMAC = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Well-known MRP multicast destination addresses (spec Section 6).
var (
	MCTest       = MAC{0x01, 0x15, 0x4E, 0x00, 0x00, 0x01}
	MCControl    = MAC{0x01, 0x15, 0x4E, 0x00, 0x00, 0x02}
	MCInTest     = MAC{0x01, 0x15, 0x4E, 0x00, 0x00, 0x03}
	MCInControl  = MAC{0x01, 0x15, 0x4E, 0x00, 0x00, 0x04}
)

// MRPEtherType is the length/type field value used on MRP frames.
const MRPEtherType uint16 = 0x88E3

// Priority is a 16-bit manager-election priority. Lower numeric value
// wins (spec Section 3).
type Priority uint16

// Distinguished priority values (spec Section 3).
const (
	PriorityDefault    Priority = 0x8000 // MRM default
	PriorityMRADefault Priority = 0xA000 // Automanager default; must be numerically worse than PriorityDefault
)

// Better reports whether p is a better (numerically lower) priority than other.
func (p Priority) Better(other Priority) bool {
	return p < other
}

// TimingProfile is one of the four IEC 62439-2 maxRecovery profiles, in
// milliseconds.
type TimingProfile int

const (
	Profile500ms TimingProfile = 500
	Profile200ms TimingProfile = 200
	Profile30ms  TimingProfile = 30
	Profile10ms  TimingProfile = 10
)

// IsValid reports whether p is one of the four defined profiles.
func (p TimingProfile) IsValid() bool {
	switch p {
	case Profile500ms, Profile200ms, Profile30ms, Profile10ms:
		return true
	default:
		return false
	}
}

// DerivedTimings holds the per-profile constants derived from a
// TimingProfile (spec Section 3 table).
type DerivedTimings struct {
	TopologyChangeInterval Millis
	ShortTestInterval      Millis
	DefaultTestInterval    Millis
	TestMonitoringCount    int
	LinkUpDownInterval     Millis
}

// Millis is a duration expressed in milliseconds. It is fractional
// (the 30ms and 10ms profiles use 0.5ms and 3.5ms); truncation to whole
// milliseconds happens only when a timer is armed (pkg/timerservice).
type Millis float64

// Derive returns the derived timing constants for p. Callers must check
// p.IsValid() first; Derive panics on an unknown profile since it
// represents a configuration error the caller should have already
// rejected via Config.Validate (spec Section 7: fatal configuration
// error).
func (p TimingProfile) Derive() DerivedTimings {
	switch p {
	case Profile500ms:
		return DerivedTimings{20, 30, 50, 5, 20}
	case Profile200ms:
		return DerivedTimings{10, 10, 20, 3, 20}
	case Profile30ms:
		return DerivedTimings{0.5, 1, 3.5, 3, 3}
	case Profile10ms:
		return DerivedTimings{0.5, 0.5, 1, 3, 1}
	default:
		panic(fmt.Sprintf("mrpdomain: unknown timing profile %d", int(p)))
	}
}
