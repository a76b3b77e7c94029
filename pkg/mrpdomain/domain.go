// Package mrpdomain holds the small value types shared across the MRP
// stack: the ring DomainId, manager Priority, and the well-known
// multicast/EtherType constants defined by IEC 62439-2.
package mrpdomain

import (
	"fmt"

	"github.com/google/uuid"
)

// DomainId identifies an MRP ring instance. On the wire it is carried
// as two 64-bit halves inside the Common TLV (spec Section 4.2).
// Frames whose DomainId does not match the local one are ignored
// (invariant 5) but kept for logging.
type DomainId struct {
	UUID0 uint64
	UUID1 uint64
}

// DefaultDomain is the well-known all-zero domain used when a node is
// not explicitly configured with one.
var DefaultDomain = DomainId{}

// String renders the domain as a canonical UUID string.
func (d DomainId) String() string {
	return d.toUUID().String()
}

// Equal reports whether two domains match exactly.
func (d DomainId) Equal(other DomainId) bool {
	return d.UUID0 == other.UUID0 && d.UUID1 == other.UUID1
}

func (d DomainId) toUUID() uuid.UUID {
	var u uuid.UUID
	putUint64(u[0:8], d.UUID0)
	putUint64(u[8:16], d.UUID1)
	return u
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// ParseUUID parses a canonical UUID string (e.g.
// "6ba7b810-9dad-11d1-80b4-00c04fd430c8") into a DomainId.
func ParseUUID(s string) (DomainId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DomainId{}, fmt.Errorf("mrpdomain: %w", err)
	}
	return DomainId{
		UUID0: getUint64(u[0:8]),
		UUID1: getUint64(u[8:16]),
	}, nil
}

// NewRandom generates a fresh random DomainId (RFC 4122 version 4),
// suitable for standing up a new, previously unused ring.
func NewRandom() (DomainId, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return DomainId{}, fmt.Errorf("mrpdomain: %w", err)
	}
	return DomainId{
		UUID0: getUint64(u[0:8]),
		UUID1: getUint64(u[8:16]),
	}, nil
}
