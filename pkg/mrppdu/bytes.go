package mrppdu

import "encoding/binary"

func putUint16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func getUint16(b []byte) uint16    { return binary.BigEndian.Uint16(b) }
func putUint32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func getUint32(b []byte) uint32    { return binary.BigEndian.Uint32(b) }

// encodeTLVHeader prepends a (type, length) header to body. length must
// fit in one octet; MRP TLV bodies are all well within that bound.
func encodeTLVHeader(typ uint8, body []byte) []byte {
	out := make([]byte, 2+len(body))
	out[0] = typ
	out[1] = uint8(len(body))
	copy(out[2:], body)
	return out
}
