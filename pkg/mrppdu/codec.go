package mrppdu

const commonTLVLen = 18 // sequenceId(2) + uuid0(8) + uuid1(8)

// Encode serializes pdu into its wire form: Version, primary TLV,
// optional OPTION TLV, Common TLV, END TLV (spec Section 4.2).
func Encode(pdu *PDU) ([]byte, error) {
	body, err := pdu.encodeBody()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 2+2+len(body)+2+commonTLVLen+2)
	out = append(out, byte(Version>>8), byte(Version))
	out = append(out, encodeTLVHeader(uint8(pdu.Type), body)...)

	if pdu.Option != nil {
		out = append(out, pdu.Option.encode()...)
	}

	common := make([]byte, commonTLVLen)
	putUint16(common[0:2], pdu.SequenceID)
	putUint64(common[2:10], pdu.Domain.UUID0)
	putUint64(common[10:18], pdu.Domain.UUID1)
	out = append(out, encodeTLVHeader(uint8(TLVCommon), common)...)

	out = append(out, encodeTLVHeader(uint8(TLVEnd), nil)...)
	return out, nil
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

// Decode parses a wire-format MRP frame payload. It rejects an unknown
// version, an unknown primary TLV type, or a misplaced/missing OPTION,
// Common, or End TLV (spec Section 4.2, Section 7: these are fatal
// decode errors).
func Decode(data []byte) (*PDU, error) {
	if len(data) < 2 {
		return nil, ErrTruncated
	}
	version := uint16(data[0])<<8 | uint16(data[1])
	if version != Version {
		return nil, ErrUnknownVersion
	}
	rest := data[2:]

	typ, body, rest, err := readTLV(rest)
	if err != nil {
		return nil, err
	}
	if TLVType(typ) == TLVEnd || TLVType(typ) == TLVCommon {
		return nil, ErrUnknownTLVType
	}
	pdu, err := decodePrimaryBody(TLVType(typ), body)
	if err != nil {
		return nil, err
	}

	// Optional OPTION TLV, positioned after the primary and before Common.
	if len(rest) >= 2 && TLVType(rest[0]) == TLVOption {
		var optTyp uint8
		var optBody []byte
		optTyp, optBody, rest, err = readTLV(rest)
		if err != nil {
			return nil, err
		}
		if TLVType(optTyp) != TLVOption {
			return nil, ErrMisplacedOption
		}
		opt, err := decodeOptionBody(optBody)
		if err != nil {
			return nil, err
		}
		pdu.Option = opt
	}

	commonTyp, commonBody, rest, err := readTLV(rest)
	if err != nil {
		return nil, err
	}
	if TLVType(commonTyp) != TLVCommon {
		return nil, ErrMissingCommonTLV
	}
	if len(commonBody) != commonTLVLen {
		return nil, ErrBadTLVLength
	}
	pdu.SequenceID = getUint16(commonBody[0:2])
	pdu.Domain.UUID0 = getUint64(commonBody[2:10])
	pdu.Domain.UUID1 = getUint64(commonBody[10:18])

	endTyp, endBody, _, err := readTLV(rest)
	if err != nil {
		return nil, err
	}
	if TLVType(endTyp) != TLVEnd || len(endBody) != 0 {
		return nil, ErrMissingEndTLV
	}

	return &pdu, nil
}

// readTLV reads one (type, length, body) triplet from b and returns the
// remaining bytes after it.
func readTLV(b []byte) (typ uint8, body []byte, rest []byte, err error) {
	if len(b) < 2 {
		return 0, nil, nil, ErrTruncated
	}
	typ = b[0]
	length := int(b[1])
	if len(b) < 2+length {
		return 0, nil, nil, ErrTruncated
	}
	return typ, b[2 : 2+length], b[2+length:], nil
}
