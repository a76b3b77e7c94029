package mrppdu

import (
	"bytes"
	"testing"

	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

func sampleDomain() mrpdomain.DomainId {
	return mrpdomain.DomainId{UUID0: 0x0102030405060708, UUID1: 0x0a0b0c0d0e0f1011}
}

func TestRoundTripTest(t *testing.T) {
	mac := mrpdomain.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	pdu := SetupTestRingReq(mrpdomain.PriorityDefault, mac, WirePortRolePrimary, WireRingStateOpen, 3, 123456)
	pdu.SequenceID = 42
	pdu.Domain = sampleDomain()

	b, err := Encode(pdu)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *got != *pdu {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, pdu)
	}

	// encode(decode(b)) == b
	b2, err := Encode(got)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(b, b2) {
		t.Fatalf("re-encoded bytes differ:\n got=% x\nwant=% x", b2, b)
	}
}

func TestRoundTripTopologyChange(t *testing.T) {
	mac := mrpdomain.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	pdu := SetupTopologyChangeReq(mrpdomain.PriorityMRADefault, mac, WirePortRoleSecondary, 20, 1)
	pdu.SequenceID = 7
	pdu.Domain = sampleDomain()

	b, err := Encode(pdu)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *got != *pdu {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, pdu)
	}
}

func TestRoundTripLinkUpDown(t *testing.T) {
	mac := mrpdomain.MAC{1, 2, 3, 4, 5, 6}
	for _, up := range []bool{true, false} {
		pdu := SetupLinkChangeReq(up, mac, WirePortRolePrimary, 20, true, 0)
		pdu.SequenceID = 1
		pdu.Domain = sampleDomain()

		b, err := Encode(pdu)
		if err != nil {
			t.Fatalf("Encode up=%v: %v", up, err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode up=%v: %v", up, err)
		}
		if *got != *pdu {
			t.Fatalf("round trip mismatch up=%v: got %+v, want %+v", up, got, pdu)
		}
	}
}

func TestRoundTripTestMgrNackOption(t *testing.T) {
	mac := mrpdomain.MAC{1, 1, 1, 1, 1, 1}
	other := mrpdomain.MAC{2, 2, 2, 2, 2, 2}
	base := SetupTestRingReq(mrpdomain.PriorityMRADefault, mac, WirePortRolePrimary, WireRingStateOpen, 0, 99)
	pdu := TestMgrNackReq(base, mrpdomain.PriorityMRADefault, mac, mrpdomain.PriorityDefault, other)
	pdu.SequenceID = 3
	pdu.Domain = sampleDomain()

	b, err := Encode(pdu)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Option == nil || len(got.Option.SubTLVs) != 1 {
		t.Fatalf("expected one sub-TLV, got %+v", got.Option)
	}
	sub := got.Option.SubTLVs[0]
	if sub.Type != SubTLVTestMgrNack {
		t.Fatalf("sub-TLV type = %v, want TEST_MGR_NACK", sub.Type)
	}
	if sub.SourceMAC != mac || sub.OtherMRMMAC != other {
		t.Fatalf("sub-TLV MACs wrong: %+v", sub)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	b := []byte{0x00, 0x02, 0x02, 0x00, 0x01, 0x00, 0x00}
	if _, err := Decode(b); err != ErrUnknownVersion {
		t.Fatalf("err = %v, want ErrUnknownVersion", err)
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	b := []byte{0x00, 0x01, 0x02, 0x12}
	if _, err := Decode(b); err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeRejectsUnknownPrimaryType(t *testing.T) {
	// type=99 unknown, len=0, followed by common+end wouldn't matter; decodePrimaryBody fails first
	b := []byte{0x00, 0x01, 99, 0x00}
	if _, err := Decode(b); err != ErrUnknownTLVType {
		t.Fatalf("err = %v, want ErrUnknownTLVType", err)
	}
}

func TestDecodeRejectsMissingCommon(t *testing.T) {
	mac := mrpdomain.MAC{1, 2, 3, 4, 5, 6}
	pdu := SetupTestRingReq(mrpdomain.PriorityDefault, mac, WirePortRolePrimary, WireRingStateOpen, 0, 1)
	body, _ := pdu.encodeBody()
	b := append([]byte{0x00, 0x01}, encodeTLVHeader(uint8(TLVTest), body)...)
	b = append(b, encodeTLVHeader(uint8(TLVEnd), nil)...)
	if _, err := Decode(b); err != ErrMissingCommonTLV {
		t.Fatalf("err = %v, want ErrMissingCommonTLV", err)
	}
}
