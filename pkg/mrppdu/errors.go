package mrppdu

import "errors"

// Decode errors. An unknown primary TLV type or unknown sub-TLV type is
// a fatal configuration/logic error per spec Section 7 — the caller
// should treat these as non-recoverable for the frame in question, not
// silently ignore them.
var (
	ErrTruncated        = errors.New("mrppdu: frame truncated")
	ErrUnknownVersion   = errors.New("mrppdu: unknown version")
	ErrUnknownTLVType   = errors.New("mrppdu: unknown primary TLV type")
	ErrUnknownSubTLV    = errors.New("mrppdu: unknown sub-TLV type")
	ErrMissingCommonTLV = errors.New("mrppdu: missing common TLV")
	ErrMissingEndTLV    = errors.New("mrppdu: missing end TLV")
	ErrBadTLVLength     = errors.New("mrppdu: TLV length field inconsistent with body")
	ErrMisplacedOption  = errors.New("mrppdu: OPTION TLV must follow the primary TLV and precede COMMON")
)
