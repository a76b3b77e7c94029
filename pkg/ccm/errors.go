package ccm

import "errors"

var (
	ErrTruncated     = errors.New("ccm: frame truncated")
	ErrUnknownPort   = errors.New("ccm: port not configured for continuity checking")
	ErrNoBridgeIface = errors.New("ccm: no interface found for port")
)
