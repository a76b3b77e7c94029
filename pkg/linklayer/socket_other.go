//go:build !linux

package linklayer

import "errors"

// ErrUnsupportedPlatform is returned by openRawSocketFor on platforms
// without AF_PACKET support (anything but Linux).
var ErrUnsupportedPlatform = errors.New("linklayer: raw AF_PACKET sockets are only supported on linux")

func openRawSocketFor(ifaceName string) (rawSocket, error) {
	return nil, ErrUnsupportedPlatform
}
