//go:build !linux

package linklayer

// readCarrier has no portable equivalent of Linux's
// /sys/class/net/<name>/carrier; non-Linux builds report no carrier,
// matching openRawSocketFor's unsupported-platform stance.
func readCarrier(ifaceName string) bool {
	return false
}
