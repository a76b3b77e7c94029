//go:build linux

package linklayer

import (
	"os"
	"strings"
)

// readCarrier reports an interface's physical carrier state by reading
// /sys/class/net/<name>/carrier. No pack library exposes Linux carrier
// state directly, so this is a deliberate standard-library fallback
// (see DESIGN.md); the file is absent or unreadable for interfaces the
// kernel doesn't track carrier on (e.g. loopback), treated as no
// carrier rather than an error since the caller only wants a bool.
func readCarrier(ifaceName string) bool {
	data, err := os.ReadFile("/sys/class/net/" + ifaceName + "/carrier")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}
