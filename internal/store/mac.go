package store

import (
	"fmt"
	"net"
	"strings"
)

// NormalizeMAC returns addr as lowercase colon-separated hex.
func NormalizeMAC(addr string) (string, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(addr))
	if err != nil {
		return "", fmt.Errorf("invalid hardware address %q: %w", addr, err)
	}
	if len(hw) != 6 {
		return "", fmt.Errorf("invalid hardware address %q: want 6 bytes", addr)
	}
	return hw.String(), nil
}

// VirtualSuffix returns the last three bytes of a normalized address.
// Relays and extenders that rewrite the vendor prefix keep these intact.
func VirtualSuffix(mac string) string {
	if len(mac) < 8 {
		return mac
	}
	return mac[len(mac)-8:]
}
