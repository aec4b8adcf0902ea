package model

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrInvalidAddress indicates a string that is not an IPv4 or IPv6 literal.
var ErrInvalidAddress = errors.New("invalid IP address format")

// ValidateAddress reports whether s is a well-formed IPv4 or IPv6 literal.
// Only the textual form is checked: no DNS lookup, no reachability probe.
func ValidateAddress(s string) error {
	if _, err := ParseAddress(s); err != nil {
		return err
	}
	return nil
}

// ParseAddress parses s as an IP literal. IPv6 zones are accepted.
func ParseAddress(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return addr, nil
}
