// Package mac parses and formats 6-byte hardware addresses.
package mac

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Size is the number of bytes in a MAC address.
const Size = 6

// ErrInvalidFormat is returned when a MAC address string cannot be parsed.
var ErrInvalidFormat = errors.New("invalid MAC address format")

// Address is a parsed MAC address.
type Address [Size]byte

// Parse parses a MAC address written as six hex groups separated by ':' or
// '-', e.g. "AA:BB:CC:DD:EE:FF" or "aa-bb-cc-dd-ee-ff". Case is ignored.
func Parse(s string) (Address, error) {
	var addr Address

	groups := strings.Split(strings.ReplaceAll(s, "-", ":"), ":")
	if len(groups) != Size {
		return addr, fmt.Errorf("%w: %q has %d groups, want %d", ErrInvalidFormat, s, len(groups), Size)
	}

	for i, g := range groups {
		b, err := strconv.ParseUint(g, 16, 8)
		if err != nil {
			return addr, fmt.Errorf("%w: %q group %d is not a hex byte", ErrInvalidFormat, s, i+1)
		}
		addr[i] = byte(b)
	}

	return addr, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Address {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// FromHardwareAddr converts a net.HardwareAddr of length 6.
func FromHardwareAddr(hw net.HardwareAddr) (Address, error) {
	var addr Address
	if len(hw) != Size {
		return addr, fmt.Errorf("%w: hardware address has %d bytes, want %d", ErrInvalidFormat, len(hw), Size)
	}
	copy(addr[:], hw)
	return addr, nil
}

// HardwareAddr returns the address as a net.HardwareAddr.
func (a Address) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, Size)
	copy(hw, a[:])
	return hw
}

// String returns the canonical lower-case colon form.
func (a Address) String() string {
	return a.HardwareAddr().String()
}
