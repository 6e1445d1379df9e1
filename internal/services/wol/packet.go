package wol

import (
	"github.com/fgeck/lanwake/internal/mac"
	"github.com/mdlayher/wol"
)

const (
	// DefaultPort is the standard Wake-on-LAN UDP port.
	DefaultPort = 9
	// MagicPacketSize is the size of a magic packet: 6x 0xFF + 16 repetitions of the MAC.
	MagicPacketSize = 6 + 16*mac.Size
)

// BuildMagicPacket returns the 102-byte Wake-on-LAN payload for addr.
func BuildMagicPacket(addr mac.Address) ([]byte, error) {
	p := &wol.MagicPacket{Target: addr.HardwareAddr()}
	return p.MarshalBinary()
}
