package models

import "time"

// Default values for SendConfig.
const (
	DefaultPort        = 9
	DefaultBroadcastIP = "255.255.255.255"
)

// SendConfig holds the magic packet send settings. It is built once at
// startup and never modified afterwards.
type SendConfig struct {
	Delay       time.Duration // pause between repeated sends of the same packet
	Repeat      int           // number of sends per target
	BroadcastIP string
	Port        int
}

// WakeResult holds the result of waking a single target.
type WakeResult struct {
	MAC         string
	PacketsSent int
	Failures    int
	Duration    time.Duration
	Error       error
}

// ReceivedPacket describes a magic packet seen by the listener.
type ReceivedPacket struct {
	Target string // MAC address carried by the packet
	Source string // sender address
	Size   int
}
