package models

import "time"

// Mode selects how wake targets are resolved.
type Mode string

// Supported modes.
const (
	ModeSingle Mode = "single"
	ModeAll    Mode = "all"
	ModeRange  Mode = "range"
	ModeMAC    Mode = "mac"
)

// RunSummary holds the outcome of a wake run over one or more targets.
type RunSummary struct {
	RunID       string
	Mode        Mode
	Targets     []string
	Woken       int
	PacketsSent int
	Duration    time.Duration
	Results     []WakeResult
}
