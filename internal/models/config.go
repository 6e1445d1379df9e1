// Package models contains the data structures used throughout lanwake.
package models

// Config holds the complete configuration for a lanwake run.
type Config struct {
	Send        SendConfig
	HostsFile   string             // path to the ip#mac mapping file
	SingleIP    string             // target for single mode when no argument is given
	StartIP     string             // first address for range mode when no arguments are given
	EndIP       string             // last address for range mode when no arguments are given
	MetricsFile string             // node_exporter textfile path, empty to disable
	SSH         *SSHShutdownConfig // nil if not configured
	Telegram    *TelegramConfig    // nil if not configured
}
