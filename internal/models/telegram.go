package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage holds the data for a wake run notification.
type TelegramMessage struct {
	Success   bool
	Host      string
	Mode      Mode
	RunID     string
	StartTime time.Time
	Duration  time.Duration

	// Run stats.
	Targets     int
	Woken       int
	PacketsSent int

	// Error info (if failed).
	FailedTarget string
	ErrorMessage string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
