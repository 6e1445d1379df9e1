// Package telegram sends wake run notifications via Telegram.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/fgeck/lanwake/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for Telegram notification operations.
type Service interface {
	SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the Telegram Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new Telegram service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		baseURL: "https://api.telegram.org",
	}
}

// NewWithClient creates a new Telegram service with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// MessageFromSummary builds a notification for a finished wake run.
// runErr is the error returned by the run, if any.
func MessageFromSummary(host string, start time.Time, summary *models.RunSummary, runErr error) models.TelegramMessage {
	msg := models.TelegramMessage{
		Success:     runErr == nil,
		Host:        host,
		Mode:        summary.Mode,
		RunID:       summary.RunID,
		StartTime:   start,
		Duration:    summary.Duration,
		Targets:     len(summary.Targets),
		Woken:       summary.Woken,
		PacketsSent: summary.PacketsSent,
	}
	if runErr != nil {
		msg.ErrorMessage = runErr.Error()
		if summary.Woken < len(summary.Targets) {
			msg.FailedTarget = summary.Targets[summary.Woken]
		}
	}
	return msg
}

// sendMessageRequest is the request body for Telegram sendMessage API.
type sendMessageRequest struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode"`
	DisableNotification bool   `json:"disable_notification"`
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendNotification reports a wake run via Telegram. Successful runs are
// delivered silently, failed runs with a notification sound. Delivery
// failures are reported in the result, not as an error.
func (s *Impl) SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error) {
	logger := s.logger.With().
		Str("chat_id", cfg.ChatID).
		Str("run_id", msg.RunID).
		Bool("success", msg.Success).
		Logger()

	req := sendMessageRequest{
		ChatID:              cfg.ChatID,
		Text:                s.formatMessage(msg),
		ParseMode:           "HTML",
		DisableNotification: msg.Success,
	}

	if err := s.sendMessage(ctx, cfg.BotToken, req); err != nil {
		logger.Warn().Err(err).Msg("wake run notification not delivered")
		return &models.TelegramResult{Error: err}, nil
	}

	logger.Info().Msg("wake run notification sent")
	return &models.TelegramResult{MessageSent: true}, nil
}

// sendMessage posts req and checks the API envelope. The token is never
// included in returned errors.
func (s *Impl) sendMessage(ctx context.Context, token string, req sendMessageRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.New("failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		var urlErr *neturl.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var reply apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&reply)

	switch {
	case resp.StatusCode != http.StatusOK && reply.Description != "":
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, reply.Description)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	case decodeErr != nil:
		return fmt.Errorf("failed to decode telegram response: %w", decodeErr)
	case !reply.OK:
		return fmt.Errorf("telegram API rejected message: %s", reply.Description)
	}
	return nil
}

func (s *Impl) formatMessage(msg models.TelegramMessage) string {
	var b bytes.Buffer

	if msg.Success {
		b.WriteString("✅ <b>Wake Run Successful</b>\n\n")
	} else {
		b.WriteString("❌ <b>Wake Run Failed</b>\n\n")
	}

	b.WriteString(fmt.Sprintf("🖥 <b>Host:</b> %s\n", escapeHTML(msg.Host)))
	b.WriteString(fmt.Sprintf("🎯 <b>Mode:</b> %s\n", escapeHTML(string(msg.Mode))))
	b.WriteString(fmt.Sprintf("🆔 <b>Run:</b> <code>%s</code>\n", escapeHTML(msg.RunID)))
	b.WriteString(fmt.Sprintf("⏰ <b>Started:</b> %s\n", msg.StartTime.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("⏱ <b>Duration:</b> %s\n", msg.Duration.Round(time.Millisecond)))

	b.WriteString("\n<b>📊 Statistics:</b>\n")
	b.WriteString(fmt.Sprintf("  • Targets: %d\n", msg.Targets))
	b.WriteString(fmt.Sprintf("  • Woken: %d\n", msg.Woken))
	b.WriteString(fmt.Sprintf("  • Packets sent: %d\n", msg.PacketsSent))

	if !msg.Success {
		b.WriteString("\n<b>⚠️ Error Details:</b>\n")
		if msg.FailedTarget != "" {
			b.WriteString(fmt.Sprintf("  • Failed target: %s\n", escapeHTML(msg.FailedTarget)))
		}
		b.WriteString(fmt.Sprintf("  • Error: <code>%s</code>\n", escapeHTML(msg.ErrorMessage)))
	}

	return b.String()
}

// escapeHTML escapes HTML special characters.
func escapeHTML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
