// Package wol provides Wake-on-LAN operations.
package wol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/fgeck/lanwake/internal/mac"
	"github.com/fgeck/lanwake/internal/models"
	"github.com/mdlayher/wol"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidArgument is returned when the wake target is empty or malformed.
	ErrInvalidArgument = errors.New("invalid wake target")
	// ErrTransport is returned when a magic packet could not be sent.
	ErrTransport = errors.New("transport error")
)

// Service defines the interface for Wake-on-LAN operations.
type Service interface {
	Wake(ctx context.Context, target string) (*models.WakeResult, error)
}

// Client wraps the wol library for mocking.
type Client interface {
	Wake(addr string, target net.HardwareAddr) error
}

// DefaultClient is the default implementation using mdlayher/wol. Every
// call binds a fresh UDP socket and closes it after the send.
type DefaultClient struct{}

// Wake sends one magic packet for target to addr.
func (c *DefaultClient) Wake(addr string, target net.HardwareAddr) error {
	client, err := wol.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create WOL client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Wake(addr, target); err != nil {
		return fmt.Errorf("failed to send WOL packet to %s: %w", addr, err)
	}

	return nil
}

// Impl implements the WOL Service interface.
type Impl struct {
	cfg       models.SendConfig
	wolClient Client
	logger    zerolog.Logger
}

// New creates a new WOL service.
func New(logger zerolog.Logger, cfg models.SendConfig) *Impl {
	return NewWithClient(logger, cfg, &DefaultClient{})
}

// NewWithClient creates a new WOL service with a custom client (for testing).
func NewWithClient(logger zerolog.Logger, cfg models.SendConfig, wolClient Client) *Impl {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.BroadcastIP == "" {
		cfg.BroadcastIP = models.DefaultBroadcastIP
	}
	return &Impl{
		cfg:       cfg,
		wolClient: wolClient,
		logger:    logger,
	}
}

// Config returns the send configuration the service was built with.
func (s *Impl) Config() models.SendConfig {
	return s.cfg
}

// Wake parses target as a MAC address and broadcasts its magic packet.
func (s *Impl) Wake(ctx context.Context, target string) (*models.WakeResult, error) {
	result := &models.WakeResult{MAC: target}

	if strings.TrimSpace(target) == "" {
		result.Error = fmt.Errorf("%w: empty MAC address", ErrInvalidArgument)
		return result, result.Error
	}

	addr, err := mac.Parse(target)
	if err != nil {
		result.Error = fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		return result, result.Error
	}

	return s.WakeAddress(ctx, addr)
}

// WakeAddress sends the magic packet for addr Repeat times, pausing Delay
// between sends. The first failed send aborts the remaining repeats.
func (s *Impl) WakeAddress(ctx context.Context, addr mac.Address) (*models.WakeResult, error) {
	result := &models.WakeResult{MAC: addr.String()}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	target := addr.HardwareAddr()
	dest := net.JoinHostPort(s.cfg.BroadcastIP, strconv.Itoa(s.cfg.Port))

	s.logger.Debug().
		Str("mac", result.MAC).
		Str("broadcast", dest).
		Int("repeat", s.cfg.Repeat).
		Dur("delay", s.cfg.Delay).
		Msg("sending WOL packets")

	for i := 0; i < s.cfg.Repeat; i++ {
		if i > 0 && s.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
				return result, result.Error
			case <-time.After(s.cfg.Delay):
			}
		}

		if err := s.wolClient.Wake(dest, target); err != nil {
			result.Failures++
			s.logger.Error().
				Err(err).
				Str("mac", result.MAC).
				Int("attempt", i+1).
				Msg("failed to send WOL packet")
			result.Error = fmt.Errorf("%w: %s attempt %d: %w", ErrTransport, result.MAC, i+1, err)
			return result, result.Error
		}

		result.PacketsSent++
		s.logger.Debug().
			Str("mac", result.MAC).
			Int("attempt", i+1).
			Msg("WOL packet sent")
	}

	s.logger.Info().
		Str("mac", result.MAC).
		Int("packets", result.PacketsSent).
		Msg("WOL packets sent")

	return result, nil
}
