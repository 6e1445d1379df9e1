// Package listener receives and decodes Wake-on-LAN magic packets.
package listener

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/fgeck/lanwake/internal/mac"
	"github.com/fgeck/lanwake/internal/models"
	"github.com/mdlayher/wol"
	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

// readBufferSize fits a magic packet with the longest SecureOn password.
const readBufferSize = 108

var errCountReached = errors.New("packet count reached")

// Handler is called for every valid magic packet.
type Handler func(models.ReceivedPacket)

// Service defines the interface for listening to magic packets.
type Service interface {
	Listen(ctx context.Context, addr string, count int, handler Handler) error
}

// Impl implements the listener Service interface.
type Impl struct {
	listenConfig net.ListenConfig
	logger       zerolog.Logger
}

// New creates a new listener service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// Listen binds a UDP socket on addr and reports every valid magic packet to
// handler until ctx is done or count packets were seen. A count of zero
// listens until ctx is done.
func (s *Impl) Listen(ctx context.Context, addr string, count int, handler Handler) error {
	conn, err := s.listenConfig.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.logger.Info().Str("address", conn.LocalAddr().String()).Msg("listening for WOL packets")

	t, _ := tomb.WithContext(ctx)
	t.Go(func() error {
		t.Go(func() error {
			<-t.Dying()
			return conn.Close()
		})
		return s.readLoop(t, conn, count, handler)
	})

	err = t.Wait()
	switch {
	case err == nil, errors.Is(err, errCountReached):
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Debug().Err(err).Msg("listener stopped")
		return nil
	default:
		return err
	}
}

func (s *Impl) readLoop(t *tomb.Tomb, conn net.PacketConn, count int, handler Handler) error {
	buf := make([]byte, readBufferSize)
	seen := 0

	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-t.Dying():
				return nil
			default:
				return fmt.Errorf("failed to read UDP message: %w", err)
			}
		}

		var p wol.MagicPacket
		if err := p.UnmarshalBinary(buf[:n]); err != nil {
			s.logger.Debug().Err(err).Str("source", src.String()).Int("size", n).Msg("ignoring non-WOL datagram")
			continue
		}

		target, err := mac.FromHardwareAddr(p.Target)
		if err != nil {
			s.logger.Debug().Err(err).Str("source", src.String()).Msg("ignoring magic packet with unsupported target")
			continue
		}

		pkt := models.ReceivedPacket{
			Target: target.String(),
			Source: src.String(),
			Size:   n,
		}
		s.logger.Info().Str("mac", pkt.Target).Str("source", pkt.Source).Msg("WOL packet received")
		if handler != nil {
			handler(pkt)
		}

		seen++
		if count > 0 && seen >= count {
			return errCountReached
		}
	}
}
