// Package runner resolves wake targets and wakes them one after another.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fgeck/lanwake/internal/hosts"
	"github.com/fgeck/lanwake/internal/mac"
	"github.com/fgeck/lanwake/internal/metrics"
	"github.com/fgeck/lanwake/internal/models"
	"github.com/fgeck/lanwake/internal/services/wol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUsage is returned when a mode receives the wrong arguments.
var ErrUsage = errors.New("invalid usage")

// TargetTable resolves IP addresses to MAC addresses.
type TargetTable interface {
	Lookup(ip string) (string, error)
	MACs() []string
	Range(start, end string) ([]string, error)
}

// Service defines the interface for the wake runner.
type Service interface {
	Run(ctx context.Context, mode models.Mode, args []string) (*models.RunSummary, error)
}

// Impl implements the runner Service interface.
type Impl struct {
	table   TargetTable
	wolSvc  wol.Service
	metrics *metrics.Recorder
	logger  zerolog.Logger
	newID   func() string
}

// New creates a new runner service sending with cfg.
func New(logger zerolog.Logger, table TargetTable, cfg models.SendConfig, recorder *metrics.Recorder) *Impl {
	return NewWithServices(logger, table, wol.New(logger, cfg), recorder)
}

// NewWithServices creates a new runner service with a custom WOL service (for testing).
func NewWithServices(logger zerolog.Logger, table TargetTable, wolSvc wol.Service, recorder *metrics.Recorder) *Impl {
	if recorder == nil {
		recorder = metrics.New()
	}
	return &Impl{
		table:   table,
		wolSvc:  wolSvc,
		metrics: recorder,
		logger:  logger,
		newID:   func() string { return uuid.NewString() },
	}
}

// ResolveTargets returns the MAC addresses selected by mode and args.
//
//	single: args = [ip]
//	all:    args = []
//	range:  args = [startIP, endIP]
//	mac:    args = MAC addresses
func (s *Impl) ResolveTargets(mode models.Mode, args []string) ([]string, error) {
	switch mode {
	case models.ModeSingle:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: single mode takes one IP address, got %d", ErrUsage, len(args))
		}
		m, err := s.table.Lookup(args[0])
		if err != nil {
			return nil, err
		}
		return []string{m}, nil

	case models.ModeAll:
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: all mode takes no arguments, got %d", ErrUsage, len(args))
		}
		return s.table.MACs(), nil

	case models.ModeRange:
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: range mode takes a start and an end IP, got %d", ErrUsage, len(args))
		}
		return s.table.Range(args[0], args[1])

	case models.ModeMAC:
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: mac mode takes at least one MAC address", ErrUsage)
		}
		return append([]string(nil), args...), nil

	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrUsage, mode)
	}
}

// Run resolves the targets for mode and wakes them sequentially. Every
// target is resolved and validated before the first packet is sent; the
// first failing target stops the run.
func (s *Impl) Run(ctx context.Context, mode models.Mode, args []string) (*models.RunSummary, error) {
	start := time.Now()
	summary := &models.RunSummary{
		RunID: s.newID(),
		Mode:  mode,
	}
	logger := s.logger.With().Str("run_id", summary.RunID).Str("mode", string(mode)).Logger()

	defer func() {
		summary.Duration = time.Since(start)
		s.metrics.MarkRun(time.Now())
	}()

	targets, err := s.ResolveTargets(mode, args)
	if err != nil {
		s.metrics.SendErrors.WithLabelValues(errorKind(err)).Inc()
		logger.Error().Err(err).Strs("args", args).Msg("failed to resolve targets")
		return summary, err
	}

	for _, target := range targets {
		if _, err := mac.Parse(target); err != nil {
			s.metrics.SendErrors.WithLabelValues(errorKind(err)).Inc()
			logger.Error().Err(err).Str("mac", target).Msg("invalid MAC address in targets")
			return summary, fmt.Errorf("%w: %w", wol.ErrInvalidArgument, err)
		}
	}
	summary.Targets = targets

	logger.Info().Int("targets", len(targets)).Msg("starting wake run")

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Int("woken", summary.Woken).Msg("wake run cancelled")
			return summary, err
		}

		result, err := s.wolSvc.Wake(ctx, target)
		if result != nil {
			summary.Results = append(summary.Results, *result)
			summary.PacketsSent += result.PacketsSent
			s.metrics.PacketsSent.Add(float64(result.PacketsSent))
		}
		if err != nil {
			s.metrics.SendErrors.WithLabelValues(errorKind(err)).Inc()
			logger.Error().Err(err).Str("mac", target).Msg("failed to wake target")
			return summary, fmt.Errorf("waking %s: %w", target, err)
		}

		summary.Woken++
		s.metrics.TargetsWoken.Inc()
	}

	logger.Info().
		Int("woken", summary.Woken).
		Int("packets", summary.PacketsSent).
		Dur("duration", time.Since(start)).
		Msg("wake run completed")

	return summary, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrUsage):
		return "usage"
	case errors.Is(err, mac.ErrInvalidFormat), errors.Is(err, wol.ErrInvalidArgument):
		return "invalid_mac"
	case errors.Is(err, hosts.ErrNotFound), errors.Is(err, hosts.ErrInvalidRange):
		return "lookup"
	case errors.Is(err, wol.ErrTransport):
		return "transport"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
