package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fgeck/lanwake/internal/hosts"
	"github.com/fgeck/lanwake/internal/metrics"
	"github.com/fgeck/lanwake/internal/models"
	"github.com/fgeck/lanwake/internal/services/runner"
	"github.com/fgeck/lanwake/internal/services/telegram"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Wake every host in the mapping file",
	Args:  usageArgs(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWake(cmd, models.ModeAll, args)
	},
}

var singleCmd = &cobra.Command{
	Use:   "single [ip]",
	Short: "Wake the host mapped to one IP address",
	Long:  `Wake the host mapped to the given IP address, or to "singleip" from the config file.`,
	Args:  usageArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWake(cmd, models.ModeSingle, args)
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range [start end]",
	Short: "Wake every host in an IPv4 address range",
	Long: `Wake every host from start to end inclusive, or from "startip" to "endip"
from the config file. Every address in the range must be in the mapping file;
if one is missing nothing is sent.`,
	Args: usageArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWake(cmd, models.ModeRange, args)
	},
}

var macCmd = &cobra.Command{
	Use:   "mac <mac>...",
	Short: "Wake hosts by MAC address",
	Args:  usageArgs(1, -1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWake(cmd, models.ModeMAC, args)
	},
}

// usageArgs accepts between minArgs and maxArgs positional arguments; a
// negative maxArgs means no upper bound.
func usageArgs(minArgs, maxArgs int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
			return fmt.Errorf("%w: %s got %d arguments", runner.ErrUsage, cmd.Name(), len(args))
		}
		return nil
	}
}

// targetArgs fills in arguments from the config file when none were given.
func targetArgs(mode models.Mode, args []string, cfg *models.Config) ([]string, error) {
	if len(args) > 0 {
		if mode == models.ModeRange && len(args) != 2 {
			return nil, fmt.Errorf("%w: range takes a start and an end IP", runner.ErrUsage)
		}
		return args, nil
	}

	switch mode {
	case models.ModeSingle:
		if cfg.SingleIP == "" {
			return nil, fmt.Errorf("%w: no IP given and singleip is not configured", runner.ErrUsage)
		}
		return []string{cfg.SingleIP}, nil
	case models.ModeRange:
		if cfg.StartIP == "" || cfg.EndIP == "" {
			return nil, fmt.Errorf("%w: no range given and startip/endip are not configured", runner.ErrUsage)
		}
		return []string{cfg.StartIP, cfg.EndIP}, nil
	default:
		return args, nil
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func runWake(cmd *cobra.Command, mode models.Mode, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	args, err = targetArgs(mode, args, cfg)
	if err != nil {
		log.Error().Err(err).Msg("missing wake target")
		return err
	}

	table := hosts.FromEntries()
	if mode != models.ModeMAC {
		if table, err = loadTable(cfg); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	recorder := metrics.New()
	runnerSvc := runner.New(log.Logger, table, cfg.Send, recorder)
	summary, runErr := runnerSvc.Run(ctx, mode, args)

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Msg("failed to write metrics")
		}
	}

	if cfg.Telegram != nil {
		notify(telegram.New(log.Logger), *cfg.Telegram, start, summary, runErr)
	}

	if runErr != nil {
		log.Error().Err(runErr).Str("run_id", summary.RunID).Msg("wake failed")
		return runErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Woke %d target(s), %d packet(s) sent\n", summary.Woken, summary.PacketsSent)
	return nil
}

// notify reports a finished run. Delivery problems are logged and never
// change the outcome of the run.
func notify(svc telegram.Service, cfg models.TelegramConfig, start time.Time, summary *models.RunSummary, runErr error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	// The run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg := telegram.MessageFromSummary(host, start, summary, runErr)
	result, err := svc.SendNotification(ctx, cfg, msg)
	if err != nil {
		log.Warn().Err(err).Msg("failed to send notification")
		return
	}
	if result.Error != nil {
		log.Warn().Err(result.Error).Msg("failed to send notification")
	}
}
