package main

import (
	"fmt"

	"github.com/fgeck/lanwake/internal/config"
	"github.com/fgeck/lanwake/internal/hosts"
	"github.com/fgeck/lanwake/internal/models"
	"github.com/fgeck/lanwake/internal/services/runner"
	"github.com/fgeck/lanwake/internal/services/ssh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var testOnly bool

var shutdownCmd = &cobra.Command{
	Use:   "shutdown <all|single|range> [ip...]",
	Short: "Shut down mapped hosts over SSH",
	Long: `Shut down hosts from the mapping file over SSH, selected the same way
as the wake commands. Requires the ssh.* keys in the config file.
Use --test to only check that each host accepts the SSH key.`,
	Args: usageArgs(1, 3),
	RunE: runShutdown,
}

func init() {
	shutdownCmd.Flags().BoolVar(&testOnly, "test", false, "only test SSH connectivity")
}

// shutdownHosts returns the IP addresses selected by mode. Every address
// must be present in the mapping table.
func shutdownHosts(table *hosts.Table, mode models.Mode, args []string) ([]string, error) {
	switch mode {
	case models.ModeAll:
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: all takes no arguments", runner.ErrUsage)
		}
		return table.IPs(), nil
	case models.ModeSingle:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: single takes one IP address", runner.ErrUsage)
		}
		if _, err := table.Lookup(args[0]); err != nil {
			return nil, err
		}
		return args, nil
	case models.ModeRange:
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: range takes a start and an end IP", runner.ErrUsage)
		}
		if _, err := table.Range(args[0], args[1]); err != nil {
			return nil, err
		}
		return hosts.Addresses(args[0], args[1])
	default:
		return nil, fmt.Errorf("%w: unknown shutdown mode %q", runner.ErrUsage, mode)
	}
}

func runShutdown(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.SSH == nil {
		err := fmt.Errorf("%w: ssh is not configured", config.ErrLoad)
		log.Error().Err(err).Msg("cannot shut down hosts")
		return err
	}

	mode := models.Mode(args[0])
	targets, err := targetArgs(mode, args[1:], cfg)
	if err != nil {
		log.Error().Err(err).Msg("missing shutdown target")
		return err
	}

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	ips, err := shutdownHosts(table, mode, targets)
	if err != nil {
		log.Error().Err(err).Strs("args", targets).Msg("failed to resolve hosts")
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := ssh.New(log.Logger)
	out := cmd.OutOrStdout()

	if testOnly {
		failed := 0
		for _, ip := range ips {
			hostCfg := *cfg.SSH
			hostCfg.Host = ip
			result, err := svc.TestConnection(ctx, hostCfg)
			if err == nil {
				err = result.Error
			}
			if err != nil {
				failed++
				log.Error().Err(err).Str("host", ip).Msg("SSH connection test failed")
				continue
			}
			fmt.Fprintf(out, "%s: OK\n", ip)
		}
		if failed > 0 {
			return fmt.Errorf("%w: %d of %d host(s) unreachable", ssh.ErrShutdown, failed, len(ips))
		}
		return nil
	}

	results, err := svc.ShutdownHosts(ctx, *cfg.SSH, ips)
	for _, r := range results {
		if r.Error == nil {
			fmt.Fprintf(out, "%s: shutdown scheduled\n", r.Host)
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		return err
	}
	return nil
}
