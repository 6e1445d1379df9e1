package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and mapping files",
	Long:  `Validate the configuration file and the ip#mac mapping file without sending any packets.`,
	Args:  usageArgs(0, 0),
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	// Print configuration summary
	fmt.Fprintln(out, "Configuration is valid!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Send Settings:")
	fmt.Fprintf(out, "  Broadcast: %s:%d\n", cfg.Send.BroadcastIP, cfg.Send.Port)
	fmt.Fprintf(out, "  Repeat: %d\n", cfg.Send.Repeat)
	fmt.Fprintf(out, "  Delay: %s\n", cfg.Send.Delay)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Hosts:")
	fmt.Fprintf(out, "  File: %s\n", cfg.HostsFile)
	fmt.Fprintf(out, "  Entries: %d\n", table.Len())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Targets:")
	fmt.Fprintf(out, "  Single IP: %s\n", valueOrUnset(cfg.SingleIP))
	fmt.Fprintf(out, "  Range: %s - %s\n", valueOrUnset(cfg.StartIP), valueOrUnset(cfg.EndIP))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Optional Features:")
	fmt.Fprintf(out, "  Metrics file: %s\n", valueOrUnset(cfg.MetricsFile))
	fmt.Fprintf(out, "  SSH Shutdown: %v\n", cfg.SSH != nil)
	fmt.Fprintf(out, "  Telegram: %v\n", cfg.Telegram != nil)

	if cfg.SSH != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "SSH Shutdown Configuration:")
		fmt.Fprintf(out, "  Port: %d\n", cfg.SSH.Port)
		fmt.Fprintf(out, "  Username: %s\n", cfg.SSH.Username)
		fmt.Fprintf(out, "  OS: %s\n", cfg.SSH.OS)
		fmt.Fprintf(out, "  Shutdown Delay: %d minute(s)\n", cfg.SSH.ShutdownDelay)
	}

	return nil
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
