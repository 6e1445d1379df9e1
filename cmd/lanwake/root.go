package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fgeck/lanwake/internal/services/runner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Configuration flags.
	configFile string
	hostsFile  string
	verbose    bool
	quiet      bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "lanwake",
	Short: "Wake machines on the local network with Wake-on-LAN magic packets",
	Long: `lanwake broadcasts Wake-on-LAN magic packets to machines listed in an
ip#mac mapping file. Targets can be selected as:
  - a single IP address (single)
  - every host in the mapping file (all)
  - an IPv4 address range (range)
  - explicit MAC addresses (mac)

Each packet is sent "repeat" times with "delay" milliseconds in between,
as configured in the properties file.

The legacy invocation "lanwake -all|-single|-range" is still accepted.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	Args: usageArgs(1, -1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("%w: unknown command %q, valid commands are all, single, range, mac, listen, shutdown, validate", runner.ErrUsage, args[0])
	},
	SilenceUsage: true,
	Version:      Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "wol.properties", "config file")
	rootCmd.PersistentFlags().StringVar(&hostsFile, "hosts", "", "ip#mac mapping file (overrides hostsfile)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output logs in JSON format")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", runner.ErrUsage, err)
	})

	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(singleCmd)
	rootCmd.AddCommand(rangeCmd)
	rootCmd.AddCommand(macCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(shutdownCmd)
	rootCmd.AddCommand(validateCmd)
}

func setupLogging() {
	// Set output format
	if jsonOutput {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set log level
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Execute runs the root command with args.
func Execute(args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
