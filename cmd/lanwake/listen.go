package main

import (
	"fmt"

	"github.com/fgeck/lanwake/internal/models"
	"github.com/fgeck/lanwake/internal/services/listener"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	listenAddr  string
	listenCount int
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print Wake-on-LAN packets received on this host",
	Long: `Listen for magic packets and print the MAC address each one targets.
Run it on a machine in the target segment to check that broadcasts from
lanwake reach it. Binding port 9 usually needs elevated privileges.`,
	Args: usageArgs(0, 0),
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVar(&listenAddr, "addr", ":9", "UDP address to listen on")
	listenCmd.Flags().IntVarP(&listenCount, "count", "n", 0, "exit after this many packets (0 = until interrupted)")
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	svc := listener.New(log.Logger)
	err := svc.Listen(ctx, listenAddr, listenCount, func(p models.ReceivedPacket) {
		fmt.Fprintf(out, "WOL packet for %s received from %s\n", p.Target, p.Source)
	})
	if err != nil {
		log.Error().Err(err).Str("addr", listenAddr).Msg("listener failed")
		return err
	}
	return nil
}
