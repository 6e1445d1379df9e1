//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fgeck/lanwake/internal/hosts"
	"github.com/fgeck/lanwake/internal/metrics"
	"github.com/fgeck/lanwake/internal/models"
	"github.com/fgeck/lanwake/internal/services/listener"
	"github.com/fgeck/lanwake/internal/services/runner"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

// startListener runs a listener on 127.0.0.1:port until want packets arrive.
func startListener(t *testing.T, port, want int) (<-chan error, func() []models.ReceivedPacket) {
	t.Helper()

	var (
		mu       sync.Mutex
		received []models.ReceivedPacket
	)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		svc := listener.New(testLogger())
		done <- svc.Listen(ctx, fmt.Sprintf("127.0.0.1:%d", port), want, func(p models.ReceivedPacket) {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, p)
		})
	}()

	// Give the listener time to bind.
	time.Sleep(100 * time.Millisecond)

	return done, func() []models.ReceivedPacket {
		mu.Lock()
		defer mu.Unlock()
		return append([]models.ReceivedPacket(nil), received...)
	}
}

func TestWakeRange_RoundTrip_E2E(t *testing.T) {
	port := freeUDPPort(t)
	done, received := startListener(t, port, 6)

	table := hosts.FromEntries(
		hosts.Entry{IP: "192.168.0.10", MAC: "AA:BB:CC:DD:EE:01"},
		hosts.Entry{IP: "192.168.0.11", MAC: "AA:BB:CC:DD:EE:02"},
		hosts.Entry{IP: "192.168.0.12", MAC: "AA:BB:CC:DD:EE:03"},
	)
	cfg := models.SendConfig{Repeat: 2, Delay: 10 * time.Millisecond, BroadcastIP: "127.0.0.1", Port: port}
	recorder := metrics.New()

	svc := runner.New(testLogger(), table, cfg, recorder)
	summary, err := svc.Run(context.Background(), models.ModeRange, []string{"192.168.0.10", "192.168.0.12"})

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Woken)
	assert.Equal(t, 6, summary.PacketsSent)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not receive all packets")
	}

	var targets []string
	for _, p := range received() {
		assert.Equal(t, 102, p.Size)
		targets = append(targets, p.Target)
	}
	assert.Equal(t, []string{
		"aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:01",
		"aa:bb:cc:dd:ee:02", "aa:bb:cc:dd:ee:02",
		"aa:bb:cc:dd:ee:03", "aa:bb:cc:dd:ee:03",
	}, targets)
}

func TestWakeMAC_RoundTrip_E2E(t *testing.T) {
	port := freeUDPPort(t)
	done, received := startListener(t, port, 1)

	cfg := models.SendConfig{Repeat: 1, BroadcastIP: "127.0.0.1", Port: port}
	svc := runner.New(testLogger(), hosts.FromEntries(), cfg, metrics.New())

	_, err := svc.Run(context.Background(), models.ModeMAC, []string{"00-11-22-33-44-55"})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not receive the packet")
	}
	require.Len(t, received(), 1)
	assert.Equal(t, "00:11:22:33:44:55", received()[0].Target)
}

// RealWOL tests - only run if explicitly configured
func TestRealWOL_E2E(t *testing.T) {
	mac := os.Getenv("TEST_WOL_MAC")
	if mac == "" {
		t.Skip("TEST_WOL_MAC not set")
	}

	broadcast := os.Getenv("TEST_WOL_BROADCAST")
	if broadcast == "" {
		broadcast = models.DefaultBroadcastIP
	}
	port := models.DefaultPort
	if p := os.Getenv("TEST_WOL_PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		require.NoError(t, err)
	}

	cfg := models.SendConfig{Repeat: 3, Delay: 100 * time.Millisecond, BroadcastIP: broadcast, Port: port}
	svc := runner.New(testLogger(), hosts.FromEntries(), cfg, metrics.New())

	summary, err := svc.Run(context.Background(), models.ModeMAC, []string{mac})

	require.NoError(t, err)
	assert.Equal(t, 3, summary.PacketsSent)
}
