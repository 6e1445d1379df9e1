package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fgeck/lanwake/internal/config"
	"github.com/fgeck/lanwake/internal/mac"
	"github.com/fgeck/lanwake/internal/services/runner"
	"github.com/fgeck/lanwake/internal/services/wol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHosts = `192.168.0.10#AA:BB:CC:DD:EE:01
192.168.0.11#AA:BB:CC:DD:EE:02
`

// testEnv writes a config and hosts file pointing at a loopback receiver.
func testEnv(t *testing.T, extra string) (string, net.PacketConn) {
	t.Helper()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	dir := t.TempDir()
	hostsPath := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(hostsPath, []byte(testHosts), 0o600))

	props := fmt.Sprintf("delay=0\nrepeat=2\nbroadcast=127.0.0.1\nport=%d\nhostsfile=%s\n%s",
		conn.LocalAddr().(*net.UDPAddr).Port, hostsPath, extra)
	cfgPath := filepath.Join(dir, "wol.properties")
	require.NoError(t, os.WriteFile(cfgPath, []byte(props), 0o600))

	return cfgPath, conn
}

// execute runs the CLI with args after resetting flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configFile, hostsFile = "wol.properties", ""
	verbose, quiet, jsonOutput = false, false, false
	listenAddr, listenCount, testOnly = ":9", 0, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	translated, err := translateLegacyArgs(args)
	if err != nil {
		return "", err
	}
	err = Execute(translated)
	return out.String(), err
}

func readPackets(t *testing.T, conn net.PacketConn, n int) [][]byte {
	t.Helper()
	var packets [][]byte
	buf := make([]byte, 256)
	for i := 0; i < n; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		size, _, err := conn.ReadFrom(buf)
		require.NoError(t, err)
		packets = append(packets, append([]byte(nil), buf[:size]...))
	}
	return packets
}

func magicPacket(t *testing.T, s string) []byte {
	t.Helper()
	packet, err := wol.BuildMagicPacket(mac.MustParse(s))
	require.NoError(t, err)
	return packet
}

func assertNoPackets(t *testing.T, conn net.PacketConn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := conn.ReadFrom(make([]byte, 256))
	assert.Error(t, err)
}

func TestRangeCommand_SendsPacketsInOrder(t *testing.T) {
	cfgPath, conn := testEnv(t, "")

	out, err := execute(t, "-q", "-c", cfgPath, "range", "192.168.0.10", "192.168.0.11")

	require.NoError(t, err)
	assert.Contains(t, out, "Woke 2 target(s), 4 packet(s) sent")

	packets := readPackets(t, conn, 4)
	first := magicPacket(t, "AA:BB:CC:DD:EE:01")
	second := magicPacket(t, "AA:BB:CC:DD:EE:02")
	assert.Equal(t, [][]byte{first, first, second, second}, packets)
}

func TestSingleCommand_UsesConfiguredIP(t *testing.T) {
	cfgPath, conn := testEnv(t, "singleip=192.168.0.11\n")

	_, err := execute(t, "-q", "-c", cfgPath, "single")
	require.NoError(t, err)

	packets := readPackets(t, conn, 2)
	assert.Equal(t, magicPacket(t, "AA:BB:CC:DD:EE:02"), packets[0])
}

func TestSingleCommand_UnmappedIP(t *testing.T) {
	cfgPath, conn := testEnv(t, "")

	_, err := execute(t, "-q", "-c", cfgPath, "single", "192.168.0.99")

	require.Error(t, err)
	assert.Equal(t, exitLookup, exitCode(err))
	assertNoPackets(t, conn)
}

func TestMacCommand_InvalidMAC(t *testing.T) {
	cfgPath, conn := testEnv(t, "")

	_, err := execute(t, "-q", "-c", cfgPath, "mac", "GG:BB:CC:DD:EE:FF")

	require.Error(t, err)
	assert.Equal(t, exitInvalidMAC, exitCode(err))
	assertNoPackets(t, conn)
}

func TestMacCommand_DoesNotNeedHostsFile(t *testing.T) {
	cfgPath, conn := testEnv(t, "")

	_, err := execute(t, "-q", "-c", cfgPath, "--hosts", filepath.Join(t.TempDir(), "missing.txt"), "mac", "01:02:03:04:05:06")

	require.NoError(t, err)
	packets := readPackets(t, conn, 2)
	assert.Len(t, packets[1], wol.MagicPacketSize)
}

func TestAllCommand_MissingHostsFile(t *testing.T) {
	cfgPath, _ := testEnv(t, "")

	_, err := execute(t, "-q", "-c", cfgPath, "--hosts", filepath.Join(t.TempDir(), "missing.txt"), "all")

	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestRangeCommand_WrongArity(t *testing.T) {
	cfgPath, _ := testEnv(t, "")

	_, err := execute(t, "-q", "-c", cfgPath, "range", "192.168.0.10")

	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestCommand_MissingConfig(t *testing.T) {
	_, err := execute(t, "-q", "-c", filepath.Join(t.TempDir(), "nope.properties"), "all")

	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestValidateCommand(t *testing.T) {
	cfgPath, _ := testEnv(t, "startip=192.168.0.10\nendip=192.168.0.11\n")

	out, err := execute(t, "-q", "-c", cfgPath, "validate")

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid!")
	assert.Contains(t, out, "Entries: 2")
	assert.Contains(t, out, "Range: 192.168.0.10 - 192.168.0.11")
	assert.Contains(t, out, "SSH Shutdown: false")
}

func TestShutdownCommand_RequiresSSHConfig(t *testing.T) {
	cfgPath, _ := testEnv(t, "")

	_, err := execute(t, "-q", "-c", cfgPath, "shutdown", "all")

	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestRoot_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		errText string
	}{
		{name: "no command", args: []string{}, errText: "got 0 arguments"},
		{name: "unknown command", args: []string{"bogus"}, errText: `unknown command "bogus"`},
		{name: "unknown shorthand flag", args: []string{"-bogus"}, errText: "unknown shorthand flag"},
		{name: "unknown long flag", args: []string{"--bogus"}, errText: "unknown flag"},
		{name: "unknown subcommand flag", args: []string{"all", "--nope"}, errText: "unknown flag"},
		{name: "flag without value", args: []string{"listen", "--count"}, errText: "flag needs an argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)

			require.Error(t, err)
			assert.ErrorIs(t, err, runner.ErrUsage)
			assert.Contains(t, err.Error(), tt.errText)
			assert.Equal(t, exitUsage, exitCode(err))
		})
	}
}

func TestValidateCommand_MissingConfig(t *testing.T) {
	out, err := execute(t, "-q", "-c", filepath.Join(t.TempDir(), "nope.properties"), "validate")

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrLoad)
	assert.Equal(t, exitConfig, exitCode(err))
	assert.NotContains(t, out, "Configuration is valid!")
}
