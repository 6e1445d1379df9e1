// Package hosts loads the static IP to MAC mapping used to resolve wake targets.
package hosts

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// Delimiter separates the IP and MAC fields of a mapping line.
	Delimiter = "#"
	// MaxRangeSize caps the number of addresses a single range may cover.
	MaxRangeSize = 1 << 16
)

var (
	// ErrLoad is returned when the mapping file cannot be read.
	ErrLoad = errors.New("failed to load hosts file")
	// ErrNotFound is returned when an IP has no MAC mapping.
	ErrNotFound = errors.New("no MAC address mapped for IP")
	// ErrInvalidRange is returned for malformed or reversed IP ranges.
	ErrInvalidRange = errors.New("invalid IP range")
)

// Entry is a single ip#mac mapping line.
type Entry struct {
	IP  string
	MAC string
}

// Table maps IP addresses to MAC addresses. It is read-only once loaded.
type Table struct {
	byIP    map[string]string
	entries []Entry
}

// Load reads a mapping file from path.
func Load(path string, logger zerolog.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(f, logger.With().Str("file", path).Logger())
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Parse reads ip#mac lines from r. Malformed lines are logged and skipped.
func Parse(r io.Reader, logger zerolog.Logger) (*Table, error) {
	t := &Table{byIP: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
			continue
		}

		fields := strings.Split(line, Delimiter)
		if len(fields) != 2 {
			logger.Warn().Int("line", lineNo).Str("content", line).Msg("skipping malformed mapping line")
			continue
		}
		ip, mac := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		if ip == "" || mac == "" {
			logger.Warn().Int("line", lineNo).Str("content", line).Msg("skipping mapping line with empty field")
			continue
		}

		if prev, ok := t.byIP[ip]; ok {
			logger.Warn().Int("line", lineNo).Str("ip", ip).Str("previous", prev).Str("mac", mac).Msg("duplicate IP, later mapping wins")
		}
		t.byIP[ip] = mac
		t.entries = append(t.entries, Entry{IP: ip, MAC: mac})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrLoad, lineNo, err)
	}

	logger.Debug().Int("entries", len(t.entries)).Msg("hosts table loaded")
	return t, nil
}

// FromEntries builds a table from entries in order.
func FromEntries(entries ...Entry) *Table {
	t := &Table{byIP: make(map[string]string, len(entries))}
	for _, e := range entries {
		t.byIP[e.IP] = e.MAC
		t.entries = append(t.entries, e)
	}
	return t
}

// Len returns the number of mapping lines.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the MAC address mapped to ip.
func (t *Table) Lookup(ip string) (string, error) {
	mac, ok := t.byIP[strings.TrimSpace(ip)]
	if !ok || mac == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ip)
	}
	return mac, nil
}

// MACs returns every MAC address in file order.
func (t *Table) MACs() []string {
	macs := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		macs = append(macs, e.MAC)
	}
	return macs
}

// IPs returns every distinct IP address in order of first appearance.
func (t *Table) IPs() []string {
	seen := make(map[string]bool, len(t.byIP))
	ips := make([]string, 0, len(t.byIP))
	for _, e := range t.entries {
		if seen[e.IP] {
			continue
		}
		seen[e.IP] = true
		ips = append(ips, e.IP)
	}
	return ips
}

// Range returns the MAC addresses for every IPv4 address from start to end
// inclusive, in ascending order. Any unmapped address fails the whole lookup.
func (t *Table) Range(start, end string) ([]string, error) {
	ips, err := Addresses(start, end)
	if err != nil {
		return nil, err
	}

	macs := make([]string, 0, len(ips))
	for _, ip := range ips {
		mac, err := t.Lookup(ip)
		if err != nil {
			return nil, err
		}
		macs = append(macs, mac)
	}
	return macs, nil
}

// Addresses enumerates the IPv4 addresses from start to end inclusive.
func Addresses(start, end string) ([]string, error) {
	first, err := parseIPv4(start)
	if err != nil {
		return nil, err
	}
	last, err := parseIPv4(end)
	if err != nil {
		return nil, err
	}
	if last.Less(first) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, first, last)
	}
	if size := uint64(toUint32(last)) - uint64(toUint32(first)) + 1; size > MaxRangeSize {
		return nil, fmt.Errorf("%w: %s-%s covers %d addresses, limit is %d", ErrInvalidRange, first, last, size, MaxRangeSize)
	}

	ips := make([]string, 0, toUint32(last)-toUint32(first)+1)
	for ip := first; ; ip = ip.Next() {
		ips = append(ips, ip.String())
		if ip == last {
			break
		}
	}
	return ips, nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %s is not an IPv4 address", ErrInvalidRange, s)
	}
	return addr, nil
}

func toUint32(addr netip.Addr) uint32 {
	return binary.BigEndian.Uint32(addr.AsSlice())
}
