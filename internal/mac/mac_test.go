package mac

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	want := Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	tests := []struct {
		name  string
		input string
	}{
		{name: "upper colon", input: "AA:BB:CC:DD:EE:FF"},
		{name: "lower hyphen", input: "aa-bb-cc-dd-ee-ff"},
		{name: "mixed case", input: "aA:Bb:cC:dD:Ee:fF"},
		{name: "mixed separators", input: "aa:bb-cc:dd-ee:ff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParse_SingleDigitGroups(t *testing.T) {
	got, err := Parse("0:1:2:a:b:c")

	require.NoError(t, err)
	assert.Equal(t, Address{0x00, 0x01, 0x02, 0x0A, 0x0B, 0x0C}, got)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "too few groups", input: "AA:BB:CC"},
		{name: "too many groups", input: "AA:BB:CC:DD:EE:FF:00"},
		{name: "non hex", input: "GG:BB:CC:DD:EE:FF"},
		{name: "out of byte range", input: "100:BB:CC:DD:EE:FF"},
		{name: "empty group", input: "AA::CC:DD:EE:FF"},
		{name: "signed group", input: "+A:BB:CC:DD:EE:FF"},
		{name: "dotted form", input: "aabb.ccdd.eeff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("not-a-mac") })
	assert.NotPanics(t, func() { MustParse("01:02:03:04:05:06") })
}

func TestAddress_String(t *testing.T) {
	addr := MustParse("AA-BB-CC-DD-EE-0F")
	assert.Equal(t, "aa:bb:cc:dd:ee:0f", addr.String())
}

func TestAddress_HardwareAddrRoundTrip(t *testing.T) {
	addr := MustParse("52:54:00:12:34:56")

	hw := addr.HardwareAddr()
	expected, _ := net.ParseMAC("52:54:00:12:34:56")
	assert.Equal(t, expected, hw)

	back, err := FromHardwareAddr(hw)
	require.NoError(t, err)
	assert.Equal(t, addr, back)
}

func TestFromHardwareAddr_WrongLength(t *testing.T) {
	hw, _ := net.ParseMAC("00:00:5e:00:53:01:02:03")

	_, err := FromHardwareAddr(hw)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
