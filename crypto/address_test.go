package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	var raw [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr := NewAddress(raw)
	encoded := addr.String()
	require.True(t, strings.HasPrefix(encoded, AddressPrefix+"1"))

	decoded, err := DecodeAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, decoded.Bytes())
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	_, err := DecodeAddress("nhb1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqsxpjcr")
	require.Error(t, err)
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	_, err := DecodeAddress("not-an-address")
	require.Error(t, err)
}
