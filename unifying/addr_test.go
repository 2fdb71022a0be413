package unifying

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNrf24Addr(t *testing.T) {
	addr, err := ParseNrf24Addr("e2:c7:94:f2:4c")
	require.NoError(t, err)
	assert.Equal(t, testAddr, addr)
	assert.Equal(t, "e2:c7:94:f2:4c", addr.String())

	addr, err = ParseNrf24Addr("E2-C7-94")
	require.NoError(t, err)
	assert.Equal(t, Nrf24Addr{0xe2, 0xc7, 0x94}, addr)

	for _, s := range []string{"", "e2c794f24c", "e2:c7", "e2:c7:94:f2:4c:01", "e2:c7:94:f2:4"} {
		_, err = ParseNrf24Addr(s)
		assert.ErrorIs(t, err, ErrInvalidAddress, s)
	}
}

func TestNrf24AddrTransforms(t *testing.T) {
	addr := Nrf24Addr{0xe2, 0xc7, 0x94, 0xf2, 0x4c}

	assert.Equal(t, Nrf24Addr{0x4c, 0xf2, 0x94, 0xc7, 0xe2}, addr.Reverse())
	assert.Equal(t, Nrf24Addr{0xe2, 0xc7, 0x94, 0xf2, 0x00}, addr.DongleAddress())
	assert.Equal(t, Nrf24Addr{0xe2, 0xc7, 0x94, 0xf2, 0x4c}, addr, "transforms return copies")

	assert.Equal(t, Nrf24Addr{}, Nrf24Addr{}.DongleAddress())
	assert.Equal(t, "", Nrf24Addr(nil).String())
}
