package efidecompress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitReaderPrimesFirst32Bits(t *testing.T) {
	var br bitReader
	br.reset([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01})

	require.Equal(t, uint32(0xDEADBEEF), br.bitBuf)
	require.Equal(t, 4, br.consumed())
}

func TestBitReaderArbitraryWidths(t *testing.T) {
	var br bitReader
	br.reset([]byte{0b10110011, 0b01011100, 0xFF, 0x00, 0x80})

	require.Equal(t, uint32(0b1), br.getBits(1))
	require.Equal(t, uint32(0b011), br.getBits(3))
	require.Equal(t, uint32(0b0011010), br.peek(7))
	require.Equal(t, uint32(0b0011010111), br.getBits(10))
	require.Equal(t, uint32(0b00_11111111_000000), br.getBits(16))
	require.Equal(t, uint32(0b00), br.getBits(2))
	require.Equal(t, uint32(0b1), br.getBits(1))
}

func TestBitReaderZeroPadsPastEnd(t *testing.T) {
	var br bitReader
	br.reset([]byte{0xFF})

	require.Equal(t, uint32(0xFF000000), br.bitBuf)
	require.Equal(t, uint32(0xFF), br.getBits(8))
	for i := 0; i < 10; i++ {
		require.Equal(t, uint32(0), br.getBits(16))
	}
	require.Equal(t, 1, br.consumed())
}

func TestBitReaderEmptySource(t *testing.T) {
	var br bitReader
	br.reset(nil)

	require.Equal(t, uint32(0), br.bitBuf)
	require.Equal(t, uint32(0), br.getBits(16))
}
