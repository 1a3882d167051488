package colors

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexToRGB(t *testing.T) {
	c, ok := HexToRGB("#00FF00")
	require.True(t, ok)
	require.Equal(t, RGB{R: 0, G: 1, B: 0}, c)

	c, ok = HexToRGB("ff0000")
	require.True(t, ok)
	require.Equal(t, RGB{R: 1, G: 0, B: 0}, c)
}

func TestHexToRGBMalformed(t *testing.T) {
	for _, hex := range []string{"", "#", "#FFF", "#GG0000", "#00FF00FF", "00FF0", "#+1FF00"} {
		_, ok := HexToRGB(hex)
		require.False(t, ok, hex)
		require.False(t, Valid(hex), hex)
	}
}

func TestRGBToHex(t *testing.T) {
	require.Equal(t, "#00FF00", RGBToHex(RGB{G: 1}))
	require.Equal(t, "#FF0000", RGBToHex(RGB{R: 2, G: -1}))
	require.Equal(t, "#808080", RGB{R: 0.5, G: 0.5, B: 0.5}.String())

	c, ok := HexToRGB("#ff00aa")
	require.True(t, ok)
	require.Equal(t, "#FF00AA", RGBToHex(c))
}

func TestHexRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for range 1000 {
		hex := RGBToHex(FromBytes(uint8(r.IntN(256)), uint8(r.IntN(256)), uint8(r.IntN(256))))

		c, ok := HexToRGB(hex)
		require.True(t, ok)
		require.Equal(t, hex, RGBToHex(c))

		c, ok = HexToRGB(strings.ToLower(hex))
		require.True(t, ok)
		require.Equal(t, hex, RGBToHex(c))
	}
}

func TestRGBRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))

	for range 1000 {
		c := RGB{R: r.Float64(), G: r.Float64(), B: r.Float64()}

		back, ok := HexToRGB(RGBToHex(c))
		require.True(t, ok)

		require.InDelta(t, c.R, back.R, 1.0/255)
		require.InDelta(t, c.G, back.G, 1.0/255)
		require.InDelta(t, c.B, back.B, 1.0/255)
	}
}

func TestBytes(t *testing.T) {
	r, g, b := FromBytes(12, 34, 56).Bytes()

	require.Equal(t, uint8(12), r)
	require.Equal(t, uint8(34), g)
	require.Equal(t, uint8(56), b)
}
