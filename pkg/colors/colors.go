package colors

import (
	"fmt"
	"math"
	"strconv"
)

// RGB holds color components normalized to [0, 1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// HexToRGB parses "#RRGGBB". The leading '#' is optional. It reports false for
// anything else.
func HexToRGB(hex string) (RGB, bool) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return RGB{}, false
	}

	var channels [3]uint8

	for i := range channels {
		val, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)

		if err != nil {
			return RGB{}, false
		}

		channels[i] = uint8(val)
	}

	return FromBytes(channels[0], channels[1], channels[2]), true
}

// RGBToHex formats c as "#RRGGBB" with uppercase digits.
func RGBToHex(c RGB) string {
	r, g, b := c.Bytes()
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

func FromBytes(r, g, b uint8) RGB {
	return RGB{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}
}

func (c RGB) Bytes() (uint8, uint8, uint8) {
	return toByte(c.R), toByte(c.G), toByte(c.B)
}

func (c RGB) String() string {
	return RGBToHex(c)
}

// Valid reports whether hex is a well-formed "#RRGGBB" color.
func Valid(hex string) bool {
	_, ok := HexToRGB(hex)
	return ok
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}

	if v >= 1 {
		return 255
	}

	return uint8(math.Round(v * 255))
}
