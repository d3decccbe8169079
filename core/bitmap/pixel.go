package bitmap

import (
	"encoding/hex"
	"math"

	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

// Pixel is the capability surface a pixel variant provides to the codec.
// The type parameter ties Distance to the concrete variant so that images
// of different pixel formats cannot be compared by accident.
type Pixel[P any] interface {
	// Bytes serializes the pixel into its wire form.
	Bytes() []byte

	// IsBlack reports whether the pixel represents pure black.
	IsBlack() bool

	// IsWhite reports whether the pixel represents pure white.
	IsWhite() bool

	// Distance returns the Euclidean distance between this pixel and other.
	// The value is unnormalized and only meaningful for relative comparison.
	Distance(other P) float64
}

// Format describes a pixel encoding understood by the codec. RGB24Format is
// the only variant today; a 32-bit variant would implement Format without
// any change to the generic codec logic.
type Format[P Pixel[P]] interface {
	// BitsPerPixel is the width of one encoded pixel in bits.
	BitsPerPixel() uint16

	// PixelsPerMeter is the print resolution recorded in information
	// headers derived for this format.
	PixelsPerMeter() int32

	// Decode parses exactly one pixel from its wire form.
	Decode(data []byte) (P, error)
}

// RGB24 is a 24-bit pixel with one byte per RGB channel.
type RGB24 struct {
	R, G, B uint8
}

// RGB24Format is the pixel format descriptor for RGB24.
type RGB24Format struct{}

// BitsPerPixel returns 24.
func (RGB24Format) BitsPerPixel() uint16 { return 24 }

// PixelsPerMeter returns 2835, the conventional 72 DPI print resolution.
func (RGB24Format) PixelsPerMeter() int32 { return 2835 }

// Decode parses one RGB24 pixel from its 3-byte wire form.
func (RGB24Format) Decode(data []byte) (RGB24, error) {
	return FromBytes(data)
}

// FromBytes builds an RGB24 pixel from exactly 3 bytes in R, G, B order.
func FromBytes(data []byte) (RGB24, error) {
	if len(data) != 3 {
		return RGB24{}, errors.NewIllegal("pixel", "expected exactly 3 bytes for a pixel")
	}
	return RGB24{R: data[0], G: data[1], B: data[2]}, nil
}

// ParseHex builds an RGB24 pixel from a 7-character "#RRGGBB" string.
func ParseHex(s string) (RGB24, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB24{}, errors.NewIllegal("hex color", `expected "#RRGGBB" where each digit is hexadecimal`)
	}
	raw, err := hex.DecodeString(s[1:])
	if err != nil {
		return RGB24{}, errors.NewIllegal("hex color", `expected "#RRGGBB" where each digit is hexadecimal`)
	}
	return RGB24{R: raw[0], G: raw[1], B: raw[2]}, nil
}

// MustHex is like ParseHex but panics on a malformed literal. It is intended
// for built-in color tables and tests, where a bad literal is a programming
// error that should abort at startup.
func MustHex(s string) RGB24 {
	p, err := ParseHex(s)
	if err != nil {
		panic("bitmap: MustHex(" + s + "): " + err.Error())
	}
	return p
}

// FromHSV converts hue, saturation and value to an RGB24 pixel.
//
// The permitted domains are:
//   - hue: 0.0 <= hue < 1.0
//   - saturation: 0.0 <= saturation <= 1.0
//   - value: 0.0 <= value <= 1.0
//
// The conversion scales hue to degrees and selects the channel triple by its
// 60-degree sector, per the rapidtables.com HSV-to-RGB formulation.
func FromHSV(hue, saturation, value float64) (RGB24, error) {
	// The checks are written in affirmative form so that NaN fails them.
	if !(hue >= 0 && hue < 1) {
		return RGB24{}, errors.NewIllegal("hue", "must be in the range of [0.0, 1.0)")
	}
	if !(saturation >= 0 && saturation <= 1) {
		return RGB24{}, errors.NewIllegal("saturation", "must be in range of [0.0, 1.0]")
	}
	if !(value >= 0 && value <= 1) {
		return RGB24{}, errors.NewIllegal("value", "must be in range of [0.0, 1.0]")
	}

	deg := hue * 360

	c := value * saturation
	x := c * (1 - math.Abs(float64(int(deg/60)%2-1)))
	m := value - c

	var r, g, b float64
	switch {
	case deg < 60:
		r, g, b = c, x, 0
	case deg < 120:
		r, g, b = x, c, 0
	case deg < 180:
		r, g, b = 0, c, x
	case deg < 240:
		r, g, b = 0, x, c
	case deg < 300:
		r, g, b = x, 0, c
	case deg < 360:
		r, g, b = c, 0, x
	default:
		return RGB24{}, errors.NewIllegal("hue", "exceeded range [0, 360)")
	}

	return RGB24{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
	}, nil
}

// Bytes serializes the pixel as 3 bytes in R, G, B order.
func (p RGB24) Bytes() []byte {
	return []byte{p.R, p.G, p.B}
}

// IsBlack reports whether all channels are 0.
func (p RGB24) IsBlack() bool {
	return p.R == 0 && p.G == 0 && p.B == 0
}

// IsWhite reports whether all channels are 255.
func (p RGB24) IsWhite() bool {
	return p.R == 255 && p.G == 255 && p.B == 255
}

// Distance returns the Euclidean distance between p and other across the
// three channels.
func (p RGB24) Distance(other RGB24) float64 {
	dr := float64(other.R) - float64(p.R)
	dg := float64(other.G) - float64(p.G)
	db := float64(other.B) - float64(p.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
