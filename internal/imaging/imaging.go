// Package imaging bridges the strict bitmap codec and the standard image
// ecosystem: adapters to and from image.Image, nearest-neighbor resizing to
// flag dimensions, and palette-constrained dithering.
package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/KononK/resize"
	"github.com/esimov/colorquant"

	"github.com/SamJakob/MageArenaFlagEditor/core/bitmap"
)

// ToImage renders a decoded bitmap as a standard image.Image.
func ToImage(img *bitmap.Image[bitmap.RGB24]) image.Image {
	width, height := img.Width(), img.Height()
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p, _ := img.PixelAt(x, y)
			out.SetRGBA(x, y, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return out
}

// FromImage converts any image.Image into a bitmap. Alpha is dropped;
// non-opaque input is composited onto white first, since the BMP payload
// has no alpha channel.
func FromImage(src image.Image) (*bitmap.Image[bitmap.RGB24], error) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	flattened := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(flattened, flattened.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flattened, flattened.Bounds(), src, bounds.Min, draw.Over)

	pixels := make([]bitmap.RGB24, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := flattened.RGBAAt(x, y)
			pixels = append(pixels, bitmap.RGB24{R: c.R, G: c.G, B: c.B})
		}
	}
	return bitmap.New(int32(width), int32(height), pixels)
}

// Fit resizes the bitmap to the given dimensions with nearest-neighbor
// sampling, preserving the hard color edges flag art tends to have.
func Fit(img *bitmap.Image[bitmap.RGB24], width, height int) (*bitmap.Image[bitmap.RGB24], error) {
	resized := resize.Resize(uint(width), uint(height), ToImage(img), resize.NearestNeighbor)
	return FromImage(resized)
}

// floydSteinberg is the classic error-diffusion kernel. colorquant indexes
// the filter relative to its center column, so the matrix must have at least
// len(Filter[0])/2 rows below the current one; the zero row keeps the true
// Floyd-Steinberg weights while satisfying that shape.
var floydSteinberg = colorquant.Dither{
	Filter: [][]float32{
		{0, 0, 0, 7.0 / 16.0, 0},
		{0, 3.0 / 16.0, 5.0 / 16.0, 1.0 / 16.0, 0},
		{0, 0, 0, 0, 0},
	},
}

// Dither quantizes the bitmap down to the palette's color count with
// Floyd-Steinberg error diffusion, smoothing gradients before the per-pixel
// nearest-match mapping runs.
func Dither(img, palette *bitmap.Image[bitmap.RGB24]) (*bitmap.Image[bitmap.RGB24], error) {
	colors := distinctColorCount(palette)
	if colors < 2 {
		// A single-color palette maps everything to that color anyway.
		return img, nil
	}

	src := ToImage(img)
	dst := image.NewRGBA(src.Bounds())
	quantized := floydSteinberg.Quantize(src, dst, colors, true, true)
	return FromImage(quantized)
}

// distinctColorCount counts the unique colors in a palette image.
func distinctColorCount(palette *bitmap.Image[bitmap.RGB24]) int {
	seen := make(map[bitmap.RGB24]struct{}, len(palette.Pixels))
	for _, p := range palette.Pixels {
		seen[p] = struct{}{}
	}
	return len(seen)
}
