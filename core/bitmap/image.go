// Package bitmap implements a strict codec for a subset of the Windows
// bitmap (BMP) file format: 24-bit uncompressed RGB images with a 14-byte
// file header and a 40-byte information header.
//
// The codec is purely in-memory and performs no I/O. Decoding validates
// eagerly and never constructs a partial image; encoding a valid image
// cannot fail. Padding is always recomputed from the live pixel grid, so an
// image whose stored headers disagree with its content self-corrects on
// re-encode.
package bitmap

import (
	"fmt"
	"math"
	"strings"

	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

// PixelError records the failure to decode one pixel during a full-image
// scan.
type PixelError struct {
	Row int
	Col int
	Err error
}

func (e PixelError) Error() string {
	return fmt.Sprintf("pixel (%d, %d): %v", e.Col, e.Row, e.Err)
}

func (e PixelError) Unwrap() error { return e.Err }

// PixelErrors aggregates every per-pixel decode failure found while scanning
// an image. Decode never stops at the first bad pixel; it scans the whole
// payload and reports all failures at once.
type PixelErrors []PixelError

func (e PixelErrors) Error() string {
	msgs := make([]string, len(e))
	for i, pe := range e {
		msgs[i] = pe.Error()
	}
	return fmt.Sprintf("bad pixel data\n\n%s", strings.Join(msgs, "\n"))
}

// Unwrap marks the aggregate as an IllegalParameter-kind error.
func (e PixelErrors) Unwrap() error { return errors.ErrIllegalParameter }

// Image is a decoded bitmap: both headers plus the full pixel grid in
// row-major order. The pixel format is fixed by the type parameter; RGB24 is
// the only format implemented today, but the codec logic is format-agnostic.
type Image[P Pixel[P]] struct {
	format Format[P]

	// FileHeader and InfoHeader are the headers as decoded or derived.
	// Re-encoding recomputes sizes and padding from the pixel grid rather
	// than trusting these fields.
	FileHeader FileHeader
	InfoHeader InfoHeader

	// Pixels holds the full grid, row-major, length |width| * |height|.
	Pixels []P
}

// NewImage constructs an image in the given pixel format from explicit
// dimensions and a row-major pixel grid. The pixel count must equal
// |width| * |height|. The headers are derived: the pixel data offset is the
// fixed combined header size and the total size includes row padding.
func NewImage[P Pixel[P]](format Format[P], width, height int32, pixels []P) (*Image[P], error) {
	absWidth := absInt32(width)
	absHeight := absInt32(height)
	if uint64(len(pixels)) != uint64(absWidth)*uint64(absHeight) {
		return nil, errors.NewIllegal("pixels", "pixel length is not equal to width * height")
	}

	info := NewInfoHeader(format, width, height)
	headersSize := uint32(FileHeaderSize + InfoHeaderSize)
	_, paddedBytes := computePadding(uint64(len(pixels)), absHeight, format.BitsPerPixel())

	return &Image[P]{
		format:     format,
		FileHeader: NewFileHeader(headersSize+uint32(paddedBytes), headersSize),
		InfoHeader: info,
		Pixels:     pixels,
	}, nil
}

// DecodeImage parses a full bitmap file from data in the given pixel format.
//
// Every pixel in every row is attempted before reporting: individual pixel
// decode failures accumulate and are returned as one aggregated
// IllegalParameter error rather than halting the scan.
func DecodeImage[P Pixel[P]](format Format[P], data []byte) (*Image[P], error) {
	fileHeader, err := DecodeFileHeader(data)
	if err != nil {
		return nil, err
	}
	info, err := DecodeInfoHeader(data[FileHeaderSize:])
	if err != nil {
		return nil, err
	}

	absWidth := absInt32(info.Width)
	absHeight := absInt32(info.Height)
	bytesPerPixel := int(ceilDiv(uint32(info.BitsPerPixel), 8))
	pixelCount := uint64(absWidth) * uint64(absHeight)

	paddingPerRow, _ := computePadding(pixelCount, absHeight, info.BitsPerPixel)
	bytesPerRow := int(absWidth) * bytesPerPixel
	paddedRowWidth := uint64(bytesPerRow) + paddingPerRow

	if uint64(fileHeader.Offset) > uint64(len(data)) {
		return nil, errors.NewIllegal("pixel data offset", "points past the end of the buffer")
	}
	payload := data[fileHeader.Offset:]
	if uint64(len(payload)) < paddedRowWidth*uint64(absHeight) {
		return nil, errors.NewIllegal("pixel data", "truncated pixel payload")
	}

	// The payload covers every padded row, so the stride fits in an int.
	bytesPerPaddedRow := int(paddedRowWidth)

	pixels := make([]P, 0, pixelCount)
	var bad PixelErrors
	for y := 0; y < int(absHeight); y++ {
		row := payload[y*bytesPerPaddedRow : y*bytesPerPaddedRow+bytesPerRow]
		for x := 0; x < int(absWidth); x++ {
			pixel, err := format.Decode(row[x*bytesPerPixel : (x+1)*bytesPerPixel])
			if err != nil {
				bad = append(bad, PixelError{Row: y, Col: x, Err: err})
				continue
			}
			pixels = append(pixels, pixel)
		}
	}
	if len(bad) > 0 {
		return nil, bad
	}

	return &Image[P]{
		format:     format,
		FileHeader: fileHeader,
		InfoHeader: info,
		Pixels:     pixels,
	}, nil
}

// New constructs an RGB24 image. See NewImage.
func New(width, height int32, pixels []RGB24) (*Image[RGB24], error) {
	return NewImage[RGB24](RGB24Format{}, width, height, pixels)
}

// Decode parses an RGB24 bitmap file. See DecodeImage.
func Decode(data []byte) (*Image[RGB24], error) {
	return DecodeImage[RGB24](RGB24Format{}, data)
}

// Width returns the width of the image in pixels.
func (img *Image[P]) Width() int {
	return int(absInt32(img.InfoHeader.Width))
}

// Height returns the height of the image in pixels.
func (img *Image[P]) Height() int {
	return int(absInt32(img.InfoHeader.Height))
}

// RawWidth returns the signed width field as stored in the header.
func (img *Image[P]) RawWidth() int32 {
	return img.InfoHeader.Width
}

// RawHeight returns the signed height field as stored in the header.
// Negative means the rows are ordered top-to-bottom, positive bottom-to-top.
// The codec itself does not interpret the sign; it is passed through for
// downstream renderers.
func (img *Image[P]) RawHeight() int32 {
	return img.InfoHeader.Height
}

// PixelAt returns the pixel at the given coordinates, or false if the
// coordinates fall outside the image.
func (img *Image[P]) PixelAt(x, y int) (P, bool) {
	width := img.Width()
	if x < 0 || y < 0 || x >= width || y >= img.Height() {
		var zero P
		return zero, false
	}
	return img.Pixels[y*width+x], true
}

// NearestMatch scans every pixel in row-major order and returns the location
// of the pixel closest to target by the format's distance metric. Ties keep
// the first-encountered location. It returns false only when the image holds
// zero pixels.
func (img *Image[P]) NearestMatch(target P) (x, y int, ok bool) {
	width := img.Width()

	best := math.Inf(1)
	bestX, bestY := 0, 0
	found := false

	for i, pixel := range img.Pixels {
		if d := pixel.Distance(target); d < best {
			best = d
			bestX, bestY = i%width, i/width
			found = true
		}
	}
	return bestX, bestY, found
}

// Encode serializes the image into a complete bitmap file: file header,
// information header, then the row-padded pixel payload. Padding is
// recomputed from the live pixel grid; encoding a structurally valid image
// never fails.
func (img *Image[P]) Encode() []byte {
	absHeight := absInt32(img.InfoHeader.Height)
	paddingPerRow, paddedBytes := computePadding(uint64(len(img.Pixels)), absHeight, img.InfoHeader.BitsPerPixel)

	out := make([]byte, 0, FileHeaderSize+InfoHeaderSize+int(paddedBytes))
	out = append(out, img.FileHeader.Bytes()...)
	out = append(out, img.InfoHeader.Bytes()...)

	width := img.Width()
	padding := make([]byte, paddingPerRow)
	for start := 0; start < len(img.Pixels); start += width {
		for _, pixel := range img.Pixels[start : start+width] {
			out = append(out, pixel.Bytes()...)
		}
		out = append(out, padding...)
	}
	return out
}

// computePadding derives the per-row padding and total padded payload size.
// Every stored row must occupy a byte length that is a multiple of 4; the
// padding is trailing zero bytes. A zero height means zero rows, not a
// division by zero. The arithmetic stays in uint64 because a header can
// describe a pixel count beyond 2^32.
func computePadding(pixelCount uint64, absHeight uint32, bitsPerPixel uint16) (paddingPerRow, paddedBytesPerImage uint64) {
	if absHeight == 0 {
		return 0, 0
	}

	bytesPerImage := pixelCount * uint64(ceilDiv(uint32(bitsPerPixel), 8))
	bytesPerRow := bytesPerImage / uint64(absHeight)

	if remainder := bytesPerRow % 4; remainder != 0 {
		paddingPerRow = 4 - remainder
	}
	return paddingPerRow, (bytesPerRow + paddingPerRow) * uint64(absHeight)
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}

func absInt32(v int32) uint32 {
	if v < 0 {
		return uint32(-int64(v))
	}
	return uint32(v)
}
