package bitmap

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	codecerr "github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

// solid builds a width*height pixel grid filled with one color.
func solid(width, height int, p RGB24) []RGB24 {
	pixels := make([]RGB24, width*height)
	for i := range pixels {
		pixels[i] = p
	}
	return pixels
}

func TestComputePadding(t *testing.T) {
	tests := []struct {
		name        string
		pixelCount  uint64
		height      uint32
		wantPadding uint64
		wantPadded  uint64
	}{
		{name: "3x2 needs 3 bytes", pixelCount: 3 * 2, height: 2, wantPadding: 3, wantPadded: 24},
		{name: "4x2 needs none", pixelCount: 4 * 2, height: 2, wantPadding: 0, wantPadded: 24},
		{name: "1x1 needs 1 byte", pixelCount: 1, height: 1, wantPadding: 1, wantPadded: 4},
		{name: "2x3 needs 2 bytes", pixelCount: 2 * 3, height: 3, wantPadding: 2, wantPadded: 24},
		{name: "zero height", pixelCount: 0, height: 0, wantPadding: 0, wantPadded: 0},
		{
			// 131073x65536: the pixel count exceeds 2^32, so 32-bit
			// arithmetic would wrap and misplace the padding.
			name:        "pixel count beyond 32 bits",
			pixelCount:  131073 * 65536,
			height:      65536,
			wantPadding: 1,
			wantPadded:  (131073*3 + 1) * 65536,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			padding, padded := computePadding(tt.pixelCount, tt.height, 24)
			if padding != tt.wantPadding || padded != tt.wantPadded {
				t.Errorf("computePadding(%d, %d) = (%d, %d); want (%d, %d)",
					tt.pixelCount, tt.height, padding, padded, tt.wantPadding, tt.wantPadded)
			}
		})
	}
}

func TestNewValidatesPixelCount(t *testing.T) {
	if _, err := New(2, 2, make([]RGB24, 3)); !errors.Is(err, codecerr.ErrIllegalParameter) {
		t.Errorf("New(2, 2, 3 pixels) error = %v; want IllegalParameter", err)
	}
}

func TestNewDerivesHeaders(t *testing.T) {
	img, err := New(3, 2, solid(3, 2, RGB24{R: 1}))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	if img.FileHeader.Offset != 54 {
		t.Errorf("pixel data offset = %d; want 54", img.FileHeader.Offset)
	}
	// 54 header bytes + 2 rows of 9+3 padded bytes.
	if img.FileHeader.Size != 54+24 {
		t.Errorf("total size = %d; want 78", img.FileHeader.Size)
	}
	if img.InfoHeader.Width != 3 || img.InfoHeader.Height != 2 {
		t.Errorf("dimensions = %dx%d; want 3x2", img.InfoHeader.Width, img.InfoHeader.Height)
	}
	if img.InfoHeader.BitsPerPixel != 24 || img.InfoHeader.ColorPlaneCount != 1 {
		t.Errorf("format fields = %d bpp, %d planes; want 24, 1", img.InfoHeader.BitsPerPixel, img.InfoHeader.ColorPlaneCount)
	}
}

func TestEncodeLayout(t *testing.T) {
	// 2x2 image, distinct pixels, rows need 2 padding bytes each.
	pixels := []RGB24{
		{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6},
		{R: 7, G: 8, B: 9}, {R: 10, G: 11, B: 12},
	}
	img, err := New(2, 2, pixels)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	data := img.Encode()
	wantPayload := []byte{
		1, 2, 3, 4, 5, 6, 0, 0, // row 0 + padding
		7, 8, 9, 10, 11, 12, 0, 0, // row 1 + padding
	}
	if !bytes.Equal(data[54:], wantPayload) {
		t.Errorf("payload = % X; want % X", data[54:], wantPayload)
	}
	if len(data) != int(img.FileHeader.Size) {
		t.Errorf("encoded length = %d; want header size %d", len(data), img.FileHeader.Size)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		width  int32
		height int32
	}{
		{name: "padded rows", width: 3, height: 2},
		{name: "aligned rows", width: 4, height: 2},
		{name: "single pixel", width: 1, height: 1},
		{name: "flag dimensions", width: 100, height: 66},
		{name: "negative height", width: 3, height: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := int(tt.width)
			h := int(tt.height)
			if h < 0 {
				h = -h
			}
			pixels := make([]RGB24, w*h)
			for i := range pixels {
				pixels[i] = RGB24{R: uint8(i), G: uint8(i * 3), B: uint8(255 - i)}
			}

			original, err := New(tt.width, tt.height, pixels)
			if err != nil {
				t.Fatalf("New error = %v", err)
			}
			decoded, err := Decode(original.Encode())
			if err != nil {
				t.Fatalf("Decode(Encode()) error = %v", err)
			}

			if decoded.FileHeader != original.FileHeader {
				t.Errorf("file header mismatch:\n got %+v\nwant %+v", decoded.FileHeader, original.FileHeader)
			}
			if decoded.InfoHeader != original.InfoHeader {
				t.Errorf("info header mismatch:\n got %+v\nwant %+v", decoded.InfoHeader, original.InfoHeader)
			}
			if len(decoded.Pixels) != len(original.Pixels) {
				t.Fatalf("pixel count = %d; want %d", len(decoded.Pixels), len(original.Pixels))
			}
			for i := range original.Pixels {
				if decoded.Pixels[i] != original.Pixels[i] {
					t.Fatalf("pixel %d = %v; want %v", i, decoded.Pixels[i], original.Pixels[i])
				}
			}
		})
	}
}

func TestDecodeBadMagic(t *testing.T) {
	img, err := New(2, 2, solid(2, 2, RGB24{}))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	data := img.Encode()
	data[0], data[1] = 'P', 'K'

	if _, err := Decode(data); !errors.Is(err, codecerr.ErrIllegalParameter) {
		t.Errorf("Decode error = %v; want IllegalParameter", err)
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	img, err := New(3, 2, solid(3, 2, RGB24{R: 9}))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	data := img.Encode()

	if _, err := Decode(data[:len(data)-5]); !errors.Is(err, codecerr.ErrIllegalParameter) {
		t.Errorf("Decode of truncated payload error = %v; want IllegalParameter", err)
	}
}

func TestDecodeOffsetPastEnd(t *testing.T) {
	img, err := New(2, 2, solid(2, 2, RGB24{}))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	img.FileHeader.Offset = 10_000
	data := img.FileHeader.Bytes()
	data = append(data, img.InfoHeader.Bytes()...)

	if _, err := Decode(data); !errors.Is(err, codecerr.ErrIllegalParameter) {
		t.Errorf("Decode error = %v; want IllegalParameter", err)
	}
}

func TestDecodeSelfCorrectsStaleHeaders(t *testing.T) {
	// An image whose stored totalSize disagrees with its content re-encodes
	// from the live pixel grid; the stale header field is carried as-is.
	img, err := New(3, 2, solid(3, 2, RGB24{G: 7}))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	img.FileHeader.Size = 9999

	data := img.Encode()
	// Payload length still reflects the real padded grid.
	if len(data) != 54+24 {
		t.Errorf("encoded length = %d; want 78", len(data))
	}
}

func TestDecodeAccumulatesPixelErrors(t *testing.T) {
	// A format whose Decode rejects a marker byte, to exercise batching. The
	// codec must scan every pixel and report all failures at once.
	format := rejectFF{}
	pixels := []RGB24{
		{R: 0xFF}, {R: 1},
		{R: 2}, {R: 0xFF},
	}
	img, err := NewImage[RGB24](format, 2, 2, pixels)
	if err != nil {
		t.Fatalf("NewImage error = %v", err)
	}

	_, err = DecodeImage[RGB24](format, img.Encode())
	if err == nil {
		t.Fatal("DecodeImage succeeded; want aggregated pixel errors")
	}
	if !errors.Is(err, codecerr.ErrIllegalParameter) {
		t.Errorf("aggregated error = %v; want IllegalParameter kind", err)
	}

	var agg PixelErrors
	if !errors.As(err, &agg) {
		t.Fatalf("error %T does not unwrap to PixelErrors", err)
	}
	if len(agg) != 2 {
		t.Fatalf("aggregated %d failures; want 2", len(agg))
	}
	if agg[0].Row != 0 || agg[0].Col != 0 {
		t.Errorf("first failure at (%d, %d); want (0, 0)", agg[0].Col, agg[0].Row)
	}
	if agg[1].Row != 1 || agg[1].Col != 1 {
		t.Errorf("second failure at (%d, %d); want (1, 1)", agg[1].Col, agg[1].Row)
	}
	if lines := strings.Count(err.Error(), "\n"); lines < 3 {
		t.Errorf("aggregated message should list every failure, got %q", err.Error())
	}
}

// rejectFF is an RGB24 wire format that refuses any pixel whose first byte
// is 0xFF. Used only to exercise error accumulation.
type rejectFF struct{}

func (rejectFF) BitsPerPixel() uint16  { return 24 }
func (rejectFF) PixelsPerMeter() int32 { return 2835 }
func (rejectFF) Decode(data []byte) (RGB24, error) {
	if data[0] == 0xFF {
		return RGB24{}, codecerr.NewIllegal("pixel", "marker byte")
	}
	return FromBytes(data)
}

func TestPixelAt(t *testing.T) {
	pixels := []RGB24{
		{R: 1}, {R: 2},
		{R: 3}, {R: 4},
	}
	img, err := New(2, 2, pixels)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	tests := []struct {
		name   string
		x, y   int
		want   RGB24
		wantOK bool
	}{
		{name: "origin", x: 0, y: 0, want: RGB24{R: 1}, wantOK: true},
		{name: "row-major order", x: 1, y: 1, want: RGB24{R: 4}, wantOK: true},
		{name: "x at width", x: 2, y: 0},
		{name: "y at height", x: 0, y: 2},
		{name: "negative x", x: -1, y: 0},
		{name: "negative y", x: 0, y: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := img.PixelAt(tt.x, tt.y)
			if ok != tt.wantOK {
				t.Fatalf("PixelAt(%d, %d) ok = %v; want %v", tt.x, tt.y, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("PixelAt(%d, %d) = %v; want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestNearestMatch(t *testing.T) {
	img, err := New(2, 1, []RGB24{{}, {R: 255, G: 255, B: 255}})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	x, y, ok := img.NearestMatch(RGB24{R: 10, G: 10, B: 10})
	if !ok || x != 0 || y != 0 {
		t.Errorf("NearestMatch(near-black) = (%d, %d, %v); want (0, 0, true)", x, y, ok)
	}

	x, y, ok = img.NearestMatch(RGB24{R: 200, G: 200, B: 200})
	if !ok || x != 1 || y != 0 {
		t.Errorf("NearestMatch(near-white) = (%d, %d, %v); want (1, 0, true)", x, y, ok)
	}
}

func TestNearestMatchFirstWinsOnTie(t *testing.T) {
	// Two identical pixels: the first in row-major order must win.
	img, err := New(2, 2, []RGB24{{R: 50}, {R: 200}, {R: 200}, {R: 50}})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	x, y, ok := img.NearestMatch(RGB24{R: 200})
	if !ok || x != 1 || y != 0 {
		t.Errorf("NearestMatch tie = (%d, %d, %v); want (1, 0, true)", x, y, ok)
	}
}

func TestNearestMatchEmptyImage(t *testing.T) {
	img, err := New(0, 0, nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if _, _, ok := img.NearestMatch(RGB24{}); ok {
		t.Error("NearestMatch on empty image reported a match")
	}
}

func TestDimensionAccessors(t *testing.T) {
	img, err := New(3, -2, solid(3, 2, RGB24{}))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	if img.Width() != 3 || img.Height() != 2 {
		t.Errorf("magnitudes = %dx%d; want 3x2", img.Width(), img.Height())
	}
	if img.RawWidth() != 3 || img.RawHeight() != -2 {
		t.Errorf("raw = %dx%d; want 3x-2", img.RawWidth(), img.RawHeight())
	}
}
