package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	codecerr "github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

// buildInfoHeader assembles a raw 40-byte information header for decode
// tests, starting from a valid 24bpp uncompressed layout.
func buildInfoHeader(mutate func([]byte)) []byte {
	data := make([]byte, InfoHeaderSize)
	binary.LittleEndian.PutUint32(data[0:4], 40)
	binary.LittleEndian.PutUint32(data[4:8], 4)  // width
	binary.LittleEndian.PutUint32(data[8:12], 2) // height
	binary.LittleEndian.PutUint16(data[12:14], 1)
	binary.LittleEndian.PutUint16(data[14:16], 24)
	if mutate != nil {
		mutate(data)
	}
	return data
}

func TestDecodeFileHeader(t *testing.T) {
	valid := FileHeader{Size: 102, Offset: 54}.Bytes()

	t.Run("round-trip", func(t *testing.T) {
		got, err := DecodeFileHeader(valid)
		if err != nil {
			t.Fatalf("DecodeFileHeader error = %v", err)
		}
		if got.Size != 102 || got.Offset != 54 || got.Reserved1 != 0 || got.Reserved2 != 0 {
			t.Errorf("DecodeFileHeader = %+v; want size 102, offset 54", got)
		}
	})

	t.Run("bad magic", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		data[0] = 'X'
		if _, err := DecodeFileHeader(data); !errors.Is(err, codecerr.ErrIllegalParameter) {
			t.Errorf("DecodeFileHeader error = %v; want IllegalParameter", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		if _, err := DecodeFileHeader(valid[:10]); !errors.Is(err, codecerr.ErrIllegalParameter) {
			t.Errorf("DecodeFileHeader error = %v; want IllegalParameter", err)
		}
	})
}

func TestFileHeaderBytesLayout(t *testing.T) {
	data := FileHeader{Size: 0x01020304, Offset: 0x0A0B0C0D}.Bytes()
	want := []byte{
		0x42, 0x4D, // magic
		0x04, 0x03, 0x02, 0x01, // size, little-endian
		0x00, 0x00, 0x00, 0x00, // reserved
		0x0D, 0x0C, 0x0B, 0x0A, // offset, little-endian
	}
	if !bytes.Equal(data, want) {
		t.Errorf("FileHeader.Bytes() = % X; want % X", data, want)
	}
}

func TestDecodeInfoHeader(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantKind error
	}{
		{name: "valid", data: buildInfoHeader(nil)},
		{
			name: "bad header size",
			data: buildInfoHeader(func(d []byte) {
				binary.LittleEndian.PutUint32(d[0:4], 38)
			}),
			wantKind: codecerr.ErrIllegalParameter,
		},
		{
			name: "unsupported bit depth",
			data: buildInfoHeader(func(d []byte) {
				binary.LittleEndian.PutUint16(d[14:16], 1)
			}),
			wantKind: codecerr.ErrUnsupported,
		},
		{
			name: "bad plane count",
			data: buildInfoHeader(func(d []byte) {
				binary.LittleEndian.PutUint16(d[12:14], 2)
			}),
			wantKind: codecerr.ErrIllegalParameter,
		},
		{
			name: "unknown compression",
			data: buildInfoHeader(func(d []byte) {
				binary.LittleEndian.PutUint32(d[16:20], 3)
			}),
			wantKind: codecerr.ErrIllegalParameter,
		},
		{
			name:     "truncated",
			data:     buildInfoHeader(nil)[:12],
			wantKind: codecerr.ErrIllegalParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInfoHeader(tt.data)
			if tt.wantKind != nil {
				if !errors.Is(err, tt.wantKind) {
					t.Errorf("DecodeInfoHeader error = %v; want %v", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeInfoHeader error = %v", err)
			}
			if got.Width != 4 || got.Height != 2 || got.BitsPerPixel != 24 {
				t.Errorf("DecodeInfoHeader = %+v; want width 4, height 2, 24bpp", got)
			}
		})
	}
}

func TestInfoHeaderRoundTrip(t *testing.T) {
	original := NewInfoHeader[RGB24](RGB24Format{}, 100, -66)
	decoded, err := DecodeInfoHeader(original.Bytes())
	if err != nil {
		t.Fatalf("DecodeInfoHeader error = %v", err)
	}
	if decoded != original {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
	if decoded.Height != -66 {
		t.Errorf("signed height = %d; want -66", decoded.Height)
	}
	if decoded.HorizontalResolution != 2835 || decoded.VerticalResolution != 2835 {
		t.Errorf("resolution = %d x %d; want 2835 x 2835", decoded.HorizontalResolution, decoded.VerticalResolution)
	}
}
