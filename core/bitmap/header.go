package bitmap

import (
	"encoding/binary"

	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

const (
	// FileHeaderSize is the size of the bitmap file header in bytes.
	FileHeaderSize = 14

	// InfoHeaderSize is the size of the bitmap information header
	// (BITMAPINFOHEADER) in bytes.
	InfoHeaderSize = 40
)

// magic identifies a Windows 3.x-style bitmap file ("BM").
var magic = [2]byte{0x42, 0x4D}

// Compression is the set of bitmap compression methods this codec knows
// about. Only CompressionNone is implemented; everything else is rejected
// during decode.
type Compression uint32

const (
	// CompressionNone is the BI_RGB uncompressed pixel layout.
	CompressionNone Compression = 0
)

// compressionFromIdentifier maps a raw compression field to a known method.
func compressionFromIdentifier(id uint32) (Compression, error) {
	switch id {
	case 0:
		return CompressionNone, nil
	default:
		return 0, errors.NewIllegal("compression method", "unknown identifier")
	}
}

// FileHeader is the 14-byte bitmap file header.
type FileHeader struct {
	// Size is the size of the entire bitmap file, in bytes.
	Size uint32

	// Reserved1 and Reserved2 are application-defined; written as 0.
	Reserved1 uint16
	Reserved2 uint16

	// Offset is the starting address of the pixel data.
	Offset uint32
}

// NewFileHeader builds a file header for the given total file size and pixel
// data offset.
func NewFileHeader(size, offset uint32) FileHeader {
	return FileHeader{Size: size, Offset: offset}
}

// DecodeFileHeader parses the 14-byte file header at the start of data.
func DecodeFileHeader(data []byte) (FileHeader, error) {
	if len(data) < FileHeaderSize {
		return FileHeader{}, errors.NewIllegal("file header", "buffer is shorter than the 14-byte file header")
	}
	if data[0] != magic[0] || data[1] != magic[1] {
		return FileHeader{}, errors.NewIllegal("file header", "unsupported bitmap identifier")
	}
	return FileHeader{
		Size:      binary.LittleEndian.Uint32(data[2:6]),
		Reserved1: binary.LittleEndian.Uint16(data[6:8]),
		Reserved2: binary.LittleEndian.Uint16(data[8:10]),
		Offset:    binary.LittleEndian.Uint32(data[10:14]),
	}, nil
}

// Bytes serializes the file header into its 14-byte wire form.
func (h FileHeader) Bytes() []byte {
	out := make([]byte, FileHeaderSize)
	out[0], out[1] = magic[0], magic[1]
	binary.LittleEndian.PutUint32(out[2:6], h.Size)
	binary.LittleEndian.PutUint16(out[6:8], h.Reserved1)
	binary.LittleEndian.PutUint16(out[8:10], h.Reserved2)
	binary.LittleEndian.PutUint32(out[10:14], h.Offset)
	return out
}

// InfoHeader is the 40-byte bitmap information header (BITMAPINFOHEADER).
type InfoHeader struct {
	// Size is the size of this header in bytes; always 40.
	Size uint32

	// Width is the width of the image in pixels. The sign is irrelevant to
	// the magnitude.
	Width int32

	// Height is the height of the image in pixels. Negative means the rows
	// are stored top-to-bottom, positive means bottom-to-top.
	Height int32

	// ColorPlaneCount is the number of color planes; must be 1.
	ColorPlaneCount uint16

	// BitsPerPixel is the number of bits per pixel; only 24 is supported.
	BitsPerPixel uint16

	// CompressionMethod is the pixel compression in use.
	CompressionMethod Compression

	// RawImageSize may be 0 for uncompressed images.
	RawImageSize uint32

	// HorizontalResolution and VerticalResolution are in pixels per meter.
	HorizontalResolution int32
	VerticalResolution   int32

	// PaletteColorCount is the number of colors in the color table, or 0.
	PaletteColorCount uint32

	// ImportantColorCount is generally ignored.
	ImportantColorCount uint32
}

// NewInfoHeader derives an information header for an image of the given
// dimensions in the given pixel format.
func NewInfoHeader[P Pixel[P]](format Format[P], width, height int32) InfoHeader {
	return InfoHeader{
		Size:                 InfoHeaderSize,
		Width:                width,
		Height:               height,
		ColorPlaneCount:      1,
		BitsPerPixel:         format.BitsPerPixel(),
		CompressionMethod:    CompressionNone,
		HorizontalResolution: format.PixelsPerMeter(),
		VerticalResolution:   format.PixelsPerMeter(),
	}
}

// DecodeInfoHeader parses the 40-byte information header from data.
//
// Malformed fields (wrong header size, plane count, compression identifier)
// are IllegalParameter errors; a structurally valid header describing an
// unimplemented bit depth is an Unsupported error.
func DecodeInfoHeader(data []byte) (InfoHeader, error) {
	if len(data) < InfoHeaderSize {
		return InfoHeader{}, errors.NewIllegal("information header", "buffer is shorter than the 40-byte information header")
	}

	compression, err := compressionFromIdentifier(binary.LittleEndian.Uint32(data[16:20]))
	if err != nil {
		return InfoHeader{}, err
	}

	h := InfoHeader{
		Size:                 binary.LittleEndian.Uint32(data[0:4]),
		Width:                int32(binary.LittleEndian.Uint32(data[4:8])),
		Height:               int32(binary.LittleEndian.Uint32(data[8:12])),
		ColorPlaneCount:      binary.LittleEndian.Uint16(data[12:14]),
		BitsPerPixel:         binary.LittleEndian.Uint16(data[14:16]),
		CompressionMethod:    compression,
		RawImageSize:         binary.LittleEndian.Uint32(data[20:24]),
		HorizontalResolution: int32(binary.LittleEndian.Uint32(data[24:28])),
		VerticalResolution:   int32(binary.LittleEndian.Uint32(data[28:32])),
		PaletteColorCount:    binary.LittleEndian.Uint32(data[32:36]),
		ImportantColorCount:  binary.LittleEndian.Uint32(data[36:40]),
	}

	if h.Size != InfoHeaderSize {
		return InfoHeader{}, errors.NewIllegal("information header", "unexpected bitmap information header size")
	}
	if h.BitsPerPixel != 24 {
		return InfoHeader{}, errors.NewUnsupported("bit depth", "only 24bpp bitmaps are supported")
	}
	if h.ColorPlaneCount != 1 {
		return InfoHeader{}, errors.NewIllegal("information header", "color plane count must be 1")
	}

	return h, nil
}

// Bytes serializes the information header into its 40-byte wire form.
func (h InfoHeader) Bytes() []byte {
	out := make([]byte, InfoHeaderSize)
	binary.LittleEndian.PutUint32(out[0:4], h.Size)
	binary.LittleEndian.PutUint32(out[4:8], uint32(h.Width))
	binary.LittleEndian.PutUint32(out[8:12], uint32(h.Height))
	binary.LittleEndian.PutUint16(out[12:14], h.ColorPlaneCount)
	binary.LittleEndian.PutUint16(out[14:16], h.BitsPerPixel)
	binary.LittleEndian.PutUint32(out[16:20], uint32(h.CompressionMethod))
	binary.LittleEndian.PutUint32(out[20:24], h.RawImageSize)
	binary.LittleEndian.PutUint32(out[24:28], uint32(h.HorizontalResolution))
	binary.LittleEndian.PutUint32(out[28:32], uint32(h.VerticalResolution))
	binary.LittleEndian.PutUint32(out[32:36], h.PaletteColorCount)
	binary.LittleEndian.PutUint32(out[36:40], h.ImportantColorCount)
	return out
}
