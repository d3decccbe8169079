// Package flaggrid implements the text encoding Mage Arena uses to persist
// a battle flag: a fixed-size grid of fractional palette coordinates, stored
// column-major as delimiter-joined decimal pairs.
//
// Each cell occupies exactly 10 bytes on the wire: "x.xx:y.yy" followed by a
// one-byte terminator, a comma after every cell except the last, which
// carries NUL. Coordinates are fractions of the palette dimensions in
// [0, 1); values above 1.0 are legacy percent form and divide by 100.
package flaggrid

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/SamJakob/MageArenaFlagEditor/core/bitmap"
	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

const (
	// FlagWidth is the width of the flag in pixels.
	FlagWidth = 100

	// FlagHeight is the height of the flag in pixels.
	FlagHeight = 66

	// CellSize is the number of bytes one encoded cell occupies, terminator
	// included.
	CellSize = 10
)

// Cell is one grid entry: fractional coordinates into the palette image.
type Cell struct {
	X float64
	Y float64
}

// Grid is the full flag grid in the game's column-major storage order.
type Grid struct {
	Cells []Cell
}

// cellBody is the participle AST for the 9-byte cell payload before the
// terminator: two decimal coordinates joined by a colon.
type cellBody struct {
	X string `parser:"@Number"`
	Y string `parser:"':' @Number"`
}

var cellLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Divider", Pattern: `:`},
})

var cellParser = participle.MustBuild[cellBody](
	participle.Lexer(cellLexer),
)

// parseCoordinate converts one parsed coordinate string to a fraction,
// folding legacy percent values into [0, 1).
func parseCoordinate(s string) (float64, error) {
	var v float64
	if _, err := fmt.Sscanf(s, "%f", &v); err != nil {
		return 0, err
	}
	if v > 1.0 {
		v /= 100.0
	}
	return v, nil
}

// ParseGrid decodes the raw stored flag payload into a Grid.
//
// The payload length must be a multiple of CellSize. Every cell is checked
// for its terminator and parsed; malformed cells never stop the scan — each
// failure is recorded and all of them are reported in one aggregated error.
func ParseGrid(data []byte) (*Grid, error) {
	if len(data)%CellSize != 0 {
		return nil, errors.NewValue("flag data",
			fmt.Sprintf("raw flag data length is not divisible by the cell size (%d)", CellSize))
	}

	count := len(data) / CellSize
	cells := make([]Cell, 0, count)
	var bad []string

	for i := 0; i < count; i++ {
		chunk := data[i*CellSize : (i+1)*CellSize]

		expectedTerminator := byte(',')
		if i == count-1 {
			expectedTerminator = 0
		}
		if chunk[CellSize-1] != expectedTerminator {
			bad = append(bad, fmt.Sprintf("cell %d contains an invalid last character (expected: %d, got: %d)",
				i, expectedTerminator, chunk[CellSize-1]))
			continue
		}

		body, err := cellParser.ParseBytes("", chunk[:CellSize-1])
		if err != nil {
			bad = append(bad, fmt.Sprintf("cell %d is malformed: %v", i, err))
			continue
		}

		x, err := parseCoordinate(body.X)
		if err != nil {
			bad = append(bad, fmt.Sprintf("cell %d's x-coordinate (%s) was not a valid float: %v", i, body.X, err))
			continue
		}
		y, err := parseCoordinate(body.Y)
		if err != nil {
			bad = append(bad, fmt.Sprintf("cell %d's y-coordinate (%s) was not a valid float: %v", i, body.Y, err))
			continue
		}

		cells = append(cells, Cell{X: x, Y: y})
	}

	if len(bad) > 0 {
		return nil, errors.NewValue("flag data", "bad cells\n\n"+strings.Join(bad, "\n"))
	}
	return &Grid{Cells: cells}, nil
}

// Encode serializes the grid back into the game's wire form: "%.2f:%.2f"
// cells joined by commas, with a NUL after the final cell.
func (g *Grid) Encode() []byte {
	var sb strings.Builder
	sb.Grow(len(g.Cells) * CellSize)

	for i, cell := range g.Cells {
		terminator := byte(',')
		if i == len(g.Cells)-1 {
			terminator = 0
		}
		fmt.Fprintf(&sb, "%.2f:%.2f", cell.X, cell.Y)
		sb.WriteByte(terminator)
	}
	return []byte(sb.String())
}

// Pixels resolves every cell against the palette image and returns the flag
// pixels in row-major image order, transposing the grid's column-major
// storage. Cells that resolve outside the palette are batched into one
// aggregated error.
func (g *Grid) Pixels(palette *bitmap.Image[bitmap.RGB24]) ([]bitmap.RGB24, error) {
	if len(g.Cells) != FlagWidth*FlagHeight {
		return nil, errors.NewValue("flag data",
			fmt.Sprintf("expected %d cells, got %d", FlagWidth*FlagHeight, len(g.Cells)))
	}

	paletteWidth := float64(palette.Width())
	paletteHeight := float64(palette.Height())

	pixels := make([]bitmap.RGB24, 0, len(g.Cells))
	var bad []string

	for row := 0; row < FlagHeight; row++ {
		for col := 0; col < FlagWidth; col++ {
			i := col*FlagHeight + row
			cell := g.Cells[i]

			x := int(cell.X * paletteWidth)
			y := int(cell.Y * paletteHeight)
			pixel, ok := palette.PixelAt(x, y)
			if !ok {
				bad = append(bad, fmt.Sprintf("failed to resolve palette pixel (%d, %d) for cell %d", x, y, i))
				continue
			}
			pixels = append(pixels, pixel)
		}
	}

	if len(bad) > 0 {
		return nil, errors.NewValue("flag data", "bad cells\n\n"+strings.Join(bad, "\n"))
	}
	return pixels, nil
}

// FromImage builds a grid from a flag image by nearest-matching every flag
// pixel against the palette, transposing row-major image order into the
// grid's column-major storage. Cell coordinates are emitted as fractions of
// the palette dimensions.
func FromImage(flag, palette *bitmap.Image[bitmap.RGB24]) (*Grid, error) {
	if flag.Width() != FlagWidth || flag.Height() != FlagHeight {
		return nil, errors.NewIllegal("flag image",
			fmt.Sprintf("expected %dx%d pixels, got %dx%d", FlagWidth, FlagHeight, flag.Width(), flag.Height()))
	}

	paletteWidth := float64(palette.Width())
	paletteHeight := float64(palette.Height())

	cells := make([]Cell, 0, FlagWidth*FlagHeight)
	var bad []string

	for col := 0; col < FlagWidth; col++ {
		for row := 0; row < FlagHeight; row++ {
			pixel, _ := flag.PixelAt(col, row)
			x, y, ok := palette.NearestMatch(pixel)
			if !ok {
				bad = append(bad, fmt.Sprintf("failed to find match for pixel (%d, %d)", col, row))
				continue
			}
			cells = append(cells, Cell{
				X: float64(x) / paletteWidth,
				Y: float64(y) / paletteHeight,
			})
		}
	}

	if len(bad) > 0 {
		return nil, errors.NewValue("flag image", "error mapping pixels\n\n"+strings.Join(bad, "\n"))
	}
	return &Grid{Cells: cells}, nil
}
