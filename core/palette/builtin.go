// Package palette provides reference palette images for flag mapping: a
// built-in table reproducing the game's stock palette layout, and XML swatch
// catalogs from which custom palettes are generated.
package palette

import (
	"fmt"
	"sort"

	"github.com/SamJakob/MageArenaFlagEditor/core/bitmap"
	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

// Stock palette dimensions. Palettes are generated by tiling swatches
// row-major; nearest-match only cares about which colors are present, not
// where, so the layout just has to be stable.
const (
	builtinWidth  = 16
	builtinHeight = 8
)

// builtins maps palette names to their swatch tables. Literals are validated
// at package initialization; a bad literal aborts startup.
var builtins = map[string][]bitmap.RGB24{
	"classic": {
		bitmap.MustHex("#000000"), bitmap.MustHex("#FFFFFF"),
		bitmap.MustHex("#7F7F7F"), bitmap.MustHex("#C3C3C3"),
		bitmap.MustHex("#880015"), bitmap.MustHex("#ED1C24"),
		bitmap.MustHex("#FF7F27"), bitmap.MustHex("#FFF200"),
		bitmap.MustHex("#22B14C"), bitmap.MustHex("#00A2E8"),
		bitmap.MustHex("#3F48CC"), bitmap.MustHex("#A349A4"),
		bitmap.MustHex("#B97A57"), bitmap.MustHex("#FFAEC9"),
		bitmap.MustHex("#FFC90E"), bitmap.MustHex("#EFE4B0"),
	},
	"grayscale": {
		bitmap.MustHex("#000000"), bitmap.MustHex("#242424"),
		bitmap.MustHex("#484848"), bitmap.MustHex("#6D6D6D"),
		bitmap.MustHex("#919191"), bitmap.MustHex("#B6B6B6"),
		bitmap.MustHex("#DADADA"), bitmap.MustHex("#FFFFFF"),
	},
}

// Names returns the available built-in palette names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a ready palette image for the given built-in name.
func Builtin(name string) (*bitmap.Image[bitmap.RGB24], error) {
	swatches, ok := builtins[name]
	if !ok {
		return nil, errors.NewIllegal("palette", fmt.Sprintf("unknown built-in palette %q", name))
	}
	return tile(swatches, builtinWidth, builtinHeight)
}

// tile fills a width x height image with the swatch sequence row-major; the
// last swatch extends to fill the remainder.
func tile(swatches []bitmap.RGB24, width, height int32) (*bitmap.Image[bitmap.RGB24], error) {
	if len(swatches) == 0 {
		return nil, errors.NewIllegal("palette", "palette has no swatches")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.NewIllegal("palette",
			fmt.Sprintf("palette dimensions must be positive, got %dx%d", width, height))
	}

	count := int(width) * int(height)
	pixels := make([]bitmap.RGB24, count)
	for i := range pixels {
		if i < len(swatches) {
			pixels[i] = swatches[i]
		} else {
			pixels[i] = swatches[len(swatches)-1]
		}
	}
	return bitmap.New(width, height, pixels)
}
