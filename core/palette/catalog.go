package palette

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/SamJakob/MageArenaFlagEditor/core/bitmap"
	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

// Catalog is a parsed XML swatch catalog: named palettes, each a sequence of
// swatches in hex or HSV form.
//
// The document shape is:
//
//	<catalog>
//	  <palette name="...">
//	    <swatch hex="#RRGGBB"/>
//	    <swatch hue="0.5" saturation="1.0" value="1.0"/>
//	  </palette>
//	</catalog>
type Catalog struct {
	palettes map[string][]bitmap.RGB24
}

var (
	paletteQuery = xpath.MustCompile("//catalog/palette")
	swatchQuery  = xpath.MustCompile("./swatch")
)

// LoadCatalog parses an XML swatch catalog. Malformed swatches fail eagerly;
// a catalog is either fully valid or rejected.
func LoadCatalog(data []byte) (*Catalog, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewIllegal("catalog", fmt.Sprintf("parsing XML: %v", err))
	}

	catalog := &Catalog{palettes: make(map[string][]bitmap.RGB24)}

	for _, node := range xmlquery.QuerySelectorAll(doc, paletteQuery) {
		name := node.SelectAttr("name")
		if name == "" {
			return nil, errors.NewIllegal("catalog", "palette element is missing its name attribute")
		}
		if _, exists := catalog.palettes[name]; exists {
			return nil, errors.NewIllegal("catalog", fmt.Sprintf("duplicate palette name %q", name))
		}

		var swatches []bitmap.RGB24
		for _, swatch := range xmlquery.QuerySelectorAll(node, swatchQuery) {
			pixel, err := parseSwatch(swatch)
			if err != nil {
				return nil, errors.Wrapf(err, "palette %q", name)
			}
			swatches = append(swatches, pixel)
		}
		if len(swatches) == 0 {
			return nil, errors.NewIllegal("catalog", fmt.Sprintf("palette %q has no swatches", name))
		}

		catalog.palettes[name] = swatches
	}

	if len(catalog.palettes) == 0 {
		return nil, errors.NewIllegal("catalog", "no palettes found")
	}
	return catalog, nil
}

// parseSwatch builds a pixel from either the hex or the HSV attribute form.
func parseSwatch(node *xmlquery.Node) (bitmap.RGB24, error) {
	if hex := node.SelectAttr("hex"); hex != "" {
		return bitmap.ParseHex(hex)
	}

	hue, err := swatchFloat(node, "hue")
	if err != nil {
		return bitmap.RGB24{}, err
	}
	saturation, err := swatchFloat(node, "saturation")
	if err != nil {
		return bitmap.RGB24{}, err
	}
	value, err := swatchFloat(node, "value")
	if err != nil {
		return bitmap.RGB24{}, err
	}
	return bitmap.FromHSV(hue, saturation, value)
}

func swatchFloat(node *xmlquery.Node, attr string) (float64, error) {
	raw := node.SelectAttr(attr)
	if raw == "" {
		return 0, errors.NewIllegal("swatch", fmt.Sprintf("missing %s attribute (expected hex or hue/saturation/value)", attr))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.NewIllegal("swatch", fmt.Sprintf("%s attribute %q is not a valid float", attr, raw))
	}
	return v, nil
}

// Palettes returns the catalog's palette names, in map order.
func (c *Catalog) Palettes() []string {
	names := make([]string, 0, len(c.palettes))
	for name := range c.palettes {
		names = append(names, name)
	}
	return names
}

// Build generates a width x height palette image from the named palette's
// swatches, filled row-major with the last swatch extending.
func (c *Catalog) Build(name string, width, height int32) (*bitmap.Image[bitmap.RGB24], error) {
	swatches, ok := c.palettes[name]
	if !ok {
		return nil, errors.NewIllegal("palette", fmt.Sprintf("catalog has no palette %q", name))
	}
	return tile(swatches, width, height)
}
