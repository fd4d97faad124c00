// Package colors resolves palette entries and colormap names found in plot configuration.
package colors

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// DefaultPalette is the six-color speed palette used when a plot doesn't name one.
var DefaultPalette = []string{"pink", "skyblue", "green", "yellow", "orange", "red"}

// DefaultColormap is used for continuous schemes when no colormap is configured.
const DefaultColormap = "kindlmann"

// Parse resolves an SVG/CSS color name ("skyblue") or a hex triplet ("#87ceeb", "87ceeb", "#fff").
func Parse(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}

	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(name, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// ParsePalette resolves every entry of names. A single entry of the form "brewer:<name>"
// expands to n colors of that ColorBrewer palette.
func ParsePalette(names []string, n int) ([]color.RGBA, error) {
	if len(names) == 1 && strings.HasPrefix(names[0], "brewer:") {
		return Brewer(strings.TrimPrefix(names[0], "brewer:"), n)
	}

	out := make([]color.RGBA, len(names))
	for i, name := range names {
		c, err := Parse(name)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// Brewer returns n colors of the named ColorBrewer palette, e.g. "YlOrRd".
func Brewer(name string, n int) ([]color.RGBA, error) {
	p, err := brewer.GetPalette(brewer.TypeAny, name, n)
	if err != nil {
		return nil, fmt.Errorf("brewer palette %q with %d colors: %w", name, n, err)
	}
	cols := p.Colors()
	out := make([]color.RGBA, len(cols))
	for i, c := range cols {
		out[i] = color.RGBAModel.Convert(c).(color.RGBA)
	}
	return out, nil
}

// Colormap returns a fresh continuous colormap by name.
func Colormap(name string) (palette.ColorMap, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "kindlmann":
		return moreland.Kindlmann(), nil
	case "extended-kindlmann":
		return moreland.ExtendedKindlmann(), nil
	case "blackbody":
		return moreland.BlackBody(), nil
	case "extended-blackbody":
		return moreland.ExtendedBlackBody(), nil
	case "blue-red", "coolwarm":
		return moreland.SmoothBlueRed(), nil
	default:
		return nil, fmt.Errorf("unknown colormap %q (known: %s)", name, strings.Join(ColormapNames(), ", "))
	}
}

// ColormapNames lists the names Colormap accepts.
func ColormapNames() []string {
	return []string{"kindlmann", "extended-kindlmann", "blackbody", "extended-blackbody", "blue-red"}
}
