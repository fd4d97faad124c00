package vectorfield

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/palette"
)

// DefaultSpeedBounds are the inclusive upper bounds, in m/s, of the six discrete speed bins.
var DefaultSpeedBounds = []float64{0.10, 0.20, 0.30, 0.40, 0.50, math.Inf(1)}

// Color is the color assigned to one vector.
type Color struct {
	// Bin is the discrete bin index, or -1 for a continuous scheme.
	Bin int
	// Norm is the speed normalized into [0, 1] by a continuous scheme.
	Norm float64
	RGBA color.RGBA
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.RGBA.R, c.RGBA.G, c.RGBA.B)
}

// CSS returns the color as an rgba() expression, keeping alpha.
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.RGBA.R, c.RGBA.G, c.RGBA.B, float64(c.RGBA.A)/255)
}

// LegendEntry describes one legend item of a scheme.
type LegendEntry struct {
	Label string
	Color color.RGBA
}

// ColorScheme maps a speed to a color.
type ColorScheme interface {
	Classify(speed float64) (Color, error)
	Legend(units string) []LegendEntry
}

// Fitter is implemented by schemes whose scale depends on the data being plotted.
// Preparer calls Fit with the in-scope speeds before classifying anything.
type Fitter interface {
	Fit(speeds []float64) (ColorScheme, error)
}

// ClassifyColor returns the color scheme assigns to speed.
func ClassifyColor(speed float64, scheme ColorScheme) (Color, error) {
	if scheme == nil {
		return Color{}, errors.New("no color scheme configured")
	}
	return scheme.Classify(speed)
}

// DiscreteScheme assigns one of a fixed list of colors by speed bin.
// Bins are tried in ascending order and the first bound >= speed wins;
// speeds above every bound take the last color.
type DiscreteScheme struct {
	Bounds []float64
	Colors []color.RGBA
}

// NewDiscreteScheme validates bounds and colors and builds a scheme.
func NewDiscreteScheme(bounds []float64, colors []color.RGBA) (*DiscreteScheme, error) {
	if len(bounds) == 0 {
		return nil, errors.New("discrete color scheme needs at least one bin")
	}
	if len(bounds) != len(colors) {
		return nil, fmt.Errorf("discrete color scheme has %d bounds but %d colors", len(bounds), len(colors))
	}
	for i, b := range bounds {
		if math.IsNaN(b) {
			return nil, fmt.Errorf("speed bound %d is not a number", i)
		}
		if i > 0 && b <= bounds[i-1] {
			return nil, fmt.Errorf("speed bounds must be strictly ascending (bound %d is %v, previous is %v)", i, b, bounds[i-1])
		}
	}

	return &DiscreteScheme{
		Bounds: append([]float64(nil), bounds...),
		Colors: append([]color.RGBA(nil), colors...),
	}, nil
}

// Classify implements ColorScheme.
func (d *DiscreteScheme) Classify(speed float64) (Color, error) {
	if math.IsNaN(speed) || speed < 0 {
		return Color{}, &ComputationError{Field: "speed", Value: speed, Reason: "cannot be classified"}
	}
	for i, bound := range d.Bounds {
		if speed <= bound {
			return Color{Bin: i, RGBA: d.Colors[i]}, nil
		}
	}
	last := len(d.Colors) - 1
	return Color{Bin: last, RGBA: d.Colors[last]}, nil
}

// Legend implements ColorScheme.
func (d *DiscreteScheme) Legend(units string) []LegendEntry {
	entries := make([]LegendEntry, len(d.Bounds))
	for i, bound := range d.Bounds {
		// The last bin is the catch-all.
		label := fmt.Sprintf("<= %.2f %s", bound, units)
		if i == len(d.Bounds)-1 && i > 0 {
			label = fmt.Sprintf("> %.2f %s", d.Bounds[i-1], units)
		}
		entries[i] = LegendEntry{Label: label, Color: d.Colors[i]}
	}
	return entries
}

// ContinuousScheme colors speeds through a colormap normalized over [Min, Max].
// Unless Pinned is set, Fit replaces Min and Max with the extremes of the data being
// plotted, so two plots are only color-comparable when they share a pinned scale.
type ContinuousScheme struct {
	Map    palette.ColorMap
	Min    float64
	Max    float64
	Pinned bool
}

// NewContinuousScheme wraps a colormap. The map is rescaled to [0, 1] and indexed by
// normalized speed.
func NewContinuousScheme(cmap palette.ColorMap) (*ContinuousScheme, error) {
	if cmap == nil {
		return nil, errors.New("continuous color scheme needs a colormap")
	}
	cmap.SetMax(1)
	cmap.SetMin(0)
	return &ContinuousScheme{Map: cmap}, nil
}

// Pin fixes the normalization range so that several plots share one scale.
func (c *ContinuousScheme) Pin(vmin, vmax float64) error {
	if math.IsNaN(vmin) || math.IsNaN(vmax) || vmin > vmax {
		return &ComputationError{Field: "color scale", Value: vmin, Reason: "minimum must not exceed maximum"}
	}
	c.Min, c.Max, c.Pinned = vmin, vmax, true
	return nil
}

// Fit implements Fitter.
func (c *ContinuousScheme) Fit(speeds []float64) (ColorScheme, error) {
	if c.Pinned {
		return c, nil
	}
	if len(speeds) == 0 {
		return nil, ErrNoData
	}
	fitted := *c
	fitted.Min = floats.Min(speeds)
	fitted.Max = floats.Max(speeds)
	return &fitted, nil
}

// Normalize maps speed into [0, 1]. A degenerate range maps everything to 0.
func (c *ContinuousScheme) Normalize(speed float64) float64 {
	span := c.Max - c.Min
	if span <= 0 {
		return 0
	}
	n := (speed - c.Min) / span
	return math.Max(0, math.Min(1, n))
}

// Classify implements ColorScheme.
func (c *ContinuousScheme) Classify(speed float64) (Color, error) {
	if math.IsNaN(speed) || speed < 0 {
		return Color{}, &ComputationError{Field: "speed", Value: speed, Reason: "cannot be classified"}
	}
	norm := c.Normalize(speed)
	col, err := c.Map.At(norm)
	if err != nil {
		return Color{}, fmt.Errorf("colormap lookup for %v: %w", norm, err)
	}
	return Color{Bin: -1, Norm: norm, RGBA: color.RGBAModel.Convert(col).(color.RGBA)}, nil
}

// Legend implements ColorScheme with a few evenly spaced stops.
func (c *ContinuousScheme) Legend(units string) []LegendEntry {
	const stops = 5
	entries := make([]LegendEntry, 0, stops)
	for i := 0; i < stops; i++ {
		frac := float64(i) / float64(stops-1)
		col, err := c.Map.At(frac)
		if err != nil {
			continue
		}
		entries = append(entries, LegendEntry{
			Label: fmt.Sprintf("%.2f %s", c.Min+frac*(c.Max-c.Min), units),
			Color: color.RGBAModel.Convert(col).(color.RGBA),
		})
	}
	return entries
}
