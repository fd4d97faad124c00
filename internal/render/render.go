// Package render draws prepared vector fields as stick plots.
package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chrissnell/stickplot/internal/vectorfield"
)

// View selects a rendering strategy.
type View string

const (
	// View2D is a quiver stick plot with one row per depth, time on the x axis.
	View2D View = "2d"
	// View3DCurtain places sticks in time/depth/speed space.
	View3DCurtain View = "3d"
	// View3DSnapshot draws the u/v profile through depth at a single time.
	View3DSnapshot View = "3d-snapshot"
)

// Options control a single render.
type Options struct {
	Title  string
	Format string
	// ArrowHead draws arrowheads on 2D sticks instead of plain segments.
	ArrowHead bool
	// HeightPerPlot is the height in inches of each depth row in a 2D plot.
	HeightPerPlot float64
	// Width is in inches for 2D plots and pixels for 3D plots. Zero picks a default.
	Width float64
	// Units labels speeds in legends and axes, e.g. "m/s".
	Units string
}

// Renderer draws a prepared field to w.
type Renderer interface {
	Render(w io.Writer, field *vectorfield.Field, opts Options) error
	Formats() []string
}

// New returns the renderer for view.
func New(view View) (Renderer, error) {
	switch view {
	case "", View2D:
		return &Stick2D{}, nil
	case View3DCurtain:
		return &Curtain3D{}, nil
	case View3DSnapshot:
		return &Snapshot3D{}, nil
	default:
		return nil, fmt.Errorf("unknown view %q (use 2d, 3d or 3d-snapshot)", view)
	}
}

// FormatFromFilename derives the output format from a file extension.
func FormatFromFilename(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "png", "svg", "pdf", "jpg", "html":
		return ext, nil
	case "jpeg":
		return "jpg", nil
	case "htm":
		return "html", nil
	case "":
		return "", fmt.Errorf("output filename %q has no extension", name)
	default:
		return "", fmt.Errorf("unsupported output format %q", ext)
	}
}

// Supports reports whether r can produce format.
func Supports(r Renderer, format string) bool {
	for _, f := range r.Formats() {
		if f == format {
			return true
		}
	}
	return false
}

func unitsOrDefault(units string) string {
	if units == "" {
		return "m/s"
	}
	return units
}
