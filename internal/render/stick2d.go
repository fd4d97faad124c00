package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/chrissnell/stickplot/internal/constants"
	"github.com/chrissnell/stickplot/internal/vectorfield"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	// One unit of speed spans 1/quiverScale of the data area width.
	quiverScale = 20.0

	// Padding around the time axis, in seconds: 0.15 day before and 0.2 day after.
	padBefore = 0.15 * 86400
	padAfter  = 0.2 * 86400

	defaultWidthInches         = 20.0
	defaultHeightPerPlotInches = 1.0
	minHeightInches            = 3.0
)

// Stick2D draws one horizontal row of sticks per depth level with gonum/plot.
type Stick2D struct{}

// Formats implements Renderer.
func (s *Stick2D) Formats() []string {
	return []string{"png", "svg", "pdf", "jpg"}
}

// Render implements Renderer.
func (s *Stick2D) Render(w io.Writer, field *vectorfield.Field, opts Options) error {
	if field == nil || len(field.Groups) == 0 {
		return vectorfield.ErrNoData
	}
	format := opts.Format
	if format == "" {
		format = "png"
	}
	if !Supports(s, format) {
		return fmt.Errorf("2d stick plot cannot be written as %q", format)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Time (UTC)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Y.Tick.Marker = depthTicks(field.Groups)

	sticks := &stickPlotter{
		groups:    field.Groups,
		arrowHead: opts.ArrowHead,
		tMin:      unixSeconds(field.TimeMin.UnixNano()),
		tMax:      unixSeconds(field.TimeMax.UnixNano()),
	}
	p.Add(sticks)

	units := unitsOrDefault(opts.Units)
	for _, entry := range field.Scheme.Legend(units) {
		p.Legend.Add(entry.Label, swatch{color: entry.Color})
	}
	p.Legend.Top = true

	width := opts.Width
	if width <= 0 {
		width = defaultWidthInches
	}
	perRow := opts.HeightPerPlot
	if perRow <= 0 {
		perRow = defaultHeightPerPlotInches
	}
	height := math.Max(minHeightInches, perRow*float64(len(field.Groups)))

	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("preparing %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s: %w", format, err)
	}
	return nil
}

func unixSeconds(nanos int64) float64 {
	return float64(nanos) / 1e9
}

// depthTicks labels each row with its depth.
func depthTicks(groups []vectorfield.DepthGroup) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(groups))
	for i, g := range groups {
		ticks[i] = plot.Tick{Value: rowY(i), Label: fmt.Sprintf("%g m", g.Depth)}
	}
	return ticks
}

func rowY(i int) float64 {
	return float64(i) * constants.YOffsetFactor
}

// stickPlotter implements plot.Plotter and plot.DataRanger.
type stickPlotter struct {
	groups    []vectorfield.DepthGroup
	arrowHead bool
	tMin      float64
	tMax      float64
}

func (s *stickPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	return s.tMin - padBefore, s.tMax + padAfter,
		-constants.YOffsetFactor, rowY(len(s.groups)-1) + constants.YOffsetFactor
}

func (s *stickPlotter) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	scale := (c.Max.X - c.Min.X) / quiverScale

	lineWidth := vg.Points(0.6)
	if s.arrowHead {
		lineWidth = vg.Points(1)
	}

	for i, g := range s.groups {
		y0 := trY(rowY(i))
		for _, v := range g.Vectors {
			x0 := trX(unixSeconds(v.Time.UnixNano()))
			tail := vg.Point{X: x0, Y: y0}
			tip := vg.Point{X: x0 + vg.Length(v.U)*scale, Y: y0 + vg.Length(v.V)*scale}

			c.StrokeLine2(draw.LineStyle{Color: v.Color.RGBA, Width: lineWidth}, tail.X, tail.Y, tip.X, tip.Y)
			if s.arrowHead {
				if head := arrowHead(tail, tip); head != nil {
					c.FillPolygon(v.Color.RGBA, head)
				}
			}
		}
	}
}

// arrowHead returns the triangle at tip, or nil for a zero-length stick.
func arrowHead(tail, tip vg.Point) []vg.Point {
	dx := float64(tip.X - tail.X)
	dy := float64(tip.Y - tail.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}

	headLen := math.Min(length*0.35, float64(vg.Points(6)))
	halfWidth := headLen * 0.4
	ux, uy := dx/length, dy/length
	baseX := float64(tip.X) - ux*headLen
	baseY := float64(tip.Y) - uy*headLen

	return []vg.Point{
		tip,
		{X: vg.Length(baseX - uy*halfWidth), Y: vg.Length(baseY + ux*halfWidth)},
		{X: vg.Length(baseX + uy*halfWidth), Y: vg.Length(baseY - ux*halfWidth)},
	}
}

// swatch is a filled legend thumbnail.
type swatch struct {
	color color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(s.color, []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	})
}
