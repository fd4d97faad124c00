package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/chrissnell/stickplot/internal/vectorfield"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const defaultWidthPixels = 1200

// curtainOffsetScale turns u in m/s into the centimetres per second drawn along the
// depth axis, so sticks stay visible next to depths measured in metres.
const curtainOffsetScale = 100

// Curtain3D draws each stick from (time, depth, 0) to (time, depth+u, |v|) in an
// interactive HTML page, with u given in cm/s along the depth axis.
type Curtain3D struct{}

// Formats implements Renderer.
func (r *Curtain3D) Formats() []string {
	return []string{"html"}
}

// Render implements Renderer.
func (r *Curtain3D) Render(w io.Writer, field *vectorfield.Field, o Options) error {
	if field == nil || len(field.Vectors) == 0 {
		return vectorfield.ErrNoData
	}
	if err := checkHTML(r, o.Format); err != nil {
		return err
	}

	units := unitsOrDefault(o.Units)
	chart := newLine3D(o,
		opts.XAxis3D{Name: "Time", Type: "time"},
		opts.YAxis3D{Name: "Depth (m) + u (cm/s)"},
		opts.ZAxis3D{Name: "|v| (" + units + ")"},
	)

	names := seriesNames(field.Scheme, units)
	for _, v := range field.Vectors {
		t := v.Time.UnixMilli()
		chart.AddSeries(names.of(v.Color),
			[]opts.Chart3DData{
				{Value: []interface{}{t, v.Depth, 0}},
				{Value: []interface{}{t, curtainTip(v), math.Abs(v.V)}},
			},
			charts.WithLineStyleOpts(opts.LineStyle{Color: v.Color.CSS(), Width: 4}),
		)
	}

	if err := chart.Render(w); err != nil {
		return fmt.Errorf("writing html: %w", err)
	}
	return nil
}

// curtainTip is where a stick ends on the depth axis.
func curtainTip(v vectorfield.VectorSample) float64 {
	return v.Depth + v.U*curtainOffsetScale
}

// Snapshot3D draws the velocity profile at one instant: a stick from (0, 0, -depth)
// to (u, v, -depth) for every depth.
type Snapshot3D struct{}

// Formats implements Renderer.
func (r *Snapshot3D) Formats() []string {
	return []string{"html"}
}

// Render implements Renderer.
func (r *Snapshot3D) Render(w io.Writer, field *vectorfield.Field, o Options) error {
	if field == nil || len(field.Vectors) == 0 {
		return vectorfield.ErrNoData
	}
	if err := checkHTML(r, o.Format); err != nil {
		return err
	}

	units := unitsOrDefault(o.Units)
	lim := math.Max(field.Summary.MaxSpeed, 0.01)
	chart := newLine3D(o,
		opts.XAxis3D{Name: "u (" + units + ")", Min: -lim, Max: lim},
		opts.YAxis3D{Name: "v (" + units + ")", Min: -lim, Max: lim},
		opts.ZAxis3D{Name: "Depth (m)"},
	)

	names := seriesNames(field.Scheme, units)
	for _, v := range field.Vectors {
		chart.AddSeries(names.of(v.Color),
			[]opts.Chart3DData{
				{Value: []interface{}{0, 0, -v.Depth}},
				{Value: []interface{}{v.U, v.V, -v.Depth}},
			},
			charts.WithLineStyleOpts(opts.LineStyle{Color: v.Color.CSS(), Width: 4}),
		)
	}

	if err := chart.Render(w); err != nil {
		return fmt.Errorf("writing html: %w", err)
	}
	return nil
}

func checkHTML(r Renderer, format string) error {
	if format == "" || Supports(r, format) {
		return nil
	}
	return fmt.Errorf("3d plots are written as html, not %q", format)
}

func newLine3D(o Options, x opts.XAxis3D, y opts.YAxis3D, z opts.ZAxis3D) *charts.Line3D {
	width := int(o.Width)
	if width <= 0 {
		width = defaultWidthPixels
	}

	chart := charts.NewLine3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: o.Title,
			Width:     strconv.Itoa(width) + "px",
			Height:    strconv.Itoa(width*2/3) + "px",
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title}),
		charts.WithXAxis3DOpts(x),
		charts.WithYAxis3DOpts(y),
		charts.WithZAxis3DOpts(z),
	)
	return chart
}

// legendNames maps discrete bins to their legend label so sticks of one bin share a
// series name. Continuous schemes put every stick under one name.
type legendNames struct {
	labels []string
}

func seriesNames(scheme vectorfield.ColorScheme, units string) legendNames {
	var n legendNames
	if _, ok := scheme.(*vectorfield.DiscreteScheme); ok {
		for _, entry := range scheme.Legend(units) {
			n.labels = append(n.labels, entry.Label)
		}
	}
	return n
}

func (n legendNames) of(c vectorfield.Color) string {
	if c.Bin >= 0 && c.Bin < len(n.labels) {
		return n.labels[c.Bin]
	}
	return "speed"
}
